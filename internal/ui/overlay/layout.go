package overlay

import (
	"fyne.io/fyne/v2"

	"mindhaven/internal/core/animation"
)

// breathLayout centres two circles and sizes them by the current scale.
// The expanded scale fills the available square.
type breathLayout struct {
	scale animation.Scale
}

func (layout *breathLayout) Layout(objects []fyne.CanvasObject, size fyne.Size) {
	if len(objects) < 2 {
		return
	}
	side := size.Width
	if size.Height < side {
		side = size.Height
	}
	outer := side * float32(layout.scale.Outer/animation.ExpandedScale.Outer)
	inner := side * 0.6 * float32(layout.scale.Inner/animation.ExpandedScale.Inner)
	placeCentred(objects[0], size, outer)
	placeCentred(objects[1], size, inner)
}

func (layout *breathLayout) MinSize([]fyne.CanvasObject) fyne.Size {
	return fyne.NewSize(60, 60)
}

func placeCentred(object fyne.CanvasObject, size fyne.Size, diameter float32) {
	if diameter < 0 {
		diameter = 0
	}
	object.Resize(fyne.NewSize(diameter, diameter))
	object.Move(fyne.NewPos((size.Width-diameter)/2, (size.Height-diameter)/2))
}

// visualPanelLayout puts the visual in a square above a right-aligned
// stop button.
type visualPanelLayout struct{}

func (layout *visualPanelLayout) Layout(objects []fyne.CanvasObject, size fyne.Size) {
	if len(objects) < 2 {
		return
	}
	visual := objects[0]
	stop := objects[1]

	stopSize := stop.MinSize()
	stopHeight := stopSize.Height
	if stopHeight > size.Height*0.25 {
		stopHeight = size.Height * 0.25
	}
	visualHeight := size.Height - stopHeight
	if visualHeight < 0 {
		visualHeight = 0
	}

	margin := visualHeight * 0.05
	side := visualHeight * 0.90
	if side > size.Width-margin {
		side = size.Width - margin
	}
	if side < 0 {
		side = 0
	}
	x := size.Width - margin - side
	if x < 0 {
		x = 0
	}
	visual.Move(fyne.NewPos(x, margin))
	visual.Resize(fyne.NewSize(side, side))

	stopWidth := stopSize.Width * 1.4
	if stopWidth > size.Width {
		stopWidth = size.Width
	}
	stopX := x + side - stopWidth
	if stopX < 0 {
		stopX = 0
	}
	stopY := visualHeight + (stopHeight-stopSize.Height)/2
	if stopY < 0 {
		stopY = 0
	}
	stop.Move(fyne.NewPos(stopX, stopY))
	stop.Resize(fyne.NewSize(stopWidth, stopSize.Height))
}

func (layout *visualPanelLayout) MinSize(objects []fyne.CanvasObject) fyne.Size {
	if len(objects) < 2 {
		return fyne.NewSize(0, 0)
	}
	visualMin := objects[0].MinSize()
	stopMin := objects[1].MinSize()
	return fyne.NewSize(fyne.Max(visualMin.Width, stopMin.Width), visualMin.Height+stopMin.Height)
}

// textPanelLayout stacks title, subtitle and detail from the top and pins
// the timer to the bottom.
type textPanelLayout struct{}

func (layout *textPanelLayout) Layout(objects []fyne.CanvasObject, size fyne.Size) {
	if len(objects) < 4 {
		return
	}
	pad := size.Height * 0.05
	width := size.Width - pad*2
	if width < 0 {
		width = 0
	}

	y := pad
	for index, gap := range []float32{6, 8, 0} {
		object := objects[index]
		height := object.MinSize().Height
		object.Move(fyne.NewPos(pad, y))
		object.Resize(fyne.NewSize(width, height))
		y += height + gap
	}

	timer := objects[3]
	timerSize := timer.MinSize()
	timerY := size.Height - pad - timerSize.Height
	if timerY < 0 {
		timerY = 0
	}
	timer.Move(fyne.NewPos(pad, timerY))
	timer.Resize(timerSize)
}

func (layout *textPanelLayout) MinSize(objects []fyne.CanvasObject) fyne.Size {
	if len(objects) < 4 {
		return fyne.NewSize(0, 0)
	}
	var width, height float32
	for _, object := range objects[:4] {
		size := object.MinSize()
		width = fyne.Max(width, size.Width)
		height += size.Height
	}
	return fyne.NewSize(width+20, height+40)
}
