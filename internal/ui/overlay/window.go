package overlay

import (
	"context"
	"image/color"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"mindhaven/internal/core/animation"
	"mindhaven/internal/core/model"
)

// Config defines overlay visuals.
type Config struct {
	Opacity    float64
	Fullscreen bool
}

// ConfigFrom reads the overlay options out of the user settings.
func ConfigFrom(settings model.Settings) Config {
	return Config{Opacity: settings.OverlayOpacity, Fullscreen: settings.Fullscreen}
}

func (config Config) alpha() uint8 {
	opacity := config.Opacity
	if opacity <= 0 || opacity > 1 {
		opacity = 1
	}
	return uint8(opacity*255 + 0.5)
}

// Window manages the session overlay.
type Window struct {
	window        fyne.Window
	config        Config
	background    *canvas.Rectangle
	titleLabel    *canvas.Text
	subtitleLabel *canvas.Text
	detailLabel   *canvas.Text
	timerLabel    *canvas.Text
	outerCircle   *canvas.Circle
	innerCircle   *canvas.Circle
	breath        *breathLayout
	circles       *fyne.Container
	progress      *widget.ProgressBar
	stopButton    *widget.Button
	engine        *animation.Engine
	view          View
	visible       bool
	onStop        func()
}

const (
	overlayWidthFraction  = float32(0.22)
	overlayHeightFraction = float32(0.24)
	defaultScreenWidth    = float32(1920)
	defaultScreenHeight   = float32(1080)
)

var (
	textColor   = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	timerColor  = color.NRGBA{R: 126, G: 214, B: 196, A: 255}
	outerColour = color.NRGBA{R: 96, G: 178, B: 170, A: 110}
	innerColour = color.NRGBA{R: 168, G: 230, B: 218, A: 200}
)

type splashWindowDriver interface {
	CreateSplashWindow() fyne.Window
}

// New creates the overlay window. It stays hidden until Show.
func New(app fyne.App, config Config, engine *animation.Engine) *Window {
	window := app.NewWindow("MindHaven")
	if driver, ok := app.Driver().(splashWindowDriver); ok {
		// Splash window is undecorated (no native frame/buttons).
		window = driver.CreateSplashWindow()
	}
	if app.Icon() != nil {
		window.SetIcon(app.Icon())
	}
	window.SetPadded(false)

	overlay := &Window{
		window:        window,
		config:        config,
		background:    canvas.NewRectangle(color.NRGBA{A: config.alpha()}),
		titleLabel:    newText(21, true),
		subtitleLabel: newText(14, true),
		detailLabel:   newText(15, false),
		timerLabel:    newText(16, true),
		outerCircle:   canvas.NewCircle(outerColour),
		innerCircle:   canvas.NewCircle(innerColour),
		breath:        &breathLayout{scale: animation.BaselineScale},
		progress:      widget.NewProgressBar(),
		stopButton:    widget.NewButton("Stop", nil),
		engine:        engine,
	}
	overlay.timerLabel.Color = timerColor
	overlay.circles = container.New(overlay.breath, overlay.outerCircle, overlay.innerCircle)
	overlay.stopButton.OnTapped = func() {
		if overlay.onStop != nil {
			overlay.onStop()
		}
	}

	textPanel := container.New(&textPanelLayout{}, overlay.titleLabel, overlay.subtitleLabel, overlay.detailLabel, overlay.timerLabel)
	visual := container.NewStack(overlay.circles, container.NewVBox(layoutSpacer(), overlay.progress))
	visualPanel := container.New(&visualPanelLayout{}, visual, overlay.stopButton)
	content := container.NewGridWithColumns(2, textPanel, visualPanel)
	window.SetContent(container.NewStack(overlay.background, content))
	window.SetCloseIntercept(overlay.Hide)

	overlay.Render(IdleView())
	overlay.applyWindowMode()
	return overlay
}

func newText(size float32, bold bool) *canvas.Text {
	text := canvas.NewText("", textColor)
	text.Alignment = fyne.TextAlignLeading
	text.TextStyle = fyne.TextStyle{Bold: bold}
	text.TextSize = size
	return text
}

func layoutSpacer() fyne.CanvasObject {
	spacer := canvas.NewRectangle(color.Transparent)
	spacer.SetMinSize(fyne.NewSize(1, 1))
	return spacer
}

// Show brings the overlay forward.
func (overlay *Window) Show() {
	overlay.visible = true
	overlay.applyWindowMode()
	overlay.window.Show()
	overlay.window.RequestFocus()
}

// Hide closes the overlay and stops animations. Sessions keep running.
func (overlay *Window) Hide() {
	overlay.StopAnimation()
	overlay.visible = false
	if overlay.config.Fullscreen {
		overlay.window.SetFullScreen(false)
	}
	overlay.window.Hide()
}

// Visible reports whether Show was called more recently than Hide.
func (overlay *Window) Visible() bool {
	return overlay.visible
}

// SetOnStop sets the stop button handler.
func (overlay *Window) SetOnStop(handler func()) {
	overlay.onStop = handler
}

// Render applies a view. Call it on the UI goroutine.
func (overlay *Window) Render(view View) {
	overlay.view = view
	setText(overlay.titleLabel, view.Title)
	setText(overlay.subtitleLabel, view.Subtitle)
	setText(overlay.detailLabel, view.Detail)
	setText(overlay.timerLabel, view.Timer)

	switch view.Mode {
	case ModeBreathing, ModeMeditation:
		overlay.circles.Show()
		overlay.progress.Hide()
	case ModeSoundscape:
		overlay.circles.Hide()
		overlay.progress.SetValue(view.Progress)
		overlay.progress.Show()
	default:
		overlay.circles.Hide()
		overlay.progress.Hide()
	}
	if view.Mode == ModeIdle {
		overlay.stopButton.Disable()
	} else {
		overlay.stopButton.Enable()
	}
	if view.Mode != ModeBreathing {
		overlay.setScale(animation.BaselineScale)
	}
}

// CurrentView returns the last rendered view.
func (overlay *Window) CurrentView() View {
	return overlay.view
}

// Animate samples a scale every frame and applies it to the circles until
// StopAnimation or Hide.
func (overlay *Window) Animate(sample func(time.Time) animation.Scale) {
	if overlay.engine == nil {
		return
	}
	overlay.engine.Start(context.Background(), func(now time.Time) {
		scale := sample(now)
		fyne.Do(func() {
			overlay.setScale(scale)
		})
	})
}

// StopAnimation halts the frame loop.
func (overlay *Window) StopAnimation() {
	if overlay.engine != nil {
		overlay.engine.Stop()
	}
}

// UpdateConfig updates overlay visuals.
func (overlay *Window) UpdateConfig(config Config) {
	overlay.config = config
	overlay.background.FillColor = color.NRGBA{A: config.alpha()}
	canvas.Refresh(overlay.background)
	if overlay.visible {
		overlay.applyWindowMode()
	}
}

func (overlay *Window) setScale(scale animation.Scale) {
	if overlay.breath.scale == scale {
		return
	}
	overlay.breath.scale = scale
	overlay.circles.Refresh()
}

func setText(text *canvas.Text, value string) {
	if text.Text == value {
		return
	}
	text.Text = value
	text.Refresh()
}

func (overlay *Window) applyWindowMode() {
	overlay.applyNativeOpacity(overlay.config.alpha())
	if overlay.config.Fullscreen {
		overlay.window.SetFullScreen(true)
		return
	}
	overlay.window.SetFullScreen(false)
	overlay.resizeToScreenFraction()
}

func (overlay *Window) resizeToScreenFraction() {
	screenSize := fyne.NewSize(defaultScreenWidth, defaultScreenHeight)
	canvasSize := overlay.window.Canvas().Size()
	// Canvas size can be reused as a proxy for monitor size when it is clearly screen-like.
	if canvasSize.Width >= 1024 && canvasSize.Height >= 720 {
		screenSize = canvasSize
	}

	minSize := overlay.window.Content().MinSize()
	width := fyne.Max(screenSize.Width*overlayWidthFraction, minSize.Width)
	height := fyne.Max(screenSize.Height*overlayHeightFraction, minSize.Height)
	overlay.window.Resize(fyne.NewSize(width, height))
	overlay.window.CenterOnScreen()
}
