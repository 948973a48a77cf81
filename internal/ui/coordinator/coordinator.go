// Package coordinator connects the session controllers to the overlay and
// the tray. Only one session runs at a time.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"mindhaven/internal/core/animation"
	"mindhaven/internal/core/audio"
	"mindhaven/internal/core/breathing"
	"mindhaven/internal/core/meditation"
	"mindhaven/internal/core/model"
	"mindhaven/internal/core/soundscape"
	"mindhaven/internal/core/supervisor"
	"mindhaven/internal/core/timer"
	"mindhaven/internal/ui/overlay"
	"mindhaven/resources"
)

var (
	// ErrUnknownExercise indicates a breathing exercise missing from the catalog.
	ErrUnknownExercise = errors.New("unknown breathing exercise")
	// ErrUnknownMeditation indicates a meditation missing from the catalog.
	ErrUnknownMeditation = errors.New("unknown meditation")
)

const (
	allPatternsName = "All patterns"
	eventBuffer     = 16
)

// Display is the overlay surface.
type Display interface {
	Render(view overlay.View)
	Animate(sample func(time.Time) animation.Scale)
	StopAnimation()
}

// Indicator is the tray surface.
type Indicator interface {
	SetStatus(status string)
	SetSessionActive(active bool)
	SetSound(key soundscape.Key, playing bool)
	SetVolume(level float64)
}

// Options wires a Coordinator.
type Options struct {
	Catalog   resources.ContentCatalog
	MediaDir  string
	Scheduler timer.Scheduler
	Backend   audio.Backend
	Config    model.ControllerConfig
	Display   Display
	Indicator Indicator
	// Dispatch runs UI updates on the UI goroutine. Nil runs them inline.
	Dispatch func(func())
}

// Coordinator owns the session controllers.
type Coordinator struct {
	catalog    resources.ContentCatalog
	mediaDir   string
	breathing  *breathing.Controller
	meditation *meditation.Controller
	sounds     *soundscape.Player
	supervisor *supervisor.Supervisor
	display    Display
	indicator  Indicator
	dispatch   func(func())

	breathingEvents  <-chan breathing.Event
	meditationEvents <-chan meditation.Event
	soundEvents      <-chan soundscape.Event

	mu           sync.Mutex
	exerciseName string
}

// New creates the controllers and subscribes to their events.
func New(options Options) *Coordinator {
	config := options.Config.Normalize()
	dispatch := options.Dispatch
	if dispatch == nil {
		dispatch = func(update func()) { update() }
	}

	coordinator := &Coordinator{
		catalog:    options.Catalog,
		mediaDir:   options.MediaDir,
		breathing:  breathing.New(options.Scheduler, config),
		meditation: meditation.New(options.Scheduler, options.Backend, config),
		sounds:     soundscape.New(options.Scheduler, options.Backend, options.Catalog.Library(options.MediaDir), config),
		display:    options.Display,
		indicator:  options.Indicator,
		dispatch:   dispatch,
	}
	coordinator.supervisor = supervisor.New(map[supervisor.Kind]supervisor.Stopper{
		supervisor.Breathing:  coordinator.breathing,
		supervisor.Meditation: coordinator.meditation,
		supervisor.Soundscape: coordinator.sounds,
	})
	coordinator.breathingEvents = coordinator.breathing.Subscribe(eventBuffer)
	coordinator.meditationEvents = coordinator.meditation.Subscribe(eventBuffer)
	coordinator.soundEvents = coordinator.sounds.Subscribe(eventBuffer)
	return coordinator
}

// Run refreshes the UI on every controller event until ctx ends or Close.
func (coordinator *Coordinator) Run(ctx context.Context) {
	breathingEvents := coordinator.breathingEvents
	meditationEvents := coordinator.meditationEvents
	soundEvents := coordinator.soundEvents
	for breathingEvents != nil || meditationEvents != nil || soundEvents != nil {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-breathingEvents:
			if !ok {
				breathingEvents = nil
				continue
			}
		case _, ok := <-meditationEvents:
			if !ok {
				meditationEvents = nil
				continue
			}
		case _, ok := <-soundEvents:
			if !ok {
				soundEvents = nil
				continue
			}
		}
		coordinator.Refresh()
	}
}

// Active returns the running session kind.
func (coordinator *Coordinator) Active() supervisor.Kind {
	return coordinator.supervisor.Active()
}

// StartBreathing starts the named exercise.
func (coordinator *Coordinator) StartBreathing(name string) error {
	for _, exercise := range coordinator.catalog.Breathing {
		if exercise.Name == name {
			return coordinator.startBreathing(name, exercise.Pattern)
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownExercise, name)
}

// StartAllBreathing runs every exercise in catalog order as one session.
func (coordinator *Coordinator) StartAllBreathing() error {
	return coordinator.startBreathing(allPatternsName, coordinator.catalog.AllPatterns())
}

func (coordinator *Coordinator) startBreathing(name string, pattern breathing.Pattern) error {
	coordinator.mu.Lock()
	coordinator.exerciseName = name
	coordinator.mu.Unlock()

	err := coordinator.supervisor.Run(supervisor.Breathing, func() error {
		return coordinator.breathing.Start(pattern)
	})
	if err == nil {
		coordinator.display.Animate(coordinator.breathing.Scale)
	}
	coordinator.Refresh()
	return err
}

// StartMeditation starts the meditation titled title.
func (coordinator *Coordinator) StartMeditation(title string) error {
	session, ok := coordinator.catalog.Meditation(title, coordinator.mediaDir)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownMeditation, title)
	}
	coordinator.display.StopAnimation()
	err := coordinator.supervisor.Run(supervisor.Meditation, func() error {
		return coordinator.meditation.Start(session)
	})
	coordinator.Refresh()
	return err
}

// PlaySound plays or resumes key.
func (coordinator *Coordinator) PlaySound(key soundscape.Key) error {
	coordinator.display.StopAnimation()
	err := coordinator.supervisor.Run(supervisor.Soundscape, func() error {
		return coordinator.sounds.Play(key)
	})
	coordinator.Refresh()
	return err
}

// ResumeAnimation restarts the breathing circles after the display was
// hidden. It does nothing unless a breathing session is running.
func (coordinator *Coordinator) ResumeAnimation() {
	if coordinator.supervisor.Active() != supervisor.Breathing || !coordinator.breathing.Running() {
		return
	}
	coordinator.display.Animate(coordinator.breathing.Scale)
}

// PauseSound pauses the soundscape, keeping its position.
func (coordinator *Coordinator) PauseSound() {
	coordinator.sounds.Pause()
	coordinator.Refresh()
}

// StopSound stops the soundscape if it is the active session.
func (coordinator *Coordinator) StopSound() {
	coordinator.supervisor.Release(supervisor.Soundscape)
	coordinator.Refresh()
}

// SetVolume applies level to the soundscape player and meditation narration.
func (coordinator *Coordinator) SetVolume(level float64) {
	coordinator.sounds.SetVolume(level)
	coordinator.meditation.SetVolume(level)
	coordinator.Refresh()
}

// StopSession stops whatever is running.
func (coordinator *Coordinator) StopSession() {
	coordinator.display.StopAnimation()
	coordinator.supervisor.StopAll()
	coordinator.Refresh()
}

// Close stops every controller and ends Run.
func (coordinator *Coordinator) Close() {
	coordinator.display.StopAnimation()
	coordinator.supervisor.StopAll()
	coordinator.breathing.Close()
	coordinator.meditation.Close()
	coordinator.sounds.Close()
}

// Refresh renders the active session on the display and the tray.
func (coordinator *Coordinator) Refresh() {
	view, status := coordinator.current()
	sound := coordinator.sounds.Snapshot()
	active := view.Mode != overlay.ModeIdle

	coordinator.dispatch(func() {
		coordinator.display.Render(view)
		coordinator.indicator.SetStatus(status)
		coordinator.indicator.SetSessionActive(active)
		coordinator.indicator.SetSound(sound.Active, sound.Playing)
		coordinator.indicator.SetVolume(sound.Volume)
	})
}

func (coordinator *Coordinator) current() (overlay.View, string) {
	switch coordinator.supervisor.Active() {
	case supervisor.Breathing:
		coordinator.mu.Lock()
		name := coordinator.exerciseName
		coordinator.mu.Unlock()
		view := overlay.BreathingView(name, coordinator.breathing.Snapshot())
		if view.Mode == overlay.ModeIdle {
			return view, "idle"
		}
		return view, fmt.Sprintf("%s: %s", name, view.Subtitle)
	case supervisor.Meditation:
		snapshot := coordinator.meditation.Snapshot()
		view := overlay.MeditationView(snapshot, coordinator.meditation.CurrentLine())
		switch {
		case view.Mode == overlay.ModeIdle:
			return view, "idle"
		case snapshot.Complete:
			return view, fmt.Sprintf("%s: complete", view.Title)
		default:
			return view, fmt.Sprintf("%s: %s left", view.Title, view.Timer)
		}
	case supervisor.Soundscape:
		snapshot := coordinator.sounds.Snapshot()
		view := overlay.SoundscapeView(coordinator.soundName(snapshot.Active), snapshot)
		if view.Mode == overlay.ModeIdle {
			return view, "idle"
		}
		return view, fmt.Sprintf("%s: %s", view.Title, view.Subtitle)
	default:
		return overlay.IdleView(), "idle"
	}
}

func (coordinator *Coordinator) soundName(key soundscape.Key) string {
	for _, sound := range coordinator.catalog.Soundscapes {
		if sound.Key == key {
			return sound.Name
		}
	}
	return string(key)
}
