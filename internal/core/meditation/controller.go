package meditation

import (
	"sync"
	"time"

	"mindhaven/internal/core/audio"
	"mindhaven/internal/core/model"
	"mindhaven/internal/core/notify"
	"mindhaven/internal/core/timer"
)

// Controller counts down a single meditation session.
type Controller struct {
	mu        sync.Mutex
	scheduler timer.Scheduler
	backend   audio.Backend
	config    model.ControllerConfig

	run       *run
	session   Session
	state     State
	remaining int
	events    notify.Hub[Event]
}

type run struct {
	tick  timer.Handle
	track audio.Track
}

// New creates an idle meditation controller. backend may be nil, in which
// case sessions run silently.
func New(scheduler timer.Scheduler, backend audio.Backend, config model.ControllerConfig) *Controller {
	return &Controller{
		scheduler: scheduler,
		backend:   backend,
		config:    config.Normalize(),
		state:     StateIdle,
	}
}

// Subscribe registers a new observer channel.
func (controller *Controller) Subscribe(buffer int) <-chan Event {
	return controller.events.Subscribe(buffer)
}

// Start stops any previous session and begins counting down session.
// Narration audio is best effort; the countdown runs regardless.
func (controller *Controller) Start(session Session) error {
	controller.mu.Lock()
	defer controller.mu.Unlock()

	controller.stopLocked()
	if err := session.Validate(); err != nil {
		return err
	}

	current := &run{}
	controller.run = current
	controller.session = session
	controller.session.Script = append([]string(nil), session.Script...)
	controller.state = StateRunning
	controller.remaining = session.TotalSeconds()

	current.track = controller.openAudioLocked(current, session.AudioURL)
	current.tick = controller.scheduler.Start(controller.config.TickInterval, func(tick timer.Tick) {
		controller.onTick(current, tick)
	})

	controller.events.Emit(Event{
		Type:             EventStarted,
		State:            StateRunning,
		RemainingSeconds: controller.remaining,
		At:               controller.scheduler.Now(),
	})
	return nil
}

// Stop cancels the countdown, releases audio and clears the session.
func (controller *Controller) Stop() {
	controller.mu.Lock()
	defer controller.mu.Unlock()
	controller.stopLocked()
}

// Close stops the controller and closes observer channels.
func (controller *Controller) Close() {
	controller.Stop()
	controller.events.Close()
}

// SetVolume clamps level to [0, 1] and applies it to the narration track,
// live or next.
func (controller *Controller) SetVolume(level float64) {
	controller.mu.Lock()
	defer controller.mu.Unlock()
	controller.config.Volume = audio.ClampVolume(level)
	if controller.run != nil && controller.run.track != nil {
		controller.run.track.SetVolume(controller.config.Volume)
	}
}

// Volume returns the narration volume.
func (controller *Controller) Volume() float64 {
	controller.mu.Lock()
	defer controller.mu.Unlock()
	return controller.config.Volume
}

// Snapshot returns a copy of the current state.
func (controller *Controller) Snapshot() Snapshot {
	controller.mu.Lock()
	defer controller.mu.Unlock()
	snapshot := Snapshot{
		State:            controller.state,
		HasSession:       controller.state != StateIdle,
		RemainingSeconds: controller.remaining,
		Complete:         controller.state == StateComplete,
		AudioActive:      controller.run != nil && controller.run.track != nil,
	}
	if snapshot.HasSession {
		snapshot.Session = controller.session
		snapshot.Session.Script = append([]string(nil), controller.session.Script...)
	}
	return snapshot
}

// CurrentLine returns the script line for the elapsed share of the session.
// Lines are spread evenly over the duration; a completed session shows the
// last line.
func (controller *Controller) CurrentLine() string {
	controller.mu.Lock()
	defer controller.mu.Unlock()

	script := controller.session.Script
	total := controller.session.TotalSeconds()
	if controller.state == StateIdle || len(script) == 0 || total <= 0 {
		return ""
	}
	elapsed := total - controller.remaining
	index := elapsed * len(script) / total
	if index >= len(script) {
		index = len(script) - 1
	}
	return script[index]
}

func (controller *Controller) onTick(current *run, tick timer.Tick) {
	controller.mu.Lock()
	defer controller.mu.Unlock()
	if controller.run != current {
		return
	}

	controller.remaining -= tick.Steps
	if controller.remaining > 0 {
		controller.events.Emit(Event{
			Type:             EventTick,
			State:            StateRunning,
			RemainingSeconds: controller.remaining,
			At:               tick.At,
		})
		return
	}

	controller.remaining = 0
	controller.releaseLocked()
	controller.state = StateComplete
	controller.events.Emit(Event{
		Type:  EventCompleted,
		State: StateComplete,
		At:    tick.At,
	})
}

func (controller *Controller) onAudioEvent(current *run, event audio.Event) {
	controller.mu.Lock()
	defer controller.mu.Unlock()
	if controller.run != current || event.Type != audio.EventError {
		return
	}
	closeTrack(current.track)
	current.track = nil
}

func (controller *Controller) openAudioLocked(current *run, source string) audio.Track {
	if source == "" || controller.backend == nil {
		return nil
	}
	track, err := controller.backend.Open(source)
	if err != nil {
		return nil
	}
	track.SetLoop(false)
	track.SetVolume(controller.config.Volume)
	track.OnEvent(func(event audio.Event) {
		controller.onAudioEvent(current, event)
	})
	if err := track.Play(); err != nil {
		closeTrack(track)
		return nil
	}
	return track
}

// releaseLocked cancels the tick and audio of the current run while
// keeping the session visible.
func (controller *Controller) releaseLocked() {
	current := controller.run
	if current == nil {
		return
	}
	controller.run = nil
	controller.scheduler.Stop(current.tick)
	closeTrack(current.track)
	current.track = nil
}

func (controller *Controller) stopLocked() {
	if controller.state == StateIdle {
		return
	}
	controller.releaseLocked()
	controller.session = Session{}
	controller.state = StateIdle
	controller.remaining = 0
	controller.events.Emit(Event{
		Type:  EventStopped,
		State: StateIdle,
		At:    controller.scheduler.Now(),
	})
}

func closeTrack(track audio.Track) {
	if track == nil {
		return
	}
	track.OnEvent(nil)
	_ = track.Pause()
	_ = track.Close()
}

// Remaining returns the countdown as a duration.
func (snapshot Snapshot) Remaining() time.Duration {
	return time.Duration(snapshot.RemainingSeconds) * time.Second
}
