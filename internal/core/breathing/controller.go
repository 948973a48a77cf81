package breathing

import (
	"sync"
	"time"

	"mindhaven/internal/core/animation"
	"mindhaven/internal/core/model"
	"mindhaven/internal/core/notify"
	"mindhaven/internal/core/timer"
)

// Controller cycles through a breathing pattern and eases the visual scale
// toward each phase's target.
type Controller struct {
	mu        sync.Mutex
	scheduler timer.Scheduler
	config    model.ControllerConfig
	run       *run
	pattern   Pattern
	state     State
	index     int
	remaining int
	tween     animation.Tween
	scale     animation.Scale
	events    notify.Hub[Event]
}

// run holds the timer handles of one started session. Callbacks compare
// their run against the controller's to discard ticks from stopped sessions.
type run struct {
	tick  timer.Handle
	frame timer.Handle
}

// New creates an idle breathing controller.
func New(scheduler timer.Scheduler, config model.ControllerConfig) *Controller {
	return &Controller{
		scheduler: scheduler,
		config:    config.Normalize(),
		state:     StateIdle,
		scale:     animation.BaselineScale,
	}
}

// Subscribe registers a new observer channel.
func (controller *Controller) Subscribe(buffer int) <-chan Event {
	return controller.events.Subscribe(buffer)
}

// Start stops any running session and begins cycling through pattern.
// An invalid pattern leaves the controller idle.
func (controller *Controller) Start(pattern Pattern) error {
	controller.mu.Lock()
	defer controller.mu.Unlock()

	controller.stopLocked()
	if err := pattern.Validate(); err != nil {
		return err
	}

	now := controller.scheduler.Now()
	current := &run{}
	controller.run = current
	controller.pattern = append(Pattern(nil), pattern...)
	controller.index = 0
	controller.enterPhaseLocked(now)

	current.tick = controller.scheduler.Start(controller.config.TickInterval, func(tick timer.Tick) {
		controller.onTick(current, tick)
	})
	current.frame = controller.scheduler.Start(controller.config.FrameInterval, func(tick timer.Tick) {
		controller.onFrame(current, tick)
	})
	return nil
}

// Stop cancels both loops and resets to idle. Safe to call when idle.
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

// Running reports whether a session is active.
func (controller *Controller) Running() bool {
	controller.mu.Lock()
	defer controller.mu.Unlock()
	return controller.run != nil
}

// Snapshot returns a copy of the current state.
func (controller *Controller) Snapshot() Snapshot {
	controller.mu.Lock()
	defer controller.mu.Unlock()
	return Snapshot{
		State:            controller.state,
		Pattern:          append(Pattern(nil), controller.pattern...),
		Index:            controller.index,
		SecondsRemaining: controller.remaining,
		HasRemaining:     controller.run != nil,
		PhaseStartedAt:   controller.tween.Start,
		PhaseDuration:    controller.tween.Duration,
		StartScale:       controller.tween.From,
		TargetScale:      controller.tween.To,
		Scale:            controller.scale,
	}
}

// Scale samples the eased scale at now without waiting for the next frame.
func (controller *Controller) Scale(now time.Time) animation.Scale {
	controller.mu.Lock()
	defer controller.mu.Unlock()
	if controller.run == nil {
		return animation.BaselineScale
	}
	return controller.tween.Sample(now)
}

func (controller *Controller) onTick(current *run, tick timer.Tick) {
	controller.mu.Lock()
	defer controller.mu.Unlock()
	if controller.run != current {
		return
	}

	for step := 0; step < tick.Steps; step++ {
		controller.remaining--
		if controller.remaining > 0 {
			continue
		}
		controller.index = (controller.index + 1) % len(controller.pattern)
		controller.enterPhaseLocked(tick.At)
	}

	controller.events.Emit(Event{
		Type:             EventTick,
		State:            controller.state,
		Index:            controller.index,
		SecondsRemaining: controller.remaining,
		At:               tick.At,
	})
}

func (controller *Controller) onFrame(current *run, tick timer.Tick) {
	controller.mu.Lock()
	defer controller.mu.Unlock()
	if controller.run != current {
		return
	}
	controller.scale = controller.tween.Sample(tick.At)
}

func (controller *Controller) enterPhaseLocked(now time.Time) {
	phase := controller.pattern[controller.index]
	from := controller.scale
	if controller.tween.Duration > 0 {
		from = controller.tween.Sample(now)
	}

	controller.state = stateFor(phase.Label)
	controller.remaining = phase.DurationSeconds
	controller.tween = animation.Tween{
		From:     from,
		To:       targetFor(phase.Label),
		Start:    now,
		Duration: time.Duration(phase.DurationSeconds) * time.Second,
	}
	controller.scale = from

	controller.events.Emit(Event{
		Type:             EventPhaseChange,
		State:            controller.state,
		Index:            controller.index,
		SecondsRemaining: controller.remaining,
		At:               now,
	})
}

func (controller *Controller) stopLocked() {
	current := controller.run
	if current == nil {
		return
	}
	controller.scheduler.Stop(current.tick)
	controller.scheduler.Stop(current.frame)
	controller.run = nil

	controller.pattern = nil
	controller.state = StateIdle
	controller.index = 0
	controller.remaining = 0
	controller.tween = animation.Tween{}
	controller.scale = animation.BaselineScale

	controller.events.Emit(Event{
		Type:  EventStopped,
		State: StateIdle,
		At:    controller.scheduler.Now(),
	})
}
