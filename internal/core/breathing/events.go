package breathing

import (
	"time"

	"mindhaven/internal/core/animation"
)

// State represents the controller's current phase.
type State string

const (
	StateIdle   State = "idle"
	StateInhale State = "inhale"
	StateHold   State = "hold"
	StateExhale State = "exhale"
)

// EventType defines the type of breathing event.
type EventType string

const (
	EventPhaseChange EventType = "phase_change"
	EventTick        EventType = "tick"
	EventStopped     EventType = "stopped"
)

// Event represents a breathing update for observers.
type Event struct {
	Type             EventType
	State            State
	Index            int
	SecondsRemaining int
	At               time.Time
}

// Snapshot is a copy of the controller state.
type Snapshot struct {
	State   State
	Pattern Pattern
	Index   int
	// SecondsRemaining is meaningful only when HasRemaining is set; an idle
	// controller has no remaining time at all.
	SecondsRemaining int
	HasRemaining     bool

	PhaseStartedAt time.Time
	PhaseDuration  time.Duration
	StartScale     animation.Scale
	TargetScale    animation.Scale
	Scale          animation.Scale
}

func stateFor(label Label) State {
	switch label {
	case Hold:
		return StateHold
	case Exhale:
		return StateExhale
	default:
		return StateInhale
	}
}

func targetFor(label Label) animation.Scale {
	if label == Exhale {
		return animation.BaselineScale
	}
	return animation.ExpandedScale
}
