package meditation

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidDuration indicates a session without a positive length.
var ErrInvalidDuration = errors.New("meditation duration must be positive")

// Session is a guided meditation: a script read over a fixed duration with
// optional narration audio.
type Session struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Script      []string `yaml:"script"`
	Minutes     int      `yaml:"minutes"`
	AudioURL    string   `yaml:"audio,omitempty"`
}

// TotalSeconds converts the session length to whole seconds.
func (session Session) TotalSeconds() int {
	return session.Minutes * 60
}

// Duration returns the session length.
func (session Session) Duration() time.Duration {
	return time.Duration(session.TotalSeconds()) * time.Second
}

// Validate checks the session can be started.
func (session Session) Validate() error {
	if session.TotalSeconds() <= 0 {
		return fmt.Errorf("%w: %q lasts %d minutes", ErrInvalidDuration, session.Title, session.Minutes)
	}
	return nil
}

// State represents the controller lifecycle.
type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateComplete State = "complete"
)

// EventType defines the type of meditation event.
type EventType string

const (
	EventStarted   EventType = "started"
	EventTick      EventType = "tick"
	EventCompleted EventType = "completed"
	EventStopped   EventType = "stopped"
)

// Event represents a meditation update for observers.
type Event struct {
	Type             EventType
	State            State
	RemainingSeconds int
	At               time.Time
}

// Snapshot is a copy of the controller state.
type Snapshot struct {
	State            State
	Session          Session
	HasSession       bool
	RemainingSeconds int
	Complete         bool
	AudioActive      bool
}
