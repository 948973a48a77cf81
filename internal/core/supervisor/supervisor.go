// Package supervisor keeps at most one session controller active.
package supervisor

import (
	"errors"
	"fmt"
	"sync"
)

// Kind names a session controller.
type Kind string

const (
	None       Kind = ""
	Breathing  Kind = "breathing"
	Meditation Kind = "meditation"
	Soundscape Kind = "soundscape"
)

// ErrUnknownKind indicates a kind with no registered controller.
var ErrUnknownKind = errors.New("unknown session kind")

// Stopper is implemented by every session controller.
type Stopper interface {
	Stop()
}

// Supervisor tears the active controller down before another one starts.
type Supervisor struct {
	mu          sync.Mutex
	controllers map[Kind]Stopper
	active      Kind
}

// New registers the controllers the supervisor may switch between.
func New(controllers map[Kind]Stopper) *Supervisor {
	registered := make(map[Kind]Stopper, len(controllers))
	for kind, controller := range controllers {
		registered[kind] = controller
	}
	return &Supervisor{controllers: registered}
}

// Active returns the kind of the running controller, or None.
func (supervisor *Supervisor) Active() Kind {
	supervisor.mu.Lock()
	defer supervisor.mu.Unlock()
	return supervisor.active
}

// Switch stops every controller other than kind and marks kind active.
func (supervisor *Supervisor) Switch(kind Kind) error {
	supervisor.mu.Lock()
	defer supervisor.mu.Unlock()
	return supervisor.switchLocked(kind)
}

// Run switches to kind and then calls start. If start fails kind is
// stopped and nothing remains active.
func (supervisor *Supervisor) Run(kind Kind, start func() error) error {
	supervisor.mu.Lock()
	defer supervisor.mu.Unlock()

	if err := supervisor.switchLocked(kind); err != nil {
		return err
	}
	if err := start(); err != nil {
		supervisor.controllers[kind].Stop()
		supervisor.active = None
		return fmt.Errorf("start %s: %w", kind, err)
	}
	return nil
}

// Release stops kind if it is the active controller.
func (supervisor *Supervisor) Release(kind Kind) {
	supervisor.mu.Lock()
	defer supervisor.mu.Unlock()
	if supervisor.active != kind || kind == None {
		return
	}
	supervisor.controllers[kind].Stop()
	supervisor.active = None
}

// StopAll stops every registered controller.
func (supervisor *Supervisor) StopAll() {
	supervisor.mu.Lock()
	defer supervisor.mu.Unlock()
	for _, controller := range supervisor.controllers {
		controller.Stop()
	}
	supervisor.active = None
}

func (supervisor *Supervisor) switchLocked(kind Kind) error {
	if _, ok := supervisor.controllers[kind]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	for other, controller := range supervisor.controllers {
		if other != kind {
			controller.Stop()
		}
	}
	supervisor.active = kind
	return nil
}
