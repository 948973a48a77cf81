package timer

import (
	"sync"
	"time"
)

// Handle identifies a running timer. The zero Handle is never issued.
type Handle uint64

// Tick describes a single delivery of a running timer.
type Tick struct {
	At time.Time
	// Steps is the number of whole intervals elapsed since the previous
	// delivery, measured against the wall clock.
	Steps   int
	Elapsed time.Duration
}

// Scheduler starts and stops fixed-interval timers.
//
// Stop must be a no-op for the zero handle and for handles that were
// already stopped. Callbacks run on a scheduler-owned goroutine and may
// still be in flight when Stop returns, so owners discard ticks whose
// run they no longer recognise.
type Scheduler interface {
	Start(interval time.Duration, onTick func(Tick)) Handle
	Stop(handle Handle)
	Now() time.Time
}

// Engine is a Scheduler backed by time.Ticker goroutines.
type Engine struct {
	mu   sync.Mutex
	now  func() time.Time
	next Handle
	runs map[Handle]chan struct{}
}

// NewEngine creates a wall-clock scheduler.
func NewEngine() *Engine {
	return &Engine{
		now:  time.Now,
		runs: make(map[Handle]chan struct{}),
	}
}

// Now returns the current wall-clock time.
func (engine *Engine) Now() time.Time {
	return engine.now()
}

// Start launches a ticking loop for onTick.
func (engine *Engine) Start(interval time.Duration, onTick func(Tick)) Handle {
	if interval <= 0 {
		interval = time.Second
	}

	engine.mu.Lock()
	engine.next++
	handle := engine.next
	stopCh := make(chan struct{})
	engine.runs[handle] = stopCh
	engine.mu.Unlock()

	started := engine.now()
	go engine.run(started, interval, onTick, stopCh)
	return handle
}

// Stop terminates the loop behind handle.
func (engine *Engine) Stop(handle Handle) {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	stopCh, ok := engine.runs[handle]
	if !ok {
		return
	}
	close(stopCh)
	delete(engine.runs, handle)
}

// Active reports how many timers are currently running.
func (engine *Engine) Active() int {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return len(engine.runs)
}

func (engine *Engine) run(started time.Time, interval time.Duration, onTick func(Tick), stopCh chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	delivered := 0
	last := started
	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			now := engine.now()
			steps := int(now.Sub(started)/interval) - delivered
			if steps < 1 {
				steps = 1
			}
			delivered += steps

			select {
			case <-stopCh:
				return
			default:
			}

			onTick(Tick{At: now, Steps: steps, Elapsed: now.Sub(last)})
			last = now
		}
	}
}
