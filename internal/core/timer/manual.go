package timer

import (
	"sync"
	"time"
)

// Manual is a deterministic Scheduler whose clock only moves on Advance.
// Callbacks run synchronously on the goroutine calling Advance.
type Manual struct {
	mu     sync.Mutex
	now    time.Time
	next   Handle
	timers map[Handle]*manualTimer
}

type manualTimer struct {
	interval time.Duration
	due      time.Time
	last     time.Time
	onTick   func(Tick)
}

// NewManual creates a manual scheduler starting at start.
func NewManual(start time.Time) *Manual {
	return &Manual{
		now:    start,
		timers: make(map[Handle]*manualTimer),
	}
}

// Now returns the synthetic clock time.
func (manual *Manual) Now() time.Time {
	manual.mu.Lock()
	defer manual.mu.Unlock()
	return manual.now
}

// Start registers onTick to fire every interval of synthetic time.
func (manual *Manual) Start(interval time.Duration, onTick func(Tick)) Handle {
	if interval <= 0 {
		interval = time.Second
	}
	manual.mu.Lock()
	defer manual.mu.Unlock()
	manual.next++
	handle := manual.next
	manual.timers[handle] = &manualTimer{
		interval: interval,
		due:      manual.now.Add(interval),
		last:     manual.now,
		onTick:   onTick,
	}
	return handle
}

// Stop removes the timer behind handle.
func (manual *Manual) Stop(handle Handle) {
	manual.mu.Lock()
	defer manual.mu.Unlock()
	delete(manual.timers, handle)
}

// Active reports how many timers are registered.
func (manual *Manual) Active() int {
	manual.mu.Lock()
	defer manual.mu.Unlock()
	return len(manual.timers)
}

// Advance moves the clock forward by delta, firing every timer that comes
// due in chronological order. Ties fire in registration order.
func (manual *Manual) Advance(delta time.Duration) {
	manual.mu.Lock()
	target := manual.now.Add(delta)
	manual.mu.Unlock()

	for {
		manual.mu.Lock()
		timer := manual.nextDueLocked(target)
		if timer == nil {
			manual.now = target
			manual.mu.Unlock()
			return
		}
		manual.now = timer.due
		tick := Tick{At: timer.due, Steps: 1, Elapsed: timer.due.Sub(timer.last)}
		timer.last = timer.due
		timer.due = timer.due.Add(timer.interval)
		callback := timer.onTick
		manual.mu.Unlock()

		callback(tick)
	}
}

func (manual *Manual) nextDueLocked(target time.Time) *manualTimer {
	var (
		best       *manualTimer
		bestHandle Handle
	)
	for handle, timer := range manual.timers {
		if timer.due.After(target) {
			continue
		}
		if best == nil || timer.due.Before(best.due) || (timer.due.Equal(best.due) && handle < bestHandle) {
			best = timer
			bestHandle = handle
		}
	}
	return best
}
