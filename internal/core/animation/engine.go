package animation

import (
	"context"
	"sync"
	"time"
)

// Engine calls a sampler once per frame until stopped. Starting a new
// loop cancels the previous one first.
type Engine struct {
	mu       sync.Mutex
	interval time.Duration
	now      func() time.Time
	cancel   context.CancelFunc
}

// New creates a frame engine. Non-positive intervals use DefaultFrameInterval.
func New(interval time.Duration) *Engine {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &Engine{
		interval: interval,
		now:      time.Now,
	}
}

// Start runs sample every frame until ctx is done or Stop is called.
func (engine *Engine) Start(ctx context.Context, sample func(time.Time)) {
	engine.mu.Lock()
	if engine.cancel != nil {
		engine.cancel()
	}
	runCtx, cancel := context.WithCancel(ctx)
	engine.cancel = cancel
	engine.mu.Unlock()

	go engine.run(runCtx, sample)
}

// Stop terminates any active loop.
func (engine *Engine) Stop() {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	if engine.cancel != nil {
		engine.cancel()
		engine.cancel = nil
	}
}

func (engine *Engine) run(ctx context.Context, sample func(time.Time)) {
	for {
		if ctx.Err() != nil {
			return
		}
		sample(engine.now())
		if !sleepWithContext(ctx, engine.interval) {
			return
		}
	}
}

func sleepWithContext(ctx context.Context, duration time.Duration) bool {
	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
