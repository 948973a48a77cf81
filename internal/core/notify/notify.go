// Package notify fans controller events out to observer channels.
package notify

import "sync"

// Hub delivers events to subscribers without blocking the emitter.
// Slow subscribers miss events rather than stalling the owner.
type Hub[E any] struct {
	mu          sync.Mutex
	subscribers []chan E
	closed      bool
}

// Subscribe registers a new observer channel.
func (hub *Hub[E]) Subscribe(buffer int) <-chan E {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan E, buffer)
	hub.mu.Lock()
	defer hub.mu.Unlock()
	if hub.closed {
		close(ch)
		return ch
	}
	hub.subscribers = append(hub.subscribers, ch)
	return ch
}

// Emit sends event to every subscriber that has room for it.
func (hub *Hub[E]) Emit(event E) {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	for _, ch := range hub.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}

// Close closes every observer channel. Later subscribers get a closed channel.
func (hub *Hub[E]) Close() {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	if hub.closed {
		return
	}
	hub.closed = true
	for _, ch := range hub.subscribers {
		close(ch)
	}
	hub.subscribers = nil
}
