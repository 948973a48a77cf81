// Package audio defines the playable-resource boundary used by the
// meditation and soundscape controllers.
package audio

import (
	"errors"
	"time"
)

// ErrUnavailable indicates no audio player exists on this system.
var ErrUnavailable = errors.New("audio playback unavailable")

// ErrClosed indicates the track was already released.
var ErrClosed = errors.New("audio track closed")

// EventType defines the type of track event.
type EventType string

const (
	EventLoaded EventType = "loaded"
	EventEnded  EventType = "ended"
	EventError  EventType = "error"
)

// Event is emitted by a Track when its media state changes.
type Event struct {
	Type     EventType
	Duration time.Duration
	Err      error
}

// Track is a single live audio resource.
//
// Implementations never invoke the event handler synchronously from one of
// their own methods; handlers may therefore call back into their owner.
type Track interface {
	Play() error
	Pause() error
	Seek(position time.Duration) error
	SetVolume(level float64)
	SetLoop(loop bool)
	Position() time.Duration
	OnEvent(handler func(Event))
	Close() error
}

// Backend opens tracks from a source path or URL.
type Backend interface {
	Open(source string) (Track, error)
}

// ClampVolume limits level to [0, 1].
func ClampVolume(level float64) float64 {
	if level < 0 {
		return 0
	}
	if level > 1 {
		return 1
	}
	return level
}
