// Package audiotest provides in-memory audio tracks for controller tests.
package audiotest

import (
	"errors"
	"sync"
	"time"

	"mindhaven/internal/core/audio"
)

// ErrBlocked is returned by Play when a track is configured to refuse playback.
var ErrBlocked = errors.New("playback blocked")

// Backend records every track it opens.
type Backend struct {
	mu      sync.Mutex
	tracks  []*Track
	OpenErr error
	PlayErr error
}

// Open creates a fake track for source.
func (backend *Backend) Open(source string) (audio.Track, error) {
	backend.mu.Lock()
	defer backend.mu.Unlock()
	if backend.OpenErr != nil {
		return nil, backend.OpenErr
	}
	track := &Track{Source: source, playErr: backend.PlayErr}
	backend.tracks = append(backend.tracks, track)
	return track, nil
}

// Tracks returns the tracks opened so far.
func (backend *Backend) Tracks() []*Track {
	backend.mu.Lock()
	defer backend.mu.Unlock()
	return append([]*Track(nil), backend.tracks...)
}

// Last returns the most recently opened track or nil.
func (backend *Backend) Last() *Track {
	backend.mu.Lock()
	defer backend.mu.Unlock()
	if len(backend.tracks) == 0 {
		return nil
	}
	return backend.tracks[len(backend.tracks)-1]
}

// Track is a controllable audio.Track. Events are delivered only through Fire.
type Track struct {
	mu       sync.Mutex
	Source   string
	playErr  error
	playing  bool
	closed   bool
	loop     bool
	volume   float64
	position time.Duration
	handler  func(audio.Event)
	plays    int
}

func (track *Track) Play() error {
	track.mu.Lock()
	defer track.mu.Unlock()
	if track.closed {
		return audio.ErrClosed
	}
	track.plays++
	if track.playErr != nil {
		return track.playErr
	}
	track.playing = true
	return nil
}

func (track *Track) Pause() error {
	track.mu.Lock()
	defer track.mu.Unlock()
	track.playing = false
	return nil
}

func (track *Track) Seek(position time.Duration) error {
	track.mu.Lock()
	defer track.mu.Unlock()
	if track.closed {
		return audio.ErrClosed
	}
	track.position = position
	return nil
}

func (track *Track) SetVolume(level float64) {
	track.mu.Lock()
	defer track.mu.Unlock()
	track.volume = level
}

func (track *Track) SetLoop(loop bool) {
	track.mu.Lock()
	defer track.mu.Unlock()
	track.loop = loop
}

func (track *Track) Position() time.Duration {
	track.mu.Lock()
	defer track.mu.Unlock()
	return track.position
}

func (track *Track) OnEvent(handler func(audio.Event)) {
	track.mu.Lock()
	defer track.mu.Unlock()
	track.handler = handler
}

func (track *Track) Close() error {
	track.mu.Lock()
	defer track.mu.Unlock()
	track.closed = true
	track.playing = false
	return nil
}

// Fire delivers event to the registered handler, if any.
func (track *Track) Fire(event audio.Event) {
	track.mu.Lock()
	handler := track.handler
	track.mu.Unlock()
	if handler != nil {
		handler(event)
	}
}

// SetPosition moves the playhead as if playback had progressed.
func (track *Track) SetPosition(position time.Duration) {
	track.mu.Lock()
	defer track.mu.Unlock()
	track.position = position
}

// Playing reports whether Play succeeded and nothing paused or closed it since.
func (track *Track) Playing() bool {
	track.mu.Lock()
	defer track.mu.Unlock()
	return track.playing
}

// Closed reports whether Close was called.
func (track *Track) Closed() bool {
	track.mu.Lock()
	defer track.mu.Unlock()
	return track.closed
}

// Detached reports whether the event handler was removed.
func (track *Track) Detached() bool {
	track.mu.Lock()
	defer track.mu.Unlock()
	return track.handler == nil
}

// Loop reports the loop flag.
func (track *Track) Loop() bool {
	track.mu.Lock()
	defer track.mu.Unlock()
	return track.loop
}

// Volume reports the last volume set.
func (track *Track) Volume() float64 {
	track.mu.Lock()
	defer track.mu.Unlock()
	return track.volume
}

// Plays counts calls to Play.
func (track *Track) Plays() int {
	track.mu.Lock()
	defer track.mu.Unlock()
	return track.plays
}
