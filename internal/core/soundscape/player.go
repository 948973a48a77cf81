package soundscape

import (
	"sync"
	"time"

	"mindhaven/internal/core/audio"
	"mindhaven/internal/core/model"
	"mindhaven/internal/core/notify"
	"mindhaven/internal/core/timer"
)

// EventType defines the type of player event.
type EventType string

const (
	EventPlaying  EventType = "playing"
	EventPaused   EventType = "paused"
	EventStopped  EventType = "stopped"
	EventLoaded   EventType = "loaded"
	EventProgress EventType = "progress"
	EventEnded    EventType = "ended"
	EventFailed   EventType = "failed"
)

// Event carries a copy of the player state after a change.
type Event struct {
	Type  EventType
	State Snapshot
}

// Snapshot is a copy of the player state.
type Snapshot struct {
	Active   Key
	Playing  bool
	Volume   float64
	Duration time.Duration
	Position time.Duration
	Loaded   bool
}

// Player keeps at most one looping ambient track alive.
type Player struct {
	mu        sync.Mutex
	scheduler timer.Scheduler
	backend   audio.Backend
	library   Library
	interval  time.Duration

	active   Key
	track    audio.Track
	progress timer.Handle
	playing  bool
	volume   float64
	duration time.Duration
	position time.Duration
	loaded   bool
	events   notify.Hub[Event]
}

// New creates a stopped player at the configured volume.
func New(scheduler timer.Scheduler, backend audio.Backend, library Library, config model.ControllerConfig) *Player {
	config = config.Normalize()
	return &Player{
		scheduler: scheduler,
		backend:   backend,
		library:   library,
		interval:  config.ProgressInterval,
		volume:    config.Volume,
	}
}

// Subscribe registers a new observer channel.
func (player *Player) Subscribe(buffer int) <-chan Event {
	return player.events.Subscribe(buffer)
}

// Play resumes key if it is already loaded, otherwise replaces the current
// track with a new looping one. Playback failures leave the player not
// playing and are not returned; only unknown keys are errors.
func (player *Player) Play(key Key) error {
	source, err := player.library.Source(key)
	if err != nil {
		return err
	}

	player.mu.Lock()
	defer player.mu.Unlock()

	if key == player.active && player.track != nil {
		player.resumeLocked()
		return nil
	}

	player.teardownLocked()
	player.clearLocked()

	track, err := player.backend.Open(source)
	if err != nil {
		player.emitLocked(EventFailed)
		return nil
	}
	player.active = key
	player.track = track
	track.SetLoop(true)
	track.SetVolume(player.volume)
	track.OnEvent(func(event audio.Event) {
		player.onTrackEvent(track, event)
	})
	player.resumeLocked()
	return nil
}

// Pause suspends playback and keeps the position for a later resume.
func (player *Player) Pause() {
	player.mu.Lock()
	defer player.mu.Unlock()
	if player.track == nil || !player.playing {
		return
	}
	_ = player.track.Pause()
	player.position = player.track.Position()
	player.haltLocked()
	player.emitLocked(EventPaused)
}

// Stop releases the current track and clears the player state.
func (player *Player) Stop() {
	player.mu.Lock()
	defer player.mu.Unlock()
	if player.track == nil && player.active == "" {
		return
	}
	player.teardownLocked()
	player.clearLocked()
	player.emitLocked(EventStopped)
}

// Close stops the player and closes observer channels.
func (player *Player) Close() {
	player.Stop()
	player.events.Close()
}

// SetVolume clamps level to [0, 1], applies it to the live track and keeps
// it for tracks started later.
func (player *Player) SetVolume(level float64) {
	player.mu.Lock()
	defer player.mu.Unlock()
	player.volume = audio.ClampVolume(level)
	if player.track != nil {
		player.track.SetVolume(player.volume)
	}
}

// Volume returns the current level.
func (player *Player) Volume() float64 {
	player.mu.Lock()
	defer player.mu.Unlock()
	return player.volume
}

// Seek moves the playhead, clamped to the known duration. Nothing happens
// until the track has reported its duration.
func (player *Player) Seek(position time.Duration) {
	player.mu.Lock()
	defer player.mu.Unlock()
	if player.track == nil || !player.loaded {
		return
	}
	if position < 0 {
		position = 0
	}
	if position > player.duration {
		position = player.duration
	}
	if err := player.track.Seek(position); err != nil {
		player.failLocked()
		return
	}
	player.position = position
	player.emitLocked(EventProgress)
}

// IsActive reports whether key is the active sound and is audibly playing.
func (player *Player) IsActive(key Key) bool {
	player.mu.Lock()
	defer player.mu.Unlock()
	return player.active == key && player.playing
}

// Snapshot returns a copy of the player state.
func (player *Player) Snapshot() Snapshot {
	player.mu.Lock()
	defer player.mu.Unlock()
	return player.snapshotLocked()
}

func (player *Player) snapshotLocked() Snapshot {
	return Snapshot{
		Active:   player.active,
		Playing:  player.playing,
		Volume:   player.volume,
		Duration: player.duration,
		Position: player.position,
		Loaded:   player.loaded,
	}
}

func (player *Player) resumeLocked() {
	if player.playing {
		return
	}
	if err := player.track.Play(); err != nil {
		player.haltLocked()
		player.emitLocked(EventFailed)
		return
	}
	player.playing = true
	track := player.track
	player.progress = player.scheduler.Start(player.interval, func(timer.Tick) {
		player.onProgress(track)
	})
	player.emitLocked(EventPlaying)
}

func (player *Player) onProgress(track audio.Track) {
	player.mu.Lock()
	defer player.mu.Unlock()
	if player.track != track || !player.playing {
		return
	}
	player.position = track.Position()
	player.emitLocked(EventProgress)
}

func (player *Player) onTrackEvent(track audio.Track, event audio.Event) {
	player.mu.Lock()
	defer player.mu.Unlock()
	if player.track != track {
		return
	}
	switch event.Type {
	case audio.EventLoaded:
		player.loaded = true
		player.duration = event.Duration
		player.emitLocked(EventLoaded)
	case audio.EventEnded:
		player.position = player.duration
		player.haltLocked()
		player.emitLocked(EventEnded)
	case audio.EventError:
		player.failLocked()
	}
}

// failLocked drops the track after an audio error.
func (player *Player) failLocked() {
	player.teardownLocked()
	player.clearLocked()
	player.emitLocked(EventFailed)
}

func (player *Player) haltLocked() {
	player.playing = false
	player.scheduler.Stop(player.progress)
	player.progress = 0
}

// teardownLocked detaches, stops, rewinds and releases the live track.
func (player *Player) teardownLocked() {
	player.haltLocked()
	track := player.track
	if track == nil {
		return
	}
	player.track = nil
	track.OnEvent(nil)
	_ = track.Pause()
	_ = track.Seek(0)
	_ = track.Close()
}

func (player *Player) clearLocked() {
	player.active = ""
	player.duration = 0
	player.position = 0
	player.loaded = false
}

func (player *Player) emitLocked(eventType EventType) {
	player.events.Emit(Event{Type: eventType, State: player.snapshotLocked()})
}
