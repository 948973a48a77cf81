package audio

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ExecBackend plays tracks through an ffplay child process and probes
// their length with ffprobe. It serves remote URLs and formats the beep
// backend cannot decode. Position is tracked against the wall clock.
type ExecBackend struct {
	playerPath string
	probePath  string
	now        func() time.Time
}

type unavailableBackend struct{}

// NewExecBackend returns an ffplay-backed Backend, or one that always fails
// with ErrUnavailable when ffplay is not installed.
func NewExecBackend() Backend {
	playerPath, err := exec.LookPath("ffplay")
	if err != nil {
		return unavailableBackend{}
	}
	probePath, _ := exec.LookPath("ffprobe")
	return &ExecBackend{
		playerPath: playerPath,
		probePath:  probePath,
		now:        time.Now,
	}
}

func (unavailableBackend) Open(string) (Track, error) {
	return nil, ErrUnavailable
}

// Open prepares a track for source. Duration metadata is probed in the
// background and reported as an EventLoaded.
func (backend *ExecBackend) Open(source string) (Track, error) {
	if strings.TrimSpace(source) == "" {
		return nil, fmt.Errorf("open track: source is empty")
	}
	track := &execTrack{
		backend: backend,
		source:  source,
		volume:  1,
	}
	if backend.probePath != "" {
		go track.probe()
	}
	return track, nil
}

type execTrack struct {
	mu        sync.Mutex
	backend   *ExecBackend
	source    string
	cmd       *exec.Cmd
	volume    float64
	loop      bool
	offset    time.Duration
	startedAt time.Time
	playing   bool
	duration  time.Duration
	loaded    bool
	handler   func(Event)
	closed    bool
}

func (track *execTrack) Play() error {
	track.mu.Lock()
	defer track.mu.Unlock()
	if track.closed {
		return ErrClosed
	}
	if track.playing {
		return nil
	}
	return track.spawnLocked()
}

func (track *execTrack) Pause() error {
	track.mu.Lock()
	defer track.mu.Unlock()
	if !track.playing {
		return nil
	}
	track.offset = track.positionLocked()
	track.killLocked()
	return nil
}

func (track *execTrack) Seek(position time.Duration) error {
	track.mu.Lock()
	defer track.mu.Unlock()
	if track.closed {
		return ErrClosed
	}
	if position < 0 {
		position = 0
	}
	if track.loaded && position > track.duration {
		position = track.duration
	}
	track.offset = position
	if !track.playing {
		return nil
	}
	track.killLocked()
	return track.spawnLocked()
}

func (track *execTrack) SetVolume(level float64) {
	track.mu.Lock()
	defer track.mu.Unlock()
	track.volume = ClampVolume(level)
	if track.playing {
		track.offset = track.positionLocked()
		track.killLocked()
		_ = track.spawnLocked()
	}
}

func (track *execTrack) SetLoop(loop bool) {
	track.mu.Lock()
	defer track.mu.Unlock()
	track.loop = loop
}

func (track *execTrack) Position() time.Duration {
	track.mu.Lock()
	defer track.mu.Unlock()
	return track.positionLocked()
}

func (track *execTrack) OnEvent(handler func(Event)) {
	track.mu.Lock()
	defer track.mu.Unlock()
	track.handler = handler
}

func (track *execTrack) Close() error {
	track.mu.Lock()
	defer track.mu.Unlock()
	if track.closed {
		return nil
	}
	track.closed = true
	track.handler = nil
	track.killLocked()
	return nil
}

func (track *execTrack) spawnLocked() error {
	args := []string{
		"-nodisp", "-autoexit", "-loglevel", "quiet",
		"-volume", strconv.Itoa(int(track.volume * 100)),
		"-ss", strconv.FormatFloat(track.offset.Seconds(), 'f', 3, 64),
	}
	if track.loop {
		args = append(args, "-loop", "0")
	}
	args = append(args, track.source)

	cmd := exec.Command(track.backend.playerPath, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start player: %w", err)
	}
	track.cmd = cmd
	track.playing = true
	track.startedAt = track.backend.now()
	go track.wait(cmd)
	return nil
}

func (track *execTrack) killLocked() {
	if track.cmd != nil && track.cmd.Process != nil {
		_ = track.cmd.Process.Kill()
	}
	track.cmd = nil
	track.playing = false
}

func (track *execTrack) wait(cmd *exec.Cmd) {
	err := cmd.Wait()

	track.mu.Lock()
	if track.cmd != cmd {
		track.mu.Unlock()
		return
	}
	track.cmd = nil
	track.playing = false
	track.offset = 0
	handler := track.handler
	track.mu.Unlock()

	if handler == nil {
		return
	}
	if err != nil {
		handler(Event{Type: EventError, Err: fmt.Errorf("player exited: %w", err)})
		return
	}
	handler(Event{Type: EventEnded})
}

func (track *execTrack) positionLocked() time.Duration {
	position := track.offset
	if track.playing {
		position += track.backend.now().Sub(track.startedAt)
	}
	if track.loaded && track.duration > 0 {
		if track.loop {
			position %= track.duration
		} else if position > track.duration {
			position = track.duration
		}
	}
	return position
}

func (track *execTrack) probe() {
	output, err := exec.Command(track.backend.probePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		track.source,
	).Output()
	if err != nil {
		return
	}
	duration, err := parseProbeDuration(string(output))
	if err != nil {
		return
	}

	track.mu.Lock()
	if track.closed {
		track.mu.Unlock()
		return
	}
	track.duration = duration
	track.loaded = true
	handler := track.handler
	track.mu.Unlock()

	if handler != nil {
		handler(Event{Type: EventLoaded, Duration: duration})
	}
}

func parseProbeDuration(output string) (time.Duration, error) {
	seconds, err := strconv.ParseFloat(strings.TrimSpace(output), 64)
	if err != nil {
		return 0, fmt.Errorf("parse probe duration: %w", err)
	}
	if seconds < 0 {
		seconds = 0
	}
	return time.Duration(seconds * float64(time.Second)), nil
}
