package audio

import (
	"fmt"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"
)

// OutputRate is the sample rate every decoded track is mixed at.
const OutputRate beep.SampleRate = 44100

const resampleQuality = 4

// Mixer plays streamers on an output device. Lock must be held while a
// playing streamer is mutated.
type Mixer interface {
	Init(rate beep.SampleRate) error
	Play(streamer beep.Streamer)
	Lock()
	Unlock()
}

// Decoder turns a local file into a seekable stream.
type Decoder func(path string) (beep.StreamSeekCloser, beep.Format, error)

// BeepBackend decodes local wav and mp3 files and mixes them on the
// speaker. Remote URLs and other formats go to the fallback backend.
type BeepBackend struct {
	mixer    Mixer
	decode   Decoder
	fallback Backend
}

// NewBackend returns the default Backend: beep for local files, ffplay for
// everything else.
func NewBackend() Backend {
	return NewBeepBackend(&speakerMixer{}, DecodeFile, NewExecBackend())
}

// NewBeepBackend wires a mixer and decoder. fallback may be nil.
func NewBeepBackend(mixer Mixer, decode Decoder, fallback Backend) *BeepBackend {
	return &BeepBackend{mixer: mixer, decode: decode, fallback: fallback}
}

// Open decodes source when it is a local wav or mp3 file.
func (backend *BeepBackend) Open(source string) (Track, error) {
	if strings.TrimSpace(source) == "" {
		return nil, fmt.Errorf("open track: source is empty")
	}
	if !Decodable(source) {
		return backend.openFallback(source)
	}
	if err := backend.mixer.Init(OutputRate); err != nil {
		return backend.openFallback(source)
	}
	stream, format, err := backend.decode(source)
	if err != nil {
		return nil, fmt.Errorf("open track: %w", err)
	}
	return newBeepTrack(backend.mixer, stream, format), nil
}

func (backend *BeepBackend) openFallback(source string) (Track, error) {
	if backend.fallback == nil {
		return nil, ErrUnavailable
	}
	return backend.fallback.Open(source)
}

// Decodable reports whether source is a local file beep can decode.
func Decodable(source string) bool {
	// One-letter schemes are Windows drive letters.
	if parsed, err := url.Parse(source); err == nil && len(parsed.Scheme) > 1 && parsed.Scheme != "file" {
		return false
	}
	switch strings.ToLower(filepath.Ext(source)) {
	case ".wav", ".mp3":
		return true
	default:
		return false
	}
}

// DecodeFile opens path and decodes it by extension.
func DecodeFile(path string) (beep.StreamSeekCloser, beep.Format, error) {
	file, err := os.Open(strings.TrimPrefix(path, "file://"))
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("open audio file: %w", err)
	}
	var (
		stream beep.StreamSeekCloser
		format beep.Format
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		stream, format, err = mp3.Decode(file)
	default:
		stream, format, err = wav.Decode(file)
	}
	if err != nil {
		_ = file.Close()
		return nil, beep.Format{}, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return stream, format, nil
}

type speakerMixer struct {
	once sync.Once
	err  error
}

func (mixer *speakerMixer) Init(rate beep.SampleRate) error {
	mixer.once.Do(func() {
		mixer.err = speaker.Init(rate, rate.N(time.Second/10))
	})
	return mixer.err
}

func (*speakerMixer) Play(streamer beep.Streamer) { speaker.Play(streamer) }
func (*speakerMixer) Lock()                       { speaker.Lock() }
func (*speakerMixer) Unlock()                     { speaker.Unlock() }

// beepTrack state is guarded by the mixer lock, which the speaker also
// holds while it pulls samples.
type beepTrack struct {
	mixer  Mixer
	source beep.StreamSeekCloser
	format beep.Format
	ctrl   *beep.Ctrl
	volume *effects.Volume
	output beep.Streamer

	loop       bool
	attached   bool
	closed     bool
	loadedSent bool
	handler    func(Event)
}

func newBeepTrack(mixer Mixer, source beep.StreamSeekCloser, format beep.Format) *beepTrack {
	track := &beepTrack{mixer: mixer, source: source, format: format}
	track.ctrl = &beep.Ctrl{Streamer: trackStream{track: track}}
	track.volume = &effects.Volume{Streamer: track.ctrl, Base: 2}
	track.output = track.volume
	if format.SampleRate != OutputRate {
		track.output = beep.Resample(resampleQuality, format.SampleRate, OutputRate, track.volume)
	}
	return track
}

func (track *beepTrack) Play() error {
	track.mixer.Lock()
	if track.closed {
		track.mixer.Unlock()
		return ErrClosed
	}
	track.ctrl.Paused = false
	attach := !track.attached
	track.attached = true
	track.mixer.Unlock()

	if attach {
		track.mixer.Play(track.output)
	}
	return nil
}

func (track *beepTrack) Pause() error {
	track.mixer.Lock()
	defer track.mixer.Unlock()
	track.ctrl.Paused = true
	return nil
}

func (track *beepTrack) Seek(position time.Duration) error {
	track.mixer.Lock()
	defer track.mixer.Unlock()
	if track.closed {
		return ErrClosed
	}
	if position < 0 {
		position = 0
	}
	length := track.source.Len()
	sample := track.format.SampleRate.N(position)
	if position >= track.durationLocked() || sample > length {
		sample = length
	}
	if err := track.source.Seek(sample); err != nil {
		return fmt.Errorf("seek track: %w", err)
	}
	return nil
}

func (track *beepTrack) SetVolume(level float64) {
	track.mixer.Lock()
	defer track.mixer.Unlock()
	level = ClampVolume(level)
	track.volume.Silent = level == 0
	if level > 0 {
		track.volume.Volume = math.Log2(level)
	}
}

func (track *beepTrack) SetLoop(loop bool) {
	track.mixer.Lock()
	defer track.mixer.Unlock()
	track.loop = loop
}

func (track *beepTrack) Position() time.Duration {
	track.mixer.Lock()
	defer track.mixer.Unlock()
	return track.format.SampleRate.D(track.source.Position())
}

// OnEvent installs handler. Duration is known once decoded, so the first
// handler also receives EventLoaded on its own goroutine.
func (track *beepTrack) OnEvent(handler func(Event)) {
	track.mixer.Lock()
	defer track.mixer.Unlock()
	track.handler = handler
	if handler == nil || track.loadedSent || track.closed {
		return
	}
	track.loadedSent = true
	go handler(Event{Type: EventLoaded, Duration: track.durationLocked()})
}

func (track *beepTrack) Close() error {
	track.mixer.Lock()
	if track.closed {
		track.mixer.Unlock()
		return nil
	}
	track.closed = true
	track.handler = nil
	track.attached = false
	track.ctrl.Streamer = nil
	track.mixer.Unlock()

	if err := track.source.Close(); err != nil {
		return fmt.Errorf("close track: %w", err)
	}
	return nil
}

func (track *beepTrack) durationLocked() time.Duration {
	return track.format.SampleRate.D(track.source.Len())
}

// finishLocked detaches the track after its last sample and rewinds it.
func (track *beepTrack) finishLocked() {
	track.attached = false
	event := Event{Type: EventEnded}
	if err := track.source.Err(); err != nil {
		event = Event{Type: EventError, Err: fmt.Errorf("decode track: %w", err)}
	}
	_ = track.source.Seek(0)
	if handler := track.handler; handler != nil {
		go handler(event)
	}
}

// trackStream pulls from the source, wrapping around when looping. It runs
// under the mixer lock.
type trackStream struct {
	track *beepTrack
}

func (stream trackStream) Stream(samples [][2]float64) (int, bool) {
	track := stream.track
	if !track.attached {
		return 0, false
	}
	filled := 0
	rewound := false
	for filled < len(samples) {
		n, ok := track.source.Stream(samples[filled:])
		filled += n
		if n > 0 {
			rewound = false
		}
		if ok {
			if n == 0 {
				break
			}
			continue
		}
		if !track.loop || rewound || track.source.Seek(0) != nil {
			track.finishLocked()
			return filled, false
		}
		rewound = true
	}
	return filled, true
}

func (stream trackStream) Err() error {
	return stream.track.source.Err()
}
