package coordinator

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindhaven/internal/core/animation"
	"mindhaven/internal/core/audio/audiotest"
	"mindhaven/internal/core/model"
	"mindhaven/internal/core/soundscape"
	"mindhaven/internal/core/supervisor"
	"mindhaven/internal/core/timer"
	"mindhaven/internal/ui/overlay"
	"mindhaven/resources"
)

var epoch = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

type fakeDisplay struct {
	mu        sync.Mutex
	views     []overlay.View
	sample    func(time.Time) animation.Scale
	animating bool
}

func (display *fakeDisplay) Render(view overlay.View) {
	display.mu.Lock()
	defer display.mu.Unlock()
	display.views = append(display.views, view)
}

func (display *fakeDisplay) Animate(sample func(time.Time) animation.Scale) {
	display.mu.Lock()
	defer display.mu.Unlock()
	display.sample = sample
	display.animating = true
}

func (display *fakeDisplay) StopAnimation() {
	display.mu.Lock()
	defer display.mu.Unlock()
	display.animating = false
}

func (display *fakeDisplay) last() overlay.View {
	display.mu.Lock()
	defer display.mu.Unlock()
	if len(display.views) == 0 {
		return overlay.View{}
	}
	return display.views[len(display.views)-1]
}

func (display *fakeDisplay) isAnimating() bool {
	display.mu.Lock()
	defer display.mu.Unlock()
	return display.animating
}

type fakeIndicator struct {
	mu      sync.Mutex
	status  string
	active  bool
	sound   soundscape.Key
	playing bool
	volume  float64
}

func (indicator *fakeIndicator) SetStatus(status string) {
	indicator.mu.Lock()
	defer indicator.mu.Unlock()
	indicator.status = status
}

func (indicator *fakeIndicator) SetSessionActive(active bool) {
	indicator.mu.Lock()
	defer indicator.mu.Unlock()
	indicator.active = active
}

func (indicator *fakeIndicator) SetSound(key soundscape.Key, playing bool) {
	indicator.mu.Lock()
	defer indicator.mu.Unlock()
	indicator.sound = key
	indicator.playing = playing
}

func (indicator *fakeIndicator) SetVolume(level float64) {
	indicator.mu.Lock()
	defer indicator.mu.Unlock()
	indicator.volume = level
}

func (indicator *fakeIndicator) snapshot() fakeIndicator {
	indicator.mu.Lock()
	defer indicator.mu.Unlock()
	return fakeIndicator{
		status:  indicator.status,
		active:  indicator.active,
		sound:   indicator.sound,
		playing: indicator.playing,
		volume:  indicator.volume,
	}
}

type fixture struct {
	coordinator *Coordinator
	clock       *timer.Manual
	backend     *audiotest.Backend
	display     *fakeDisplay
	indicator   *fakeIndicator
	mediaDir    string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	catalog, err := resources.Catalog()
	require.NoError(t, err)

	f := &fixture{
		clock:     timer.NewManual(epoch),
		backend:   &audiotest.Backend{},
		display:   &fakeDisplay{},
		indicator: &fakeIndicator{},
		mediaDir:  t.TempDir(),
	}
	f.coordinator = New(Options{
		Catalog:   catalog,
		MediaDir:  f.mediaDir,
		Scheduler: f.clock,
		Backend:   f.backend,
		Config:    model.DefaultControllerConfig(),
		Display:   f.display,
		Indicator: f.indicator,
	})
	t.Cleanup(f.coordinator.Close)
	return f
}

func TestStartBreathingRendersAndAnimates(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.coordinator.StartBreathing("Box Breathing"))

	assert.Equal(t, supervisor.Breathing, f.coordinator.Active())
	view := f.display.last()
	assert.Equal(t, overlay.ModeBreathing, view.Mode)
	assert.Equal(t, "Box Breathing", view.Title)
	assert.Equal(t, "Breathe in", view.Subtitle)
	assert.Equal(t, "4s", view.Timer)

	state := f.indicator.snapshot()
	assert.Equal(t, "Box Breathing: Breathe in", state.status)
	assert.True(t, state.active)

	require.True(t, f.display.isAnimating())
	assert.Equal(t, animation.BaselineScale, f.display.sample(f.clock.Now()))
}

func TestUnknownSessionsAreRejected(t *testing.T) {
	f := newFixture(t)

	assert.ErrorIs(t, f.coordinator.StartBreathing("Lion Breath"), ErrUnknownExercise)
	assert.ErrorIs(t, f.coordinator.StartMeditation("Nap"), ErrUnknownMeditation)
	assert.ErrorIs(t, f.coordinator.PlaySound("thunder"), soundscape.ErrUnknownSound)
	assert.Equal(t, supervisor.None, f.coordinator.Active())
	assert.Equal(t, overlay.ModeIdle, f.display.last().Mode)
}

func TestAllPatternsRunsAsOneSession(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.coordinator.StartAllBreathing())
	view := f.display.last()
	assert.Equal(t, "All patterns", view.Title)
	assert.Contains(t, view.Detail, "Step 1 of")
}

func TestMeditationReplacesBreathing(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.coordinator.StartBreathing("4-7-8 Breathing"))

	require.NoError(t, f.coordinator.StartMeditation("Body Scan"))

	assert.Equal(t, supervisor.Meditation, f.coordinator.Active())
	assert.False(t, f.coordinator.breathing.Running())
	assert.False(t, f.display.isAnimating())

	view := f.display.last()
	assert.Equal(t, overlay.ModeMeditation, view.Mode)
	assert.Equal(t, "20:00", view.Timer)
	assert.Equal(t, "Body Scan: 20:00 left", f.indicator.snapshot().status)

	track := f.backend.Last()
	require.NotNil(t, track)
	assert.Equal(t, filepath.Join(f.mediaDir, "audio", filepath.Base(track.Source)), track.Source)
}

func TestSoundscapeLifecycle(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.coordinator.StartMeditation("Morning Mindfulness"))

	require.NoError(t, f.coordinator.PlaySound(soundscape.Ocean))
	assert.Equal(t, supervisor.Soundscape, f.coordinator.Active())
	assert.False(t, f.coordinator.meditation.Snapshot().HasSession)
	state := f.indicator.snapshot()
	assert.Equal(t, soundscape.Ocean, state.sound)
	assert.True(t, state.playing)
	assert.Equal(t, "Ocean Waves: Playing", state.status)

	f.coordinator.PauseSound()
	state = f.indicator.snapshot()
	assert.False(t, state.playing)
	assert.Equal(t, "Ocean Waves: Paused", state.status)

	f.coordinator.StopSound()
	assert.Equal(t, supervisor.None, f.coordinator.Active())
	state = f.indicator.snapshot()
	assert.Equal(t, soundscape.Key(""), state.sound)
	assert.Equal(t, "idle", state.status)
	assert.False(t, state.active)
}

func TestSetVolumeClampsAndReports(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.coordinator.PlaySound(soundscape.Rain))

	f.coordinator.SetVolume(2)
	assert.Equal(t, 1.0, f.indicator.snapshot().volume)
	assert.Equal(t, 1.0, f.backend.Last().Volume())

	f.coordinator.SetVolume(-1)
	assert.Equal(t, 0.0, f.indicator.snapshot().volume)
}

func TestSetVolumeReachesMeditationNarration(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.coordinator.StartMeditation("Body Scan"))

	f.coordinator.SetVolume(0.25)

	assert.InDelta(t, 0.25, f.backend.Last().Volume(), 1e-9)
	assert.InDelta(t, 0.25, f.coordinator.meditation.Volume(), 1e-9)
}

func TestResumeAnimationOnlyWhileBreathing(t *testing.T) {
	f := newFixture(t)

	f.coordinator.ResumeAnimation()
	assert.False(t, f.display.isAnimating())

	require.NoError(t, f.coordinator.StartBreathing("Box Breathing"))
	f.display.StopAnimation()
	f.coordinator.ResumeAnimation()
	assert.True(t, f.display.isAnimating())

	require.NoError(t, f.coordinator.PlaySound(soundscape.Wind))
	f.coordinator.ResumeAnimation()
	assert.False(t, f.display.isAnimating())
}

func TestStopSessionReturnsToIdle(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.coordinator.StartBreathing("Deep Belly Breathing"))

	f.coordinator.StopSession()

	assert.Equal(t, supervisor.None, f.coordinator.Active())
	assert.False(t, f.display.isAnimating())
	assert.Equal(t, overlay.IdleView(), f.display.last())
	assert.Equal(t, "idle", f.indicator.snapshot().status)
}

func TestRunRefreshesOnTicks(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		f.coordinator.Run(ctx)
		close(done)
	}()

	require.NoError(t, f.coordinator.StartBreathing("Box Breathing"))
	f.clock.Advance(time.Second)

	assert.Eventually(t, func() bool {
		return f.display.last().Timer == "3s"
	}, time.Second, 5*time.Millisecond)

	f.coordinator.Close()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Close")
	}
}
