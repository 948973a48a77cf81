package meditation

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindhaven/internal/core/audio"
	"mindhaven/internal/core/audio/audiotest"
	"mindhaven/internal/core/model"
	"mindhaven/internal/core/timer"
)

var epoch = time.Date(2026, 1, 1, 7, 0, 0, 0, time.UTC)

func morning() Session {
	return Session{
		Title:       "Morning Mindfulness",
		Description: "Start your day with clarity",
		Script:      []string{"Settle in.", "Notice the breath.", "Open your eyes."},
		Minutes:     1,
		AudioURL:    "/audio/morning-mindfulness.mp3",
	}
}

func newTestController(backend audio.Backend) (*Controller, *timer.Manual) {
	clock := timer.NewManual(epoch)
	return New(clock, backend, model.DefaultControllerConfig()), clock
}

func TestOneMinuteSessionCompletes(t *testing.T) {
	backend := &audiotest.Backend{}
	controller, clock := newTestController(backend)
	require.NoError(t, controller.Start(morning()))
	require.Equal(t, 60, controller.Snapshot().RemainingSeconds)

	for i := 0; i < 60; i++ {
		clock.Advance(time.Second)
	}

	snapshot := controller.Snapshot()
	assert.Equal(t, 0, snapshot.RemainingSeconds)
	assert.True(t, snapshot.Complete)
	assert.Equal(t, StateComplete, snapshot.State)
	assert.True(t, snapshot.HasSession)
	assert.Equal(t, "Morning Mindfulness", snapshot.Session.Title)
	assert.False(t, snapshot.AudioActive)
	assert.Equal(t, 0, clock.Active())
	assert.True(t, backend.Last().Closed())
}

func TestCompletionHappensOnce(t *testing.T) {
	controller, clock := newTestController(nil)
	events := controller.Subscribe(128)
	require.NoError(t, controller.Start(morning()))

	clock.Advance(90 * time.Second)

	completed := 0
	for len(events) > 0 {
		if (<-events).Type == EventCompleted {
			completed++
		}
	}
	assert.Equal(t, 1, completed)
	assert.Equal(t, 0, controller.Snapshot().RemainingSeconds)
}

func TestStartRejectsNonPositiveDuration(t *testing.T) {
	controller, clock := newTestController(nil)
	session := morning()
	session.Minutes = 0

	assert.ErrorIs(t, controller.Start(session), ErrInvalidDuration)
	assert.Equal(t, StateIdle, controller.Snapshot().State)
	assert.Equal(t, 0, clock.Active())
}

func TestAudioFailureIsSwallowed(t *testing.T) {
	backend := &audiotest.Backend{PlayErr: audiotest.ErrBlocked}
	controller, clock := newTestController(backend)

	require.NoError(t, controller.Start(morning()))
	clock.Advance(time.Second)

	snapshot := controller.Snapshot()
	assert.Equal(t, StateRunning, snapshot.State)
	assert.Equal(t, 59, snapshot.RemainingSeconds)
	assert.False(t, snapshot.AudioActive)
	assert.True(t, backend.Last().Closed())
}

func TestOpenFailureIsSwallowed(t *testing.T) {
	controller, clock := newTestController(&audiotest.Backend{OpenErr: errors.New("no such file")})

	require.NoError(t, controller.Start(morning()))
	clock.Advance(time.Second)

	assert.Equal(t, 59, controller.Snapshot().RemainingSeconds)
}

func TestAudioErrorEventReleasesTrack(t *testing.T) {
	backend := &audiotest.Backend{}
	controller, _ := newTestController(backend)
	require.NoError(t, controller.Start(morning()))
	track := backend.Last()
	require.True(t, track.Playing())
	assert.False(t, track.Loop())
	assert.InDelta(t, model.DefaultVolume, track.Volume(), 1e-9)

	track.Fire(audio.Event{Type: audio.EventError, Err: errors.New("decode")})

	assert.True(t, track.Closed())
	assert.False(t, controller.Snapshot().AudioActive)
	assert.Equal(t, StateRunning, controller.Snapshot().State)
}

func TestSetVolumeReachesLiveAndNextNarration(t *testing.T) {
	backend := &audiotest.Backend{}
	controller, _ := newTestController(backend)
	require.NoError(t, controller.Start(morning()))

	controller.SetVolume(0.3)
	assert.InDelta(t, 0.3, backend.Last().Volume(), 1e-9)

	controller.SetVolume(4)
	assert.Equal(t, 1.0, controller.Volume())

	controller.Stop()
	controller.SetVolume(0.2)
	require.NoError(t, controller.Start(morning()))
	assert.InDelta(t, 0.2, backend.Last().Volume(), 1e-9)
}

func TestStopIsIdempotent(t *testing.T) {
	backend := &audiotest.Backend{}
	controller, clock := newTestController(backend)
	events := controller.Subscribe(8)

	controller.Stop()
	assert.Empty(t, events)

	require.NoError(t, controller.Start(morning()))
	controller.Stop()
	controller.Stop()

	snapshot := controller.Snapshot()
	assert.Equal(t, StateIdle, snapshot.State)
	assert.False(t, snapshot.HasSession)
	assert.False(t, snapshot.Complete)
	assert.Equal(t, 0, snapshot.RemainingSeconds)
	assert.Equal(t, 0, clock.Active())
	assert.True(t, backend.Last().Detached())
	assert.True(t, backend.Last().Closed())
}

func TestStopClearsCompletedSession(t *testing.T) {
	controller, clock := newTestController(nil)
	require.NoError(t, controller.Start(morning()))
	clock.Advance(time.Minute)
	require.True(t, controller.Snapshot().Complete)

	controller.Stop()

	assert.False(t, controller.Snapshot().Complete)
	assert.False(t, controller.Snapshot().HasSession)
}

func TestRestartDiscardsPreviousSession(t *testing.T) {
	backend := &audiotest.Backend{}
	controller, clock := newTestController(backend)
	require.NoError(t, controller.Start(morning()))
	first := backend.Last()

	longer := morning()
	longer.Title = "Body Scan"
	longer.Minutes = 20
	require.NoError(t, controller.Start(longer))
	clock.Advance(time.Second)

	assert.True(t, first.Closed())
	assert.Equal(t, 1, clock.Active())
	assert.Equal(t, 20*60-1, controller.Snapshot().RemainingSeconds)
	assert.Equal(t, "Body Scan", controller.Snapshot().Session.Title)
}

func TestCurrentLineSpreadsScript(t *testing.T) {
	controller, clock := newTestController(nil)
	assert.Empty(t, controller.CurrentLine())

	require.NoError(t, controller.Start(morning()))
	assert.Equal(t, "Settle in.", controller.CurrentLine())

	clock.Advance(20 * time.Second)
	assert.Equal(t, "Notice the breath.", controller.CurrentLine())

	clock.Advance(40 * time.Second)
	assert.Equal(t, "Open your eyes.", controller.CurrentLine())
}
