package overlay

import (
	"fmt"
	"time"

	"mindhaven/internal/core/breathing"
	"mindhaven/internal/core/meditation"
	"mindhaven/internal/core/soundscape"
)

// Mode selects which visual the overlay shows.
type Mode int

const (
	ModeIdle Mode = iota
	ModeBreathing
	ModeMeditation
	ModeSoundscape
)

// View is everything the overlay renders for one update.
type View struct {
	Mode     Mode
	Title    string
	Subtitle string
	Detail   string
	Timer    string
	// Progress is in [0, 1] and only drawn for soundscapes.
	Progress float64
}

// IdleView is shown when nothing is running.
func IdleView() View {
	return View{
		Mode:     ModeIdle,
		Title:    "MindHaven",
		Subtitle: "Pick a session from the tray",
		Timer:    "--:--",
	}
}

// BreathingView renders a breathing snapshot for the named exercise.
func BreathingView(name string, snapshot breathing.Snapshot) View {
	if snapshot.State == breathing.StateIdle {
		return IdleView()
	}
	view := View{
		Mode:     ModeBreathing,
		Title:    name,
		Subtitle: phaseText(snapshot.State),
		Timer:    "--",
	}
	if snapshot.HasRemaining {
		view.Timer = fmt.Sprintf("%ds", snapshot.SecondsRemaining)
	}
	if len(snapshot.Pattern) > 1 {
		view.Detail = fmt.Sprintf("Step %d of %d", snapshot.Index+1, len(snapshot.Pattern))
	}
	return view
}

// MeditationView renders a meditation snapshot with the current script line.
func MeditationView(snapshot meditation.Snapshot, line string) View {
	if !snapshot.HasSession {
		return IdleView()
	}
	view := View{
		Mode:     ModeMeditation,
		Title:    snapshot.Session.Title,
		Subtitle: "Meditating",
		Detail:   line,
		Timer:    formatDuration(snapshot.Remaining()),
	}
	if snapshot.Complete {
		view.Subtitle = "Session complete"
		view.Detail = "Take a moment before you return."
	}
	return view
}

// SoundscapeView renders the player state for the named sound.
func SoundscapeView(name string, snapshot soundscape.Snapshot) View {
	if snapshot.Active == "" {
		return IdleView()
	}
	view := View{
		Mode:     ModeSoundscape,
		Title:    name,
		Subtitle: "Paused",
		Timer:    formatDuration(snapshot.Position),
	}
	if snapshot.Playing {
		view.Subtitle = "Playing"
	}
	if snapshot.Loaded && snapshot.Duration > 0 {
		view.Timer = fmt.Sprintf("%s / %s", formatDuration(snapshot.Position), formatDuration(snapshot.Duration))
		view.Progress = float64(snapshot.Position) / float64(snapshot.Duration)
	}
	view.Detail = fmt.Sprintf("Volume %d%%", int(snapshot.Volume*100+0.5))
	return view
}

func phaseText(state breathing.State) string {
	switch state {
	case breathing.StateInhale:
		return "Breathe in"
	case breathing.StateHold:
		return "Hold"
	case breathing.StateExhale:
		return "Breathe out"
	default:
		return ""
	}
}

func formatDuration(value time.Duration) string {
	if value < 0 {
		value = 0
	}
	seconds := int(value.Seconds())
	minutes := seconds / 60
	seconds = seconds % 60
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
