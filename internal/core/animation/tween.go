package animation

import "time"

// Scale is the visual size of the breathing circles.
type Scale struct {
	Outer float64
	Inner float64
}

// Tween eases a Scale from From to To over Duration starting at Start.
type Tween struct {
	From     Scale
	To       Scale
	Start    time.Time
	Duration time.Duration
}

// Progress returns linear progress through the tween in [0, 1].
func (tween Tween) Progress(now time.Time) float64 {
	duration := tween.Duration
	if duration <= 0 {
		duration = time.Second
	}
	return clamp01(float64(now.Sub(tween.Start)) / float64(duration))
}

// Sample returns the eased scale at now.
func (tween Tween) Sample(now time.Time) Scale {
	eased := Ease(tween.Progress(now))
	return Scale{
		Outer: Lerp(tween.From.Outer, tween.To.Outer, eased),
		Inner: Lerp(tween.From.Inner, tween.To.Inner, eased),
	}
}
