package animation

// Ease maps linear progress t to the symmetric quadratic ease-in-out curve.
// t is clamped to [0, 1]; Ease(0.5) == 0.5.
func Ease(t float64) float64 {
	t = clamp01(t)
	if t < 0.5 {
		return 2 * t * t
	}
	return -1 + (4-2*t)*t
}

// Lerp interpolates between from and to by fraction.
func Lerp(from, to, fraction float64) float64 {
	return from + (to-from)*fraction
}

func clamp01(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
