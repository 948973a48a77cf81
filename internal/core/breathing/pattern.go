package breathing

import (
	"errors"
	"fmt"
)

// Label names a segment of a breathing cycle.
type Label string

const (
	Inhale Label = "Inhale"
	Hold   Label = "Hold"
	Exhale Label = "Exhale"
)

var (
	// ErrEmptyPattern indicates a pattern with no phases.
	ErrEmptyPattern = errors.New("breathing pattern is empty")
	// ErrInvalidPhase indicates a phase with an unknown label or non-positive duration.
	ErrInvalidPhase = errors.New("invalid breathing phase")
)

// Phase is one labelled, fixed-length segment of a pattern.
type Phase struct {
	Label           Label `yaml:"label"`
	DurationSeconds int   `yaml:"duration"`
}

// Pattern is an ordered phase sequence that repeats until stopped.
type Pattern []Phase

// Validate checks the pattern is non-empty and every phase is well formed.
func (pattern Pattern) Validate() error {
	if len(pattern) == 0 {
		return ErrEmptyPattern
	}
	for index, phase := range pattern {
		switch phase.Label {
		case Inhale, Hold, Exhale:
		default:
			return fmt.Errorf("%w: phase %d has label %q", ErrInvalidPhase, index, phase.Label)
		}
		if phase.DurationSeconds <= 0 {
			return fmt.Errorf("%w: phase %d lasts %ds", ErrInvalidPhase, index, phase.DurationSeconds)
		}
	}
	return nil
}

// CycleSeconds returns the length of one full pass through the pattern.
func (pattern Pattern) CycleSeconds() int {
	total := 0
	for _, phase := range pattern {
		total += phase.DurationSeconds
	}
	return total
}

// Concat joins patterns into one sequence, as for "play all patterns".
func Concat(patterns ...Pattern) Pattern {
	var joined Pattern
	for _, pattern := range patterns {
		joined = append(joined, pattern...)
	}
	return joined
}
