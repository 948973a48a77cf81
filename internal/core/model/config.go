package model

import "time"

// DefaultVolume is the soundscape level used until the user picks one.
const DefaultVolume = 0.7

// ControllerConfig contains runtime settings shared by the session controllers.
type ControllerConfig struct {
	TickInterval     time.Duration
	FrameInterval    time.Duration
	ProgressInterval time.Duration
	Volume           float64
}

// DefaultControllerConfig returns one-second countdown ticks, ~60 fps
// interpolation frames and four playback progress updates per second.
func DefaultControllerConfig() ControllerConfig {
	return ControllerConfig{
		TickInterval:     time.Second,
		FrameInterval:    16 * time.Millisecond,
		ProgressInterval: 250 * time.Millisecond,
		Volume:           DefaultVolume,
	}
}

// Normalize fills zero or out-of-range fields with defaults.
func (config ControllerConfig) Normalize() ControllerConfig {
	defaults := DefaultControllerConfig()
	if config.TickInterval <= 0 {
		config.TickInterval = defaults.TickInterval
	}
	if config.FrameInterval <= 0 {
		config.FrameInterval = defaults.FrameInterval
	}
	if config.ProgressInterval <= 0 {
		config.ProgressInterval = defaults.ProgressInterval
	}
	if config.Volume < 0 || config.Volume > 1 {
		config.Volume = defaults.Volume
	}
	return config
}
