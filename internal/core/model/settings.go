package model

import "time"

// Settings defines editable desktop preferences.
type Settings struct {
	DisplayName string
	ServerURL   string
	Volume      float64

	OverlayOpacity float64
	Fullscreen     bool
}

// DefaultSettings returns default settings for MindHaven.
func DefaultSettings() Settings {
	return Settings{
		ServerURL:      "http://localhost:5000",
		Volume:         DefaultVolume,
		OverlayOpacity: 0.85,
		Fullscreen:     false,
	}
}

// ControllerConfig converts settings to ControllerConfig.
func (settings Settings) ControllerConfig() ControllerConfig {
	config := DefaultControllerConfig()
	config.Volume = settings.Volume
	config.TickInterval = time.Second
	return config.Normalize()
}
