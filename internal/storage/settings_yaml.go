package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"mindhaven/internal/core/model"
)

const settingsFileName = "settings.yaml"

type yamlSettings struct {
	DisplayName    string   `yaml:"display_name"`
	ServerURL      string   `yaml:"server_url"`
	Volume         *float64 `yaml:"volume"`
	OverlayOpacity float64  `yaml:"overlay_opacity"`
	Fullscreen     bool     `yaml:"fullscreen"`
}

// ResolveConfigDir returns the per-user configuration directory for appName.
func ResolveConfigDir(appName string) (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(configDir, appName), nil
}

// LoadSettings reads user preferences from YAML in configDir.
// If the config file does not exist, default settings are returned.
func LoadSettings(configDir string) (model.Settings, error) {
	settings := model.DefaultSettings()

	rawData, err := os.ReadFile(filepath.Join(configDir, settingsFileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return settings, nil
		}
		return settings, fmt.Errorf("read settings file: %w", err)
	}

	var fileData yamlSettings
	if err := yaml.Unmarshal(rawData, &fileData); err != nil {
		return settings, fmt.Errorf("parse settings yaml: %w", err)
	}

	applyYamlSettings(&settings, fileData)
	return settings, nil
}

// SaveSettings writes user preferences to YAML in configDir.
func SaveSettings(configDir string, settings model.Settings) error {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	volume := settings.Volume
	fileData := yamlSettings{
		DisplayName:    settings.DisplayName,
		ServerURL:      settings.ServerURL,
		Volume:         &volume,
		OverlayOpacity: settings.OverlayOpacity,
		Fullscreen:     settings.Fullscreen,
	}

	serialized, err := yaml.Marshal(fileData)
	if err != nil {
		return fmt.Errorf("marshal settings yaml: %w", err)
	}

	if err := os.WriteFile(filepath.Join(configDir, settingsFileName), serialized, 0o644); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}

	return nil
}

func applyYamlSettings(settings *model.Settings, fileData yamlSettings) {
	settings.DisplayName = fileData.DisplayName
	if fileData.ServerURL != "" {
		settings.ServerURL = fileData.ServerURL
	}
	if fileData.Volume != nil && *fileData.Volume >= 0 && *fileData.Volume <= 1 {
		settings.Volume = *fileData.Volume
	}
	if fileData.OverlayOpacity >= 0.5 && fileData.OverlayOpacity <= 1 {
		settings.OverlayOpacity = fileData.OverlayOpacity
	}
	settings.Fullscreen = fileData.Fullscreen
}
