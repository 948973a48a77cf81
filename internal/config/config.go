// Package config loads MindHaven server and desktop settings from the environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// DefaultChatBase is the chat service used when API_EXTERNAL_BASE is unset.
const DefaultChatBase = "http://localhost:8000"

// Server holds everything the HTTP backend reads from the environment.
type Server struct {
	Port         int           `env:"PORT" envDefault:"5000"`
	DBPath       string        `env:"MINDHAVEN_DB_PATH" envDefault:"mindhaven.db"`
	JWTSecret    string        `env:"JWT_SECRET" envDefault:"devsecret"`
	TokenTTL     time.Duration `env:"JWT_TTL" envDefault:"168h"`
	ChatBase     string        `env:"API_EXTERNAL_BASE" envDefault:"http://localhost:8000"`
	ChatTimeout  time.Duration `env:"MINDHAVEN_CHAT_TIMEOUT" envDefault:"30s"`
	OTelEndpoint string        `env:"MINDHAVEN_OTEL_ENDPOINT"`
	OTelEnabled  bool          `env:"MINDHAVEN_OTEL_ENABLED" envDefault:"true"`
}

// Games maps the six game directory slots to their configured endpoints.
type Games struct {
	Chess         string `env:"GAME_1"`
	Sudoku        string `env:"GAME_2"`
	SlidingPuzzle string `env:"GAME_3"`
	MemoryCard    string `env:"GAME_4"`
	Minesweeper   string `env:"GAME_5"`
	TicTacToe     string `env:"GAME_6"`
}

// Desktop holds environment overrides for the desktop client.
type Desktop struct {
	MediaDir  string `env:"MINDHAVEN_MEDIA_DIR"`
	ServerURL string `env:"MINDHAVEN_SERVER_URL"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadDotEnv loads variables from path without overriding ones already set.
// Missing files are ignored.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// LoadServer parses and validates the server configuration.
func LoadServer() (Server, error) {
	var cfg Server
	if err := ParseEnv(&cfg); err != nil {
		return Server{}, err
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return Server{}, fmt.Errorf("PORT must be between 1 and 65535, got %d", cfg.Port)
	}
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return Server{}, fmt.Errorf("JWT_SECRET must not be empty")
	}
	if _, err := cfg.ChatURL(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// LoadGames reads the game endpoints. It is called per request so edits to
// the environment show up without a restart.
func LoadGames() (Games, error) {
	var games Games
	if err := ParseEnv(&games); err != nil {
		return Games{}, err
	}
	return games, nil
}

// LoadDesktop reads the desktop overrides. Empty fields mean "use the
// saved settings".
func LoadDesktop() (Desktop, error) {
	var cfg Desktop
	if err := ParseEnv(&cfg); err != nil {
		return Desktop{}, err
	}
	cfg.MediaDir = strings.TrimSpace(cfg.MediaDir)
	cfg.ServerURL = strings.TrimRight(strings.TrimSpace(cfg.ServerURL), "/")
	return cfg, nil
}

// Addr returns the listen address.
func (cfg Server) Addr() string {
	return fmt.Sprintf(":%d", cfg.Port)
}

// ChatURL returns the upstream chat endpoint.
func (cfg Server) ChatURL() (string, error) {
	base := strings.TrimSpace(cfg.ChatBase)
	if base == "" {
		base = DefaultChatBase
	}
	parsed, err := url.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("API_EXTERNAL_BASE must be an absolute URL, got %q", cfg.ChatBase)
	}
	return strings.TrimRight(base, "/") + "/chat", nil
}
