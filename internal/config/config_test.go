package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearServerEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"PORT", "MINDHAVEN_DB_PATH", "JWT_SECRET", "JWT_TTL", "API_EXTERNAL_BASE", "MINDHAVEN_CHAT_TIMEOUT", "MINDHAVEN_OTEL_ENDPOINT", "MINDHAVEN_OTEL_ENABLED"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoadServerDefaults(t *testing.T) {
	clearServerEnv(t)

	cfg, err := LoadServer()

	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.Port)
	assert.Equal(t, ":5000", cfg.Addr())
	assert.Equal(t, "devsecret", cfg.JWTSecret)
	assert.Equal(t, 168*time.Hour, cfg.TokenTTL)
	chatURL, err := cfg.ChatURL()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000/chat", chatURL)
}

func TestLoadServerOverrides(t *testing.T) {
	clearServerEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("API_EXTERNAL_BASE", "https://companion.example.com/v1/")

	cfg, err := LoadServer()

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	chatURL, err := cfg.ChatURL()
	require.NoError(t, err)
	assert.Equal(t, "https://companion.example.com/v1/chat", chatURL)
}

func TestLoadServerRejectsBadValues(t *testing.T) {
	clearServerEnv(t)
	t.Setenv("PORT", "not-a-port")
	_, err := LoadServer()
	assert.ErrorContains(t, err, "parse env:")

	t.Setenv("PORT", "70000")
	_, err = LoadServer()
	assert.ErrorContains(t, err, "PORT")

	t.Setenv("PORT", "5000")
	t.Setenv("API_EXTERNAL_BASE", "companion")
	_, err = LoadServer()
	assert.ErrorContains(t, err, "API_EXTERNAL_BASE")
}

func TestLoadGamesReadsEnvEachCall(t *testing.T) {
	t.Setenv("GAME_1", "https://games.example.com/chess")
	games, err := LoadGames()
	require.NoError(t, err)
	assert.Equal(t, "https://games.example.com/chess", games.Chess)

	t.Setenv("GAME_1", "https://games.example.com/chess-v2")
	games, err = LoadGames()
	require.NoError(t, err)
	assert.Equal(t, "https://games.example.com/chess-v2", games.Chess)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("MINDHAVEN_DOTENV_PROBE=loaded\n"), 0o600))
	t.Setenv("MINDHAVEN_DOTENV_PROBE", "")
	require.NoError(t, os.Unsetenv("MINDHAVEN_DOTENV_PROBE"))

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "loaded", os.Getenv("MINDHAVEN_DOTENV_PROBE"))

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env")))
}

func TestLoadDesktop(t *testing.T) {
	t.Setenv("MINDHAVEN_MEDIA_DIR", " /srv/mindhaven/media ")
	t.Setenv("MINDHAVEN_SERVER_URL", "https://haven.example.com/")

	cfg, err := LoadDesktop()

	require.NoError(t, err)
	assert.Equal(t, "/srv/mindhaven/media", cfg.MediaDir)
	assert.Equal(t, "https://haven.example.com", cfg.ServerURL)
}
