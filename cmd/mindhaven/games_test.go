package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"fyne.io/fyne/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindhaven/internal/client"
)

type fakeLauncher struct {
	opened        []*url.URL
	notifications []*fyne.Notification
	openErr       error
}

func (launcher *fakeLauncher) OpenURL(target *url.URL) error {
	launcher.opened = append(launcher.opened, target)
	return launcher.openErr
}

func (launcher *fakeLauncher) SendNotification(notification *fyne.Notification) {
	launcher.notifications = append(launcher.notifications, notification)
}

func TestOpenGameOpensEndpoint(t *testing.T) {
	launcher := &fakeLauncher{}

	openGame(launcher, client.Game{ID: 1, Title: "Memory Match", Endpoint: "https://games.example/memory"})

	require.Len(t, launcher.opened, 1)
	assert.Equal(t, "https://games.example/memory", launcher.opened[0].String())
	assert.Empty(t, launcher.notifications)
}

func TestOpenGameWithoutEndpointNotifies(t *testing.T) {
	launcher := &fakeLauncher{}

	openGame(launcher, client.Game{ID: 2, Title: "Zen Garden", Endpoint: "  "})

	assert.Empty(t, launcher.opened)
	require.Len(t, launcher.notifications, 1)
	assert.Equal(t, gameNotConfigured, launcher.notifications[0].Content)
	assert.Equal(t, "Zen Garden", launcher.notifications[0].Title)
}

func TestOpenGameFailures(t *testing.T) {
	relative := &fakeLauncher{}
	openGame(relative, client.Game{ID: 3, Title: "Puzzle", Endpoint: "games/puzzle"})
	assert.Empty(t, relative.opened)
	require.Len(t, relative.notifications, 1)
	assert.Equal(t, gameOpenFailed, relative.notifications[0].Content)

	refused := &fakeLauncher{openErr: errors.New("no browser")}
	openGame(refused, client.Game{ID: 4, Title: "Puzzle", Endpoint: "https://games.example/puzzle"})
	require.Len(t, refused.notifications, 1)
	assert.Equal(t, gameOpenFailed, refused.notifications[0].Content)
}

func TestLoadGamesHandsOverDirectory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/games", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"games":{"2":{"id":2,"title":"Zen Garden","endpoint":""},"1":{"id":1,"title":"Memory Match","endpoint":"https://games.example/memory"}}}`))
	}))
	defer server.Close()

	var loaded []client.Game
	loadGames(context.Background(), client.New(server.URL, nil, nil), func(games []client.Game) {
		loaded = games
	})

	require.Len(t, loaded, 2)
	assert.Equal(t, "Memory Match", loaded[0].Title)
	assert.Equal(t, "Zen Garden", loaded[1].Title)
}

func TestLoadGamesSkipsOnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	called := false
	loadGames(context.Background(), client.New(server.URL, nil, nil), func([]client.Game) { called = true })

	assert.False(t, called)
}
