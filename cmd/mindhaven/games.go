package main

import (
	"context"
	"errors"
	"log"
	"net/url"
	"strings"
	"time"

	"fyne.io/fyne/v2"

	"mindhaven/internal/client"
)

const (
	gameNotConfigured = "Game URL not configured yet."
	gameOpenFailed    = "Unable to open the game."
)

var errRelativeEndpoint = errors.New("game endpoint is not an absolute url")

// launcher is the part of fyne.App that opens games.
type launcher interface {
	OpenURL(url *url.URL) error
	SendNotification(notification *fyne.Notification)
}

// openGame opens the game endpoint in the browser, or tells the user why
// it cannot.
func openGame(app launcher, game client.Game) {
	endpoint := strings.TrimSpace(game.Endpoint)
	if endpoint == "" {
		app.SendNotification(fyne.NewNotification(game.Title, gameNotConfigured))
		return
	}
	target, err := url.Parse(endpoint)
	if err == nil && !target.IsAbs() {
		err = errRelativeEndpoint
	}
	if err == nil {
		err = app.OpenURL(target)
	}
	if err != nil {
		log.Printf("open game %d: %v", game.ID, err)
		app.SendNotification(fyne.NewNotification(game.Title, gameOpenFailed))
	}
}

// loadGames fetches the game directory and hands it to onLoad.
func loadGames(ctx context.Context, api *client.Client, onLoad func([]client.Game)) {
	requestCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	games, err := api.Games(requestCtx)
	if err != nil {
		log.Printf("load games: %v", err)
		return
	}
	onLoad(games)
}
