package main

import (
	"context"
	"errors"
	"log"
	"path/filepath"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"mindhaven/internal/client"
	"mindhaven/internal/config"
	"mindhaven/internal/core/animation"
	"mindhaven/internal/core/audio"
	"mindhaven/internal/core/model"
	"mindhaven/internal/core/soundscape"
	"mindhaven/internal/core/timer"
	"mindhaven/internal/platform"
	"mindhaven/internal/storage"
	"mindhaven/internal/ui/chat"
	"mindhaven/internal/ui/coordinator"
	"mindhaven/internal/ui/overlay"
	"mindhaven/internal/ui/preferences"
	"mindhaven/internal/ui/tray"
	"mindhaven/resources"
)

const appName = "MindHaven"

func main() {
	log.SetPrefix("mindhaven: ")

	guard, err := platform.AcquireSingleInstance(appName)
	if errors.Is(err, platform.ErrAlreadyRunning) {
		if signalErr := platform.SignalRunning(appName); signalErr != nil {
			log.Printf("single instance: %v", signalErr)
		}
		return
	}
	if err != nil {
		log.Printf("single instance: %v", err)
		return
	}
	defer func() {
		_ = guard.Release()
	}()

	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("dotenv: %v", err)
	}
	overrides, err := config.LoadDesktop()
	if err != nil {
		log.Printf("desktop config: %v", err)
	}

	configDir, err := storage.ResolveConfigDir(appName)
	if err != nil {
		log.Printf("config dir: %v", err)
		return
	}
	settings, err := storage.LoadSettings(configDir)
	if err != nil {
		log.Printf("load settings: %v", err)
		settings = model.DefaultSettings()
	}
	if overrides.ServerURL != "" {
		settings.ServerURL = overrides.ServerURL
	}
	mediaDir := overrides.MediaDir
	if mediaDir == "" {
		mediaDir = filepath.Join(configDir, "media")
	}

	identity, err := storage.OpenIdentityStore(configDir)
	if err != nil {
		log.Printf("identity: %v", err)
		return
	}
	catalog, err := resources.Catalog()
	if err != nil {
		log.Printf("catalog: %v", err)
		return
	}

	fyneApp := app.NewWithID("app.mindhaven.desktop")
	fyneApp.SetIcon(resources.MustLogo("mindhaven.svg"))
	desktopApp, ok := fyneApp.(desktop.App)
	if !ok {
		log.Printf("system tray unsupported on this platform")
		return
	}

	trayWindow := fyneApp.NewWindow(appName)
	trayWindow.SetContent(widget.NewLabel("MindHaven is running in the system tray."))
	trayWindow.SetCloseIntercept(func() {
		trayWindow.Hide()
	})
	trayWindow.Hide()
	desktopApp.SetSystemTrayWindow(trayWindow)

	controllerConfig := settings.ControllerConfig()
	overlayWindow := overlay.New(fyneApp, overlay.ConfigFrom(settings), animation.New(controllerConfig.FrameInterval))
	api := client.New(settings.ServerURL, identity, nil)
	chatWindow := chat.New(fyneApp, api)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var sessions *coordinator.Coordinator
	var prefsWindow *preferences.Window
	var trayManager *tray.Manager
	showGames := func(games []client.Game) {
		fyne.Do(func() { trayManager.SetGames(games) })
	}
	trayManager = tray.New(desktopApp, catalog, tray.Icons{
		Idle:   resources.MustLogo("mindhaven.svg"),
		Active: resources.MustLogo("mindhaven-active.svg"),
	}, tray.Callbacks{
		OnBreathing: func(name string) {
			showOnSuccess(overlayWindow, sessions.StartBreathing(name))
		},
		OnAllBreathing: func() {
			showOnSuccess(overlayWindow, sessions.StartAllBreathing())
		},
		OnMeditation: func(title string) {
			showOnSuccess(overlayWindow, sessions.StartMeditation(title))
		},
		OnSound: func(key soundscape.Key) {
			if err := sessions.PlaySound(key); err != nil {
				log.Printf("soundscape: %v", err)
			}
		},
		OnPauseSound: func() {
			sessions.PauseSound()
		},
		OnStopSound: func() {
			sessions.StopSound()
		},
		OnVolume: func(level float64) {
			sessions.SetVolume(level)
			settings.Volume = level
			saveSettings(configDir, settings)
		},
		OnGame: func(game client.Game) {
			openGame(fyneApp, game)
		},
		OnRefreshGames: func() {
			go loadGames(ctx, api, showGames)
		},
		OnStopSession: func() {
			sessions.StopSession()
			overlayWindow.Hide()
		},
		OnShowOverlay: func() {
			showOverlay(sessions, overlayWindow)
		},
		OnChat: func() {
			chatWindow.Show()
		},
		OnPreferences: func() {
			prefsWindow.Show()
		},
		OnQuit: func() {
			sessions.Close()
			cancel()
			fyneApp.Quit()
		},
	})

	sessions = coordinator.New(coordinator.Options{
		Catalog:   catalog,
		MediaDir:  mediaDir,
		Scheduler: timer.NewEngine(),
		Backend:   audio.NewBackend(),
		Config:    controllerConfig,
		Display:   overlayWindow,
		Indicator: trayManager,
		Dispatch:  fyne.Do,
	})
	overlayWindow.SetOnStop(func() {
		sessions.StopSession()
		overlayWindow.Hide()
	})

	prefsWindow = preferences.New(fyneApp, settings, preferences.Callbacks{
		OnSave: func(updated model.Settings) {
			settings = updated
			saveSettings(configDir, settings)
			overlayWindow.UpdateConfig(overlay.ConfigFrom(settings))
			sessions.SetVolume(settings.Volume)
			api.SetBaseURL(settings.ServerURL)
			go loadGames(ctx, api, showGames)
			if err := identity.SetDisplayName(settings.DisplayName); err != nil {
				log.Printf("display name: %v", err)
			}
		},
		OnLogin: func(email, password string) error {
			requestCtx, done := context.WithTimeout(ctx, 15*time.Second)
			defer done()
			_, err := api.Login(requestCtx, email, password)
			return err
		},
		OnSignup: func(name, email, password string) error {
			requestCtx, done := context.WithTimeout(ctx, 15*time.Second)
			defer done()
			_, err := api.Signup(requestCtx, name, email, password)
			return err
		},
		OnLogout: func() {
			if err := identity.Clear(); err != nil {
				log.Printf("logout: %v", err)
			}
		},
	})

	showAccount := func() {
		name := accountName(identity.Get())
		trayManager.SetAccount(name)
		prefsWindow.SetAccount(name)
	}
	showAccount()
	watchIdentity(ctx, identity, func() { fyne.Do(showAccount) })
	go refreshIdentity(ctx, api, identity)
	go loadGames(ctx, api, showGames)

	guard.Listen(func() {
		fyne.Do(func() {
			showOverlay(sessions, overlayWindow)
		})
	})

	go sessions.Run(ctx)
	sessions.Refresh()
	fyneApp.Run()
}

func showOverlay(sessions *coordinator.Coordinator, overlayWindow *overlay.Window) {
	sessions.Refresh()
	sessions.ResumeAnimation()
	overlayWindow.Show()
}

func showOnSuccess(overlayWindow *overlay.Window, err error) {
	if err != nil {
		log.Printf("start session: %v", err)
		return
	}
	overlayWindow.Show()
}

func saveSettings(configDir string, settings model.Settings) {
	if err := storage.SaveSettings(configDir, settings); err != nil {
		log.Printf("save settings: %v", err)
	}
}
