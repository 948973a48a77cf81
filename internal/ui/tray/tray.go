package tray

import (
	"fmt"
	"math"
	"slices"

	"fyne.io/fyne/v2"

	"mindhaven/internal/client"
	"mindhaven/internal/core/soundscape"
	"mindhaven/resources"
)

// VolumeSteps are the levels offered in the volume submenu.
var VolumeSteps = []float64{0, 0.25, 0.5, 0.7, 1}

// Callbacks defines tray action handlers.
type Callbacks struct {
	OnBreathing    func(name string)
	OnAllBreathing func()
	OnMeditation   func(title string)
	OnSound        func(key soundscape.Key)
	OnPauseSound   func()
	OnStopSound    func()
	OnVolume       func(level float64)
	OnGame         func(game client.Game)
	OnRefreshGames func()
	OnStopSession  func()
	OnShowOverlay  func()
	OnChat         func()
	OnPreferences  func()
	OnQuit         func()
}

// Host is the part of desktop.App the tray needs.
type Host interface {
	SetSystemTrayMenu(menu *fyne.Menu)
	SetSystemTrayIcon(icon fyne.Resource)
}

// Icons are swapped when a session starts or stops.
type Icons struct {
	Idle   fyne.Resource
	Active fyne.Resource
}

// Manager handles system tray state.
type Manager struct {
	host      Host
	catalog   resources.ContentCatalog
	icons     Icons
	callbacks Callbacks

	statusLabel  string
	account      string
	sound        soundscape.Key
	soundPlaying bool
	volume       float64
	sessionLive  bool
	games        []client.Game
	menu         *fyne.Menu
}

// New creates a tray manager and installs its menu and idle icon.
func New(host Host, catalog resources.ContentCatalog, icons Icons, callbacks Callbacks) *Manager {
	manager := &Manager{
		host:        host,
		catalog:     catalog,
		icons:       icons,
		callbacks:   callbacks,
		statusLabel: "idle",
		volume:      -1,
	}
	manager.refreshIcon()
	manager.refreshMenu()
	return manager
}

// Menu returns the most recently installed menu.
func (manager *Manager) Menu() *fyne.Menu {
	return manager.menu
}

// SetStatus updates the status label. Unchanged values do not rebuild the menu.
func (manager *Manager) SetStatus(status string) {
	if manager.statusLabel == status {
		return
	}
	manager.statusLabel = status
	manager.refreshMenu()
}

// SetSessionActive toggles the "Stop session" item and the tray icon.
func (manager *Manager) SetSessionActive(active bool) {
	if manager.sessionLive == active {
		return
	}
	manager.sessionLive = active
	manager.refreshIcon()
	manager.refreshMenu()
}

// SetSound marks the active soundscape. An empty key clears it.
func (manager *Manager) SetSound(key soundscape.Key, playing bool) {
	playing = playing && key != ""
	if manager.sound == key && manager.soundPlaying == playing {
		return
	}
	manager.sound = key
	manager.soundPlaying = playing
	manager.refreshMenu()
}

// SetVolume checks the matching volume step.
func (manager *Manager) SetVolume(level float64) {
	if manager.volume == level {
		return
	}
	manager.volume = level
	manager.refreshMenu()
}

// SetGames replaces the game directory entries.
func (manager *Manager) SetGames(games []client.Game) {
	if slices.Equal(manager.games, games) {
		return
	}
	manager.games = slices.Clone(games)
	manager.refreshMenu()
}

// SetAccount shows who is signed in. An empty name means signed out.
func (manager *Manager) SetAccount(name string) {
	if manager.account == name {
		return
	}
	manager.account = name
	manager.refreshMenu()
}

func (manager *Manager) refreshIcon() {
	icon := manager.icons.Idle
	if manager.sessionLive && manager.icons.Active != nil {
		icon = manager.icons.Active
	}
	if manager.host != nil && icon != nil {
		manager.host.SetSystemTrayIcon(icon)
	}
}

func (manager *Manager) refreshMenu() {
	manager.menu = manager.buildMenu()
	if manager.host != nil {
		manager.host.SetSystemTrayMenu(manager.menu)
	}
}

func (manager *Manager) buildMenu() *fyne.Menu {
	status := fyne.NewMenuItem(fmt.Sprintf("Status: %s", manager.statusLabel), nil)
	status.Disabled = true

	account := fyne.NewMenuItem("Not signed in", nil)
	if manager.account != "" {
		account.Label = fmt.Sprintf("Signed in as %s", manager.account)
	}
	account.Disabled = true

	stopSession := fyne.NewMenuItem("Stop session", func() {
		if manager.callbacks.OnStopSession != nil {
			manager.callbacks.OnStopSession()
		}
	})
	stopSession.Disabled = !manager.sessionLive

	return fyne.NewMenu("MindHaven",
		status,
		account,
		fyne.NewMenuItemSeparator(),
		manager.breathingItem(),
		manager.meditationItem(),
		manager.soundscapeItem(),
		manager.volumeItem(),
		manager.gamesItem(),
		stopSession,
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Show session", func() {
			if manager.callbacks.OnShowOverlay != nil {
				manager.callbacks.OnShowOverlay()
			}
		}),
		fyne.NewMenuItem("Chat", func() {
			if manager.callbacks.OnChat != nil {
				manager.callbacks.OnChat()
			}
		}),
		fyne.NewMenuItem("Preferences", func() {
			if manager.callbacks.OnPreferences != nil {
				manager.callbacks.OnPreferences()
			}
		}),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", func() {
			if manager.callbacks.OnQuit != nil {
				manager.callbacks.OnQuit()
			}
		}),
	)
}

func (manager *Manager) breathingItem() *fyne.MenuItem {
	items := make([]*fyne.MenuItem, 0, len(manager.catalog.Breathing)+2)
	for _, exercise := range manager.catalog.Breathing {
		name := exercise.Name
		items = append(items, fyne.NewMenuItem(name, func() {
			if manager.callbacks.OnBreathing != nil {
				manager.callbacks.OnBreathing(name)
			}
		}))
	}
	items = append(items, fyne.NewMenuItemSeparator(), fyne.NewMenuItem("All patterns", func() {
		if manager.callbacks.OnAllBreathing != nil {
			manager.callbacks.OnAllBreathing()
		}
	}))

	item := fyne.NewMenuItem("Breathing", nil)
	item.ChildMenu = fyne.NewMenu("", items...)
	return item
}

func (manager *Manager) meditationItem() *fyne.MenuItem {
	items := make([]*fyne.MenuItem, 0, len(manager.catalog.Meditations))
	for _, session := range manager.catalog.Meditations {
		title := session.Title
		label := fmt.Sprintf("%s (%d min)", title, session.Minutes)
		items = append(items, fyne.NewMenuItem(label, func() {
			if manager.callbacks.OnMeditation != nil {
				manager.callbacks.OnMeditation(title)
			}
		}))
	}

	item := fyne.NewMenuItem("Meditation", nil)
	item.ChildMenu = fyne.NewMenu("", items...)
	return item
}

func (manager *Manager) soundscapeItem() *fyne.MenuItem {
	items := make([]*fyne.MenuItem, 0, len(manager.catalog.Soundscapes)+3)
	for _, sound := range manager.catalog.Soundscapes {
		key := sound.Key
		entry := fyne.NewMenuItem(sound.Name, func() {
			if manager.callbacks.OnSound != nil {
				manager.callbacks.OnSound(key)
			}
		})
		entry.Checked = key == manager.sound && manager.soundPlaying
		items = append(items, entry)
	}

	pause := fyne.NewMenuItem("Pause", func() {
		if manager.callbacks.OnPauseSound != nil {
			manager.callbacks.OnPauseSound()
		}
	})
	pause.Disabled = !manager.soundPlaying
	stop := fyne.NewMenuItem("Stop", func() {
		if manager.callbacks.OnStopSound != nil {
			manager.callbacks.OnStopSound()
		}
	})
	stop.Disabled = manager.sound == ""
	items = append(items, fyne.NewMenuItemSeparator(), pause, stop)

	item := fyne.NewMenuItem("Soundscapes", nil)
	item.ChildMenu = fyne.NewMenu("", items...)
	return item
}

func (manager *Manager) volumeItem() *fyne.MenuItem {
	items := make([]*fyne.MenuItem, 0, len(VolumeSteps))
	for _, level := range VolumeSteps {
		step := level
		entry := fyne.NewMenuItem(volumeLabel(step), func() {
			if manager.callbacks.OnVolume != nil {
				manager.callbacks.OnVolume(step)
			}
		})
		entry.Checked = math.Abs(step-manager.volume) < 0.005
		items = append(items, entry)
	}

	item := fyne.NewMenuItem("Volume", nil)
	item.ChildMenu = fyne.NewMenu("", items...)
	return item
}

func (manager *Manager) gamesItem() *fyne.MenuItem {
	items := make([]*fyne.MenuItem, 0, len(manager.games)+2)
	for _, game := range manager.games {
		entry := game
		items = append(items, fyne.NewMenuItem(entry.Title, func() {
			if manager.callbacks.OnGame != nil {
				manager.callbacks.OnGame(entry)
			}
		}))
	}
	if len(items) == 0 {
		empty := fyne.NewMenuItem("No games available", nil)
		empty.Disabled = true
		items = append(items, empty)
	}
	items = append(items, fyne.NewMenuItemSeparator(), fyne.NewMenuItem("Refresh", func() {
		if manager.callbacks.OnRefreshGames != nil {
			manager.callbacks.OnRefreshGames()
		}
	}))

	item := fyne.NewMenuItem("Games", nil)
	item.ChildMenu = fyne.NewMenu("", items...)
	return item
}

func volumeLabel(level float64) string {
	if level <= 0 {
		return "Mute"
	}
	return fmt.Sprintf("%d%%", int(math.Round(level*100)))
}
