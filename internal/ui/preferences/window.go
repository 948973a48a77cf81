package preferences

import (
	"fmt"
	"net/url"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"mindhaven/internal/client"
	"mindhaven/internal/core/model"
)

const (
	missingCredentials = "Email and password are required"
	missingName        = "Name is required to sign up"
)

// Callbacks defines the actions the window delegates. OnLogin and OnSignup
// run off the UI goroutine.
type Callbacks struct {
	OnSave   func(model.Settings)
	OnLogin  func(email, password string) error
	OnSignup func(name, email, password string) error
	OnLogout func()
}

// Window handles the preferences UI.
type Window struct {
	window    fyne.Window
	settings  model.Settings
	callbacks Callbacks

	displayName *widget.Entry
	serverURL   *widget.Entry
	volume      *widget.Slider
	opacity     *widget.Slider
	fullscreen  *widget.Check

	accountLabel *widget.Label
	feedback     *widget.Label
	name         *widget.Entry
	email        *widget.Entry
	password     *widget.Entry
	loginButton  *widget.Button
	signupButton *widget.Button
	logoutButton *widget.Button
}

// New creates a preferences window.
func New(app fyne.App, settings model.Settings, callbacks Callbacks) *Window {
	window := app.NewWindow("MindHaven Preferences")

	prefs := &Window{
		window:       window,
		callbacks:    callbacks,
		displayName:  widget.NewEntry(),
		serverURL:    widget.NewEntry(),
		volume:       widget.NewSlider(0, 1),
		opacity:      widget.NewSlider(0.5, 1),
		fullscreen:   widget.NewCheck("Fullscreen overlay", nil),
		accountLabel: widget.NewLabel(""),
		feedback:     widget.NewLabel(""),
		name:         widget.NewEntry(),
		email:        widget.NewEntry(),
		password:     widget.NewPasswordEntry(),
	}
	prefs.volume.Step = 0.05
	prefs.opacity.Step = 0.01
	prefs.displayName.SetPlaceHolder("Shown in chat")
	prefs.name.SetPlaceHolder("Name (sign up only)")
	prefs.email.SetPlaceHolder("Email")
	prefs.password.SetPlaceHolder("Password")
	prefs.feedback.Wrapping = fyne.TextWrapWord

	prefs.loginButton = widget.NewButton("Log in", prefs.handleLogin)
	prefs.signupButton = widget.NewButton("Sign up", prefs.handleSignup)
	prefs.logoutButton = widget.NewButton("Log out", prefs.handleLogout)

	general := container.NewVBox(
		widget.NewLabelWithStyle("General", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewForm(
			widget.NewFormItem("Display name", prefs.displayName),
			widget.NewFormItem("Server", prefs.serverURL),
		),
		widget.NewLabel("Volume"),
		prefs.volume,
		widget.NewLabel("Overlay opacity"),
		prefs.opacity,
		prefs.fullscreen,
	)
	account := container.NewVBox(
		widget.NewLabelWithStyle("Account", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		prefs.accountLabel,
		prefs.name,
		prefs.email,
		prefs.password,
		container.NewHBox(prefs.loginButton, prefs.signupButton, layout.NewSpacer(), prefs.logoutButton),
		prefs.feedback,
	)

	saveButton := widget.NewButton("Save", prefs.handleSave)
	cancelButton := widget.NewButton("Cancel", window.Hide)
	buttons := container.NewHBox(saveButton, layout.NewSpacer(), cancelButton)

	content := container.NewBorder(nil, buttons, nil, nil, container.NewVBox(general, widget.NewSeparator(), account))
	window.SetContent(content)
	window.SetCloseIntercept(window.Hide)
	window.Resize(fyne.NewSize(420, 560))

	prefs.UpdateSettings(settings)
	prefs.SetAccount("")
	return prefs
}

// Show displays the preferences window.
func (prefs *Window) Show() {
	prefs.window.Show()
	prefs.window.RequestFocus()
}

// UpdateSettings replaces window values.
func (prefs *Window) UpdateSettings(settings model.Settings) {
	prefs.settings = settings
	prefs.displayName.SetText(settings.DisplayName)
	prefs.serverURL.SetText(settings.ServerURL)
	prefs.volume.SetValue(settings.Volume)
	prefs.opacity.SetValue(settings.OverlayOpacity)
	prefs.fullscreen.SetChecked(settings.Fullscreen)
}

// SetAccount shows the signed-in user. An empty name means signed out.
func (prefs *Window) SetAccount(name string) {
	if name == "" {
		prefs.accountLabel.SetText("Not signed in")
		prefs.logoutButton.Disable()
		return
	}
	prefs.accountLabel.SetText(fmt.Sprintf("Signed in as %s", name))
	prefs.logoutButton.Enable()
}

func (prefs *Window) handleSave() {
	settings := prefs.settings
	settings.DisplayName = strings.TrimSpace(prefs.displayName.Text)
	if serverURL, ok := normalizeServerURL(prefs.serverURL.Text); ok {
		settings.ServerURL = serverURL
	}
	settings.Volume = prefs.volume.Value
	settings.OverlayOpacity = prefs.opacity.Value
	settings.Fullscreen = prefs.fullscreen.Checked

	prefs.UpdateSettings(settings)
	if prefs.callbacks.OnSave != nil {
		prefs.callbacks.OnSave(settings)
	}
	prefs.window.Hide()
}

func (prefs *Window) handleLogin() {
	email, password := strings.TrimSpace(prefs.email.Text), prefs.password.Text
	if email == "" || password == "" {
		prefs.feedback.SetText(missingCredentials)
		return
	}
	if prefs.callbacks.OnLogin == nil {
		return
	}
	prefs.submit("Login failed", func() error {
		return prefs.callbacks.OnLogin(email, password)
	})
}

func (prefs *Window) handleSignup() {
	name := strings.TrimSpace(prefs.name.Text)
	email, password := strings.TrimSpace(prefs.email.Text), prefs.password.Text
	if email == "" || password == "" {
		prefs.feedback.SetText(missingCredentials)
		return
	}
	if name == "" {
		prefs.feedback.SetText(missingName)
		return
	}
	if prefs.callbacks.OnSignup == nil {
		return
	}
	prefs.submit("Signup failed", func() error {
		return prefs.callbacks.OnSignup(name, email, password)
	})
}

func (prefs *Window) handleLogout() {
	if prefs.callbacks.OnLogout != nil {
		prefs.callbacks.OnLogout()
	}
	prefs.feedback.SetText("Signed out")
}

// submit runs an account request in the background and reports the result
// back on the UI goroutine.
func (prefs *Window) submit(fallback string, request func() error) {
	prefs.setBusy(true)
	prefs.feedback.SetText("Contacting server...")
	go func() {
		err := request()
		fyne.Do(func() {
			prefs.setBusy(false)
			if err != nil {
				prefs.feedback.SetText(client.Message(err, fallback))
				return
			}
			prefs.password.SetText("")
			prefs.feedback.SetText("Welcome!")
		})
	}()
}

func (prefs *Window) setBusy(busy bool) {
	if busy {
		prefs.loginButton.Disable()
		prefs.signupButton.Disable()
		return
	}
	prefs.loginButton.Enable()
	prefs.signupButton.Enable()
}

func normalizeServerURL(raw string) (string, bool) {
	trimmed := strings.TrimRight(strings.TrimSpace(raw), "/")
	if trimmed == "" {
		return "", false
	}
	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Host == "" {
		return "", false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", false
	}
	return trimmed, true
}
