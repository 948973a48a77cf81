package preferences

import (
	"testing"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindhaven/internal/core/model"
)

func TestNormalizeServerURL(t *testing.T) {
	cases := map[string]struct {
		want string
		ok   bool
	}{
		"http://localhost:5000":        {"http://localhost:5000", true},
		" https://haven.example.com/ ": {"https://haven.example.com", true},
		"":                             {"", false},
		"localhost:5000":               {"", false},
		"ftp://haven.example.com":      {"", false},
		"http://":                      {"", false},
	}
	for raw, want := range cases {
		got, ok := normalizeServerURL(raw)
		assert.Equal(t, want.ok, ok, raw)
		assert.Equal(t, want.want, got, raw)
	}
}

func TestSaveCollectsSettings(t *testing.T) {
	app := test.NewTempApp(t)
	var saved *model.Settings
	prefs := New(app, model.DefaultSettings(), Callbacks{
		OnSave: func(settings model.Settings) { saved = &settings },
	})

	assert.Equal(t, "http://localhost:5000", prefs.serverURL.Text)
	assert.InDelta(t, model.DefaultVolume, prefs.volume.Value, 1e-9)

	prefs.displayName.SetText("  Ana  ")
	prefs.serverURL.SetText("not a url")
	prefs.volume.SetValue(0.4)
	prefs.opacity.SetValue(0.6)
	prefs.fullscreen.SetChecked(true)
	prefs.handleSave()

	require.NotNil(t, saved)
	assert.Equal(t, "Ana", saved.DisplayName)
	assert.Equal(t, "http://localhost:5000", saved.ServerURL)
	assert.InDelta(t, 0.4, saved.Volume, 1e-9)
	assert.InDelta(t, 0.6, saved.OverlayOpacity, 1e-9)
	assert.True(t, saved.Fullscreen)
	assert.Equal(t, "http://localhost:5000", prefs.serverURL.Text)
}

func TestAccountValidation(t *testing.T) {
	app := test.NewTempApp(t)
	called := false
	prefs := New(app, model.DefaultSettings(), Callbacks{
		OnLogin:  func(string, string) error { called = true; return nil },
		OnSignup: func(string, string, string) error { called = true; return nil },
	})

	prefs.handleLogin()
	assert.Equal(t, missingCredentials, prefs.feedback.Text)

	prefs.email.SetText("ana@example.com")
	prefs.password.SetText("secret")
	prefs.handleSignup()
	assert.Equal(t, missingName, prefs.feedback.Text)
	assert.False(t, called)
}

func TestAccountLabelAndLogout(t *testing.T) {
	app := test.NewTempApp(t)
	loggedOut := false
	prefs := New(app, model.DefaultSettings(), Callbacks{OnLogout: func() { loggedOut = true }})

	assert.Equal(t, "Not signed in", prefs.accountLabel.Text)
	assert.True(t, prefs.logoutButton.Disabled())

	prefs.SetAccount("Ana")
	assert.Equal(t, "Signed in as Ana", prefs.accountLabel.Text)
	require.False(t, prefs.logoutButton.Disabled())

	test.Tap(prefs.logoutButton)
	assert.True(t, loggedOut)
	assert.Equal(t, "Signed out", prefs.feedback.Text)
}
