package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"mindhaven/internal/core/notify"
)

const identityFileName = "identity.yaml"

// User is the account snapshot returned by the server at login.
type User struct {
	ID    string `yaml:"id" json:"id"`
	Name  string `yaml:"name" json:"name"`
	Email string `yaml:"email" json:"email"`
}

// Identity is the cached sign-in state of the desktop client.
type Identity struct {
	DisplayName string `yaml:"display_name,omitempty"`
	Token       string `yaml:"token,omitempty"`
	User        *User  `yaml:"user,omitempty"`
}

// SignedIn reports whether a token is held.
func (identity Identity) SignedIn() bool {
	return identity.Token != ""
}

// IdentityEventType defines the type of identity change.
type IdentityEventType string

const (
	IdentitySignedIn  IdentityEventType = "signed_in"
	IdentityRenamed   IdentityEventType = "renamed"
	IdentitySignedOut IdentityEventType = "signed_out"
)

// IdentityEvent is broadcast after every change.
type IdentityEvent struct {
	Type     IdentityEventType
	Identity Identity
}

// IdentityStore keeps the display name, token and user snapshot in memory
// and mirrors every change to a YAML file readable only by the user.
type IdentityStore struct {
	mu       sync.Mutex
	path     string
	identity Identity
	events   notify.Hub[IdentityEvent]
}

// OpenIdentityStore loads the identity file in configDir, if any.
func OpenIdentityStore(configDir string) (*IdentityStore, error) {
	store := &IdentityStore{path: filepath.Join(configDir, identityFileName)}

	rawData, err := os.ReadFile(store.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return store, nil
		}
		return nil, fmt.Errorf("read identity file: %w", err)
	}
	if err := yaml.Unmarshal(rawData, &store.identity); err != nil {
		return nil, fmt.Errorf("parse identity yaml: %w", err)
	}
	return store, nil
}

// Subscribe registers a new observer channel.
func (store *IdentityStore) Subscribe(buffer int) <-chan IdentityEvent {
	return store.events.Subscribe(buffer)
}

// Get returns a copy of the cached identity.
func (store *IdentityStore) Get() Identity {
	store.mu.Lock()
	defer store.mu.Unlock()
	return copyIdentity(store.identity)
}

// Token returns the bearer token, or "" when signed out.
func (store *IdentityStore) Token() string {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.identity.Token
}

// Remember stores a fresh token and user snapshot.
func (store *IdentityStore) Remember(token string, user User) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.identity.Token = token
	store.identity.User = &user
	if store.identity.DisplayName == "" {
		store.identity.DisplayName = user.Name
	}
	return store.commitLocked(IdentitySignedIn)
}

// RefreshUser replaces the user snapshot only while token is still the
// stored token. It reports whether the snapshot was replaced.
func (store *IdentityStore) RefreshUser(token string, user User) (bool, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	if token == "" || store.identity.Token != token {
		return false, nil
	}
	store.identity.User = &user
	return true, store.commitLocked(IdentitySignedIn)
}

// SetDisplayName changes the greeting name.
func (store *IdentityStore) SetDisplayName(name string) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.identity.DisplayName == name {
		return nil
	}
	store.identity.DisplayName = name
	return store.commitLocked(IdentityRenamed)
}

// Clear drops the token and user snapshot. The display name survives.
// Clearing an already signed-out store does nothing.
func (store *IdentityStore) Clear() error {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.identity.Token == "" && store.identity.User == nil {
		return nil
	}
	store.identity.Token = ""
	store.identity.User = nil
	return store.commitLocked(IdentitySignedOut)
}

func (store *IdentityStore) commitLocked(eventType IdentityEventType) error {
	store.events.Emit(IdentityEvent{Type: eventType, Identity: copyIdentity(store.identity)})

	if err := os.MkdirAll(filepath.Dir(store.path), 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	serialized, err := yaml.Marshal(store.identity)
	if err != nil {
		return fmt.Errorf("marshal identity yaml: %w", err)
	}
	if err := os.WriteFile(store.path, serialized, 0o600); err != nil {
		return fmt.Errorf("write identity file: %w", err)
	}
	return nil
}

func copyIdentity(identity Identity) Identity {
	if identity.User != nil {
		user := *identity.User
		identity.User = &user
	}
	return identity
}
