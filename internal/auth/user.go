// Package auth issues bearer tokens and manages user credentials.
package auth

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInvalidInput indicates a missing or malformed signup/login field.
	ErrInvalidInput = errors.New("invalid input")
	// ErrEmailTaken indicates signup with an email that already has an account.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials indicates an unknown email or wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound indicates no user document exists for an id or email.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidToken indicates a token that failed signature or expiry checks.
	ErrInvalidToken = errors.New("invalid token")
)

// User is the stored account document.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// PublicUser is the account view returned to clients.
type PublicUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Public strips credentials from user.
func (user User) Public() PublicUser {
	return PublicUser{ID: user.ID, Name: user.Name, Email: user.Email}
}

// UserStore persists user documents. Implementations return ErrEmailTaken
// on duplicate emails and ErrUserNotFound for missing users.
type UserStore interface {
	CreateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
}
