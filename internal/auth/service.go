package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Session is returned by signup and login.
type Session struct {
	Token string     `json:"token"`
	User  PublicUser `json:"user"`
}

// SignupInput carries the signup form.
type SignupInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginInput carries the login form.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Service implements signup, login and profile lookup.
type Service struct {
	store      UserStore
	issuer     *Issuer
	now        func() time.Time
	newID      func() string
	bcryptCost int
}

// Option configures a Service.
type Option func(*Service)

// WithBcryptCost overrides the password hashing cost.
func WithBcryptCost(cost int) Option {
	return func(service *Service) { service.bcryptCost = cost }
}

// NewService wires a user store to a token issuer.
func NewService(store UserStore, issuer *Issuer, options ...Option) *Service {
	service := &Service{
		store:  store,
		issuer: issuer,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, option := range options {
		option(service)
	}
	return service
}

// Verify resolves a bearer token to a user id.
func (service *Service) Verify(token string) (string, error) {
	return service.issuer.Verify(token)
}

// Signup creates an account and signs it in.
func (service *Service) Signup(ctx context.Context, input SignupInput) (Session, error) {
	name := strings.TrimSpace(input.Name)
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return Session{}, err
	}
	if name == "" {
		return Session{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if input.Password == "" {
		return Session{}, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	if len(input.Password) > MaxPasswordBytes {
		return Session{}, fmt.Errorf("%w: password too long", ErrInvalidInput)
	}

	hash, err := HashPassword(input.Password, service.bcryptCost)
	if err != nil {
		return Session{}, err
	}
	user := User{
		ID:           service.newID(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    service.now().UTC(),
	}
	if err := service.store.CreateUser(ctx, user); err != nil {
		return Session{}, fmt.Errorf("create user: %w", err)
	}
	return service.sessionFor(user)
}

// Login checks credentials and issues a token.
func (service *Service) Login(ctx context.Context, input LoginInput) (Session, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return Session{}, err
	}
	if input.Password == "" {
		return Session{}, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}

	user, err := service.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, fmt.Errorf("get user: %w", err)
	}
	if !CheckPassword(user.PasswordHash, input.Password) {
		return Session{}, ErrInvalidCredentials
	}
	return service.sessionFor(user)
}

// Me returns the public profile of userID.
func (service *Service) Me(ctx context.Context, userID string) (PublicUser, error) {
	user, err := service.store.GetUser(ctx, userID)
	if err != nil {
		return PublicUser{}, fmt.Errorf("get user: %w", err)
	}
	return user.Public(), nil
}

func (service *Service) sessionFor(user User) (Session, error) {
	token, err := service.issuer.Issue(user.ID)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, User: user.Public()}, nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", fmt.Errorf("%w: email is not valid", ErrInvalidInput)
	}
	return email, nil
}
