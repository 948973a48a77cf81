package server

import (
	"context"
	"errors"
	"net/http"

	"mindhaven/internal/auth"
	"mindhaven/internal/platform/requestctx"
)

// Accounts is the auth surface the handlers need.
type Accounts interface {
	TokenVerifier
	Signup(ctx context.Context, input auth.SignupInput) (auth.Session, error)
	Login(ctx context.Context, input auth.LoginInput) (auth.Session, error)
	Me(ctx context.Context, userID string) (auth.PublicUser, error)
}

type meResponse struct {
	User auth.PublicUser `json:"user"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var input auth.SignupInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	session, err := s.accounts.Signup(r.Context(), input)
	if err != nil {
		s.writeAuthError(w, r, "signup", err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var input auth.LoginInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	session, err := s.accounts.Login(r.Context(), input)
	if err != nil {
		s.writeAuthError(w, r, "login", err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.accounts.Me(r.Context(), requestctx.UserIDFromContext(r.Context()))
	if err != nil {
		s.writeAuthError(w, r, "me", err)
		return
	}
	writeJSON(w, http.StatusOK, meResponse{User: user})
}

func (s *Server) writeAuthError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidInput):
		writeMessage(w, http.StatusBadRequest, "Name, email and password are required")
	case errors.Is(err, auth.ErrEmailTaken):
		writeMessage(w, http.StatusConflict, "Email already registered")
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeMessage(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, auth.ErrUserNotFound):
		writeMessage(w, http.StatusNotFound, "User not found")
	default:
		s.logger.ErrorContext(r.Context(), "auth failure", "operation", operation, "error", err)
		writeMessage(w, http.StatusInternalServerError, "Server error")
	}
}
