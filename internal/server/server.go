// Package server implements the MindHaven HTTP API: auth, chat relay and
// the game directory.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"

	"mindhaven/internal/config"
	"mindhaven/internal/telemetry"
)

const (
	maxBodyBytes = 1 << 20

	// ReadHeaderTimeout limits how long the server waits for request headers.
	ReadHeaderTimeout = 5 * time.Second
	// ShutdownTimeout limits how long in-flight requests may finish.
	ShutdownTimeout = 5 * time.Second
)

// Options wires the server's collaborators.
type Options struct {
	Accounts   Accounts
	ChatURL    string
	HTTPClient *http.Client
	LoadGames  func() (config.Games, error)
	Logger     *slog.Logger
	Tracing    trace.TracerProvider
}

// Server routes API requests.
type Server struct {
	accounts   Accounts
	chatURL    string
	httpClient *http.Client
	loadGames  func() (config.Games, error)
	logger     *slog.Logger
	tracing    trace.TracerProvider
}

// New creates a server from options, filling defaults for optional fields.
func New(options Options) (*Server, error) {
	if options.Accounts == nil {
		return nil, errors.New("accounts are required")
	}
	if options.ChatURL == "" {
		return nil, errors.New("chat url is required")
	}
	if options.HTTPClient == nil {
		options.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if options.LoadGames == nil {
		options.LoadGames = config.LoadGames
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	return &Server{
		accounts:   options.Accounts,
		chatURL:    options.ChatURL,
		httpClient: options.HTTPClient,
		loadGames:  options.LoadGames,
		logger:     options.Logger,
		tracing:    options.Tracing,
	}, nil
}

// Handler returns the fully wrapped route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleHealth)
	mux.HandleFunc("POST /api/auth/signup", s.handleSignup)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.Handle("GET /api/auth/me", RequireBearer(s.accounts, http.HandlerFunc(s.handleMe)))
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("GET /api/games", s.handleGames)

	var handler http.Handler = mux
	handler = allowCORS(handler)
	handler = recoverPanics(s.logger, handler)
	handler = logRequests(s.logger, handler)
	return telemetry.Middleware(s.tracing, handler)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// ListenAndServe runs handler on addr until ctx ends, then shuts down
// gracefully.
func ListenAndServe(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return Serve(ctx, listener, handler, logger)
}

// Serve runs handler on listener until ctx ends.
func Serve(ctx context.Context, listener net.Listener, handler http.Handler, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	httpServer := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: ReadHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	logger.Info("server listening", "addr", listener.Addr().String())
	go func() {
		serveErr <- httpServer.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		err := httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}
