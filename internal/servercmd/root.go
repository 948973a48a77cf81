// Package servercmd is the command line of the MindHaven server.
package servercmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"mindhaven/internal/auth"
	"mindhaven/internal/config"
	"mindhaven/internal/server"
	"mindhaven/internal/storage/sqlite"
	"mindhaven/internal/telemetry"
)

const serviceName = "mindhaven-server"

// NewRootCommand builds the command tree. Running it without a subcommand
// serves the API.
func NewRootCommand() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           serviceName,
		Short:         "MindHaven API server: auth, chat relay and game directory",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return config.LoadDotEnv(envFile)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd)
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional dotenv file loaded before reading the environment")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(cmd)
		},
	})
	return root
}

// Execute runs the command line until SIGINT or SIGTERM. Exits with code 1
// on error.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		stop()
		os.Exit(1)
	}
}

func runMigrate(cmd *cobra.Command) error {
	cfg, err := config.LoadServer()
	if err != nil {
		return err
	}
	applied, err := sqlite.Migrate(cmd.Context(), cfg.DBPath)
	if err != nil {
		return fmt.Errorf("migrate %s: %w", cfg.DBPath, err)
	}
	out := cmd.OutOrStdout()
	if len(applied) == 0 {
		fmt.Fprintln(out, "no migrations to apply")
		return nil
	}
	for _, name := range applied {
		fmt.Fprintf(out, "applied %s\n", name)
	}
	return nil
}

func runServe(cmd *cobra.Command) error {
	ctx := cmd.Context()
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))

	cfg, err := config.LoadServer()
	if err != nil {
		return err
	}
	chatURL, err := cfg.ChatURL()
	if err != nil {
		return err
	}

	shutdownTracing, err := telemetry.Setup(ctx, serviceName, cfg.OTelEndpoint, cfg.OTelEnabled)
	if err != nil {
		logger.Warn("tracing disabled", "error", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("tracing shutdown", "error", err)
		}
	}()

	store, err := sqlite.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open user store: %w", err)
	}
	defer store.Close()

	accounts := auth.NewService(store, auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL))
	api, err := server.New(server.Options{
		Accounts:   accounts,
		ChatURL:    chatURL,
		HTTPClient: &http.Client{Timeout: cfg.ChatTimeout},
		LoadGames:  config.LoadGames,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("build server: %w", err)
	}

	logger.Info("starting server", "port", cfg.Port, "db", cfg.DBPath, "chat", chatURL)
	return server.ListenAndServe(ctx, cfg.Addr(), api.Handler(), logger)
}
