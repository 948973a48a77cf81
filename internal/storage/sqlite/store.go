// Package sqlite stores user documents in SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"mindhaven/internal/auth"
	"mindhaven/internal/storage/sqlite/migrations"
)

// Store persists users as JSON documents keyed by id and email.
type Store struct {
	sqlDB *sql.DB
}

// Open opens the database at path and applies pending migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	store, _, err := open(ctx, path)
	return store, err
}

// Migrate applies pending migrations and reports which ran.
func Migrate(ctx context.Context, path string) ([]string, error) {
	store, applied, err := open(ctx, path)
	if err != nil {
		return nil, err
	}
	return applied, store.Close()
}

func open(ctx context.Context, path string) (*Store, []string, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	applied, err := applyMigrations(ctx, sqlDB, migrations.FS)
	if err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, applied, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// CreateUser inserts a new user document.
func (s *Store) CreateUser(ctx context.Context, user auth.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(user.ID) == "" {
		return fmt.Errorf("user id is required")
	}
	if strings.TrimSpace(user.Email) == "" {
		return fmt.Errorf("user email is required")
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	document, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal user document: %w", err)
	}

	now := time.Now().UTC().UnixMilli()
	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO users (id, email, document, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		string(document),
		user.CreatedAt.UTC().UnixMilli(),
		now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return auth.ErrEmailTaken
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetUser returns the user with id.
func (s *Store) GetUser(ctx context.Context, id string) (auth.User, error) {
	return s.getUser(ctx, `SELECT document FROM users WHERE id = ?`, id)
}

// GetUserByEmail returns the user registered with email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (auth.User, error) {
	return s.getUser(ctx, `SELECT document FROM users WHERE email = ?`, email)
}

func (s *Store) getUser(ctx context.Context, query, key string) (auth.User, error) {
	if err := ctx.Err(); err != nil {
		return auth.User{}, err
	}
	var document string
	err := s.sqlDB.QueryRowContext(ctx, query, key).Scan(&document)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.User{}, auth.ErrUserNotFound
	}
	if err != nil {
		return auth.User{}, fmt.Errorf("get user: %w", err)
	}

	var user auth.User
	if err := json.Unmarshal([]byte(document), &user); err != nil {
		return auth.User{}, fmt.Errorf("parse user document: %w", err)
	}
	return user, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
