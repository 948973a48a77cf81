package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindhaven/internal/auth"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestCreateAndGetUser(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	created := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	user := auth.User{ID: "u1", Name: "Ada", Email: "ada@example.com", PasswordHash: "hash", CreatedAt: created}

	require.NoError(t, store.CreateUser(ctx, user))

	byID, err := store.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, user, byID)

	byEmail, err := store.GetUserByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, user, byEmail)
}

func TestDuplicateEmailIsRejected(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	require.NoError(t, store.CreateUser(ctx, auth.User{ID: "u1", Email: "same@example.com"}))

	err := store.CreateUser(ctx, auth.User{ID: "u2", Email: "same@example.com"})
	assert.ErrorIs(t, err, auth.ErrEmailTaken)
}

func TestMissingUser(t *testing.T) {
	store := openTestStore(t)

	_, err := store.GetUser(context.Background(), "ghost")
	assert.ErrorIs(t, err, auth.ErrUserNotFound)

	_, err = store.GetUserByEmail(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, auth.ErrUserNotFound)
}

func TestMigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "users.db")

	applied, err := Migrate(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_users.sql"}, applied)

	applied, err = Migrate(ctx, path)
	require.NoError(t, err)
	assert.Empty(t, applied)
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(context.Background(), " ")
	assert.Error(t, err)
}

func TestExtractUpMigration(t *testing.T) {
	content := "-- +migrate Up\nCREATE TABLE x (id TEXT);\n-- +migrate Down\nDROP TABLE x;\n"
	assert.Equal(t, "\nCREATE TABLE x (id TEXT);\n", extractUpMigration(content))
	assert.Equal(t, "SELECT 1;", extractUpMigration("SELECT 1;"))
}

func TestServiceOverSQLite(t *testing.T) {
	ctx := context.Background()
	service := auth.NewService(openTestStore(t), auth.NewIssuer("secret", time.Hour), auth.WithBcryptCost(4))

	_, err := service.Signup(ctx, auth.SignupInput{Name: "Lin", Email: "lin@example.com", Password: "pw"})
	require.NoError(t, err)
	session, err := service.Login(ctx, auth.LoginInput{Email: "lin@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "Lin", session.User.Name)
}
