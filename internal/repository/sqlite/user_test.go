package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/recipe-api/internal/apperror"
	"github.com/sakif/recipe-api/internal/model"
)

// newTestDB opens a fresh in-memory database that is closed when the test ends.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	require.NoError(t, err, "failed to create test db")
	t.Cleanup(func() { db.Close() })
	return db
}

// createTestUser is a test helper that creates an active user and fails the
// test if it errors.
func createTestUser(t *testing.T, db *DB, email string) *model.User {
	t.Helper()
	user := &model.User{
		Email:        email,
		PasswordHash: "$2a$04$not-a-real-hash",
		IsActive:     true,
	}
	require.NoError(t, db.CreateUser(context.Background(), user))
	return user
}

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestCreateUser(t *testing.T) {
	db := newTestDB(t)

	user := &model.User{
		Email:        "ksarthak4ever@gmail.com",
		Name:         "Sarthak",
		PasswordHash: "hash",
		IsActive:     true,
		IsStaff:      true,
	}
	require.NoError(t, db.CreateUser(context.Background(), user))

	assert.NotZero(t, user.ID, "CreateUser() should set user.ID")
	assert.False(t, user.CreatedAt.IsZero(), "CreateUser() should set user.CreatedAt")

	found, err := db.GetUserByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "ksarthak4ever@gmail.com", found.Email)
	assert.Equal(t, "Sarthak", found.Name)
	assert.Equal(t, "hash", found.PasswordHash)
	assert.True(t, found.IsActive)
	assert.True(t, found.IsStaff)
	assert.False(t, found.IsSuperuser)
}

func TestCreateUser_IDsIncrease(t *testing.T) {
	db := newTestDB(t)

	first := createTestUser(t, db, "first@example.com")
	second := createTestUser(t, db, "second@example.com")

	assert.Greater(t, second.ID, first.ID)
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "dup@example.com")

	err := db.CreateUser(context.Background(), &model.User{Email: "dup@example.com", PasswordHash: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

// =========================================================================
// LOOKUP TESTS
// =========================================================================

func TestGetUserByEmail(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, "lookup@example.com")

	found, err := db.GetUserByEmail(context.Background(), "lookup@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
}

func TestGetUser_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetUserByID(context.Background(), 12345)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = db.GetUserByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

// =========================================================================
// UPDATE TESTS
// =========================================================================

func TestUpdateUser(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "promote@example.com")

	user.Name = "Promoted"
	user.IsStaff = true
	user.IsSuperuser = true
	require.NoError(t, db.UpdateUser(context.Background(), user))

	found, err := db.GetUserByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Promoted", found.Name)
	assert.True(t, found.IsStaff)
	assert.True(t, found.IsSuperuser)
}

func TestUpdateUser_NotFound(t *testing.T) {
	db := newTestDB(t)

	err := db.UpdateUser(context.Background(), &model.User{ID: 999, Email: "ghost@example.com"})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestUpdateUser_EmailConflict(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "taken@example.com")
	other := createTestUser(t, db, "other@example.com")

	other.Email = "taken@example.com"
	err := db.UpdateUser(context.Background(), other)
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestPing(t *testing.T) {
	db := newTestDB(t)
	assert.NoError(t, db.Ping(context.Background()))
}

func TestNew_PragmasApplyToEveryConnection(t *testing.T) {
	db, err := New(filepath.Join(t.TempDir(), "recipes.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	// Hold two connections at once so the pool has to open a second one.
	first, err := db.conn.Conn(ctx)
	require.NoError(t, err)
	defer first.Close()
	second, err := db.conn.Conn(ctx)
	require.NoError(t, err)
	defer second.Close()

	for _, c := range []interface {
		QueryRowContext(context.Context, string, ...any) *sql.Row
	}{first, second} {
		var foreignKeys, busyTimeout int
		require.NoError(t, c.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&foreignKeys))
		require.NoError(t, c.QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&busyTimeout))
		assert.Equal(t, 1, foreignKeys)
		assert.Equal(t, 5000, busyTimeout)
	}
}
