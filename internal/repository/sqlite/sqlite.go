// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// modernc.org/sqlite is a pure Go translation of SQLite, so the binary needs
// no C toolchain. All access goes through database/sql:
//
//  1. sql.Open(driverName, dataSourceName) → creates a pool
//  2. db.QueryContext / db.ExecContext     → runs queries
//  3. rows.Scan(&field1, &field2)          → reads results into Go variables
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and implements every repository
// interface in package repository.
type DB struct {
	conn *sql.DB
}

// New opens the SQLite database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/recipes.db"  → file-based database (persistent)
//   - ":memory:"         → in-memory database (tests, lost on close)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dataSourceName(dbPath))
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// WHY ONE CONNECTION FOR ":memory:"?
	// sql.DB is a pool, and every connection the pool opens to ":memory:"
	// gets its own private, empty database. A second connection would see no
	// tables and none of the first one's rows, so tests would fail at random
	// depending on which connection a query happened to get.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers proceed while a write is in progress. Unlike the
	// per-connection pragmas it is stored in the database file itself.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// dataSourceName appends the per-connection pragmas to dbPath.
//
// WHY IN THE DSN?
// foreign_keys and busy_timeout apply to a single connection. Running them
// once with conn.Exec configures whichever pooled connection served that
// call and leaves the rest with foreign keys OFF (no ON DELETE CASCADE) and
// no busy wait. The driver runs every _pragma parameter on each new
// connection.
func dataSourceName(dbPath string) string {
	return dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping verifies the database is reachable. Used by the health check.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// migrate creates the schema. CREATE ... IF NOT EXISTS makes it safe to run
// on every start.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			email        TEXT NOT NULL UNIQUE,
			name         TEXT NOT NULL DEFAULT '',
			password     TEXT NOT NULL,
			is_active    INTEGER NOT NULL DEFAULT 1,
			is_staff     INTEGER NOT NULL DEFAULT 0,
			is_superuser INTEGER NOT NULL DEFAULT 0,
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS tags (
			id      INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			name    TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_tags_user_id ON tags(user_id);

		CREATE TABLE IF NOT EXISTS ingredients (
			id      INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			name    TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_ingredients_user_id ON ingredients(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating tags/ingredients tables: %w", err)
	}

	// price is TEXT so the decimal value round-trips without float rounding.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS recipes (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id      INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			title        TEXT NOT NULL,
			time_minutes INTEGER NOT NULL,
			price        TEXT NOT NULL,
			link         TEXT NOT NULL DEFAULT '',
			image        TEXT NOT NULL DEFAULT '',
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_recipes_user_id ON recipes(user_id);

		CREATE TABLE IF NOT EXISTS recipe_tags (
			recipe_id INTEGER NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
			tag_id    INTEGER NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
			PRIMARY KEY (recipe_id, tag_id)
		);
		CREATE INDEX IF NOT EXISTS idx_recipe_tags_tag_id ON recipe_tags(tag_id);

		CREATE TABLE IF NOT EXISTS recipe_ingredients (
			recipe_id     INTEGER NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
			ingredient_id INTEGER NOT NULL REFERENCES ingredients(id) ON DELETE CASCADE,
			PRIMARY KEY (recipe_id, ingredient_id)
		);
		CREATE INDEX IF NOT EXISTS idx_recipe_ingredients_ingredient_id ON recipe_ingredients(ingredient_id);
	`)
	if err != nil {
		return fmt.Errorf("creating recipe tables: %w", err)
	}

	return nil
}

// withTx runs fn inside a transaction, rolling back if fn returns an error.
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing transaction: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
// The driver's error text is stable ("UNIQUE constraint failed: users.email").
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// placeholders returns "?, ?, ?" for n parameters, plus the ids as []any.
func placeholders(ids []int64) (string, []any) {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", "), args
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
