// Package sqlite implements the repository interfaces on an embedded
// SQLite database. It is the default backend for development and the one
// the test suite runs against (":memory:"). modernc.org/sqlite is a pure
// Go driver, so no C toolchain is needed anywhere.
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	// Side-effect import: registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"

	"github.com/aaronwittchen/Firefly/internal/repository"
)

// DB wraps the connection pool and implements repository.Store.
type DB struct {
	conn *sql.DB
}

var _ repository.Store = (*DB)(nil)

// New opens the database at path (":memory:" for an in-memory database),
// applies the pragmas a concurrent web server needs, and creates the
// schema if it is absent.
func New(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Every pool connection to ":memory:" would get its own empty
	// database, so pin the pool to a single connection.
	if strings.Contains(path, ":memory:") {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets reads proceed while a write is in flight; foreign keys are
	// off by default in SQLite and we want the error_logs -> users
	// reference enforced.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Users returns the user repository backed by this database.
func (db *DB) Users() repository.UserRepository { return &userRepo{conn: db.conn} }

// ErrorLogs returns the error-log repository backed by this database.
func (db *DB) ErrorLogs() repository.ErrorLogRepository { return &errorLogRepo{conn: db.conn} }

// Close closes the connection pool. Callers defer this right after New.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. Everything is IF NOT EXISTS, so it is safe
// to run on every startup.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			github_id       INTEGER NOT NULL UNIQUE,
			github_username TEXT    NOT NULL UNIQUE,
			email           TEXT    NOT NULL DEFAULT '',
			name            TEXT    NOT NULL DEFAULT '',
			avatar_url      TEXT    NOT NULL DEFAULT '',
			access_token    TEXT    NOT NULL,
			created_at      DATETIME NOT NULL,
			updated_at      DATETIME
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email
			ON users(email) WHERE email <> '';
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// tags holds a JSON array of strings; the tag filter uses json_each
	// to test membership.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS error_logs (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id         INTEGER NOT NULL REFERENCES users(id),
			message         TEXT    NOT NULL,
			error_type      TEXT    NOT NULL DEFAULT '',
			project         TEXT    NOT NULL DEFAULT '',
			git_branch      TEXT    NOT NULL DEFAULT '',
			git_commit      TEXT    NOT NULL DEFAULT '',
			os              TEXT    NOT NULL DEFAULT '',
			language        TEXT    NOT NULL DEFAULT '',
			tags            TEXT    NOT NULL DEFAULT '[]',
			solution        TEXT    NOT NULL DEFAULT '',
			notes           TEXT    NOT NULL DEFAULT '',
			time_to_fix_min INTEGER NOT NULL DEFAULT 0,
			resolved        INTEGER NOT NULL DEFAULT 0,
			created_at      DATETIME NOT NULL,
			updated_at      DATETIME
		);
		CREATE INDEX IF NOT EXISTS idx_error_logs_user_id    ON error_logs(user_id);
		CREATE INDEX IF NOT EXISTS idx_error_logs_project    ON error_logs(project);
		CREATE INDEX IF NOT EXISTS idx_error_logs_language   ON error_logs(language);
		CREATE INDEX IF NOT EXISTS idx_error_logs_error_type ON error_logs(error_type);
		CREATE INDEX IF NOT EXISTS idx_error_logs_resolved   ON error_logs(resolved);
		CREATE INDEX IF NOT EXISTS idx_error_logs_created_at ON error_logs(created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating error_logs table: %w", err)
	}

	return nil
}
