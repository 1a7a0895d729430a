// Package sqlite implements the repository interfaces on an embedded SQLite
// database (modernc.org/sqlite — pure Go, no CGo toolchain needed).
package sqlite

import (
	"database/sql"
	"fmt"
	"sync"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and provides the repository methods.
type DB struct {
	conn *sql.DB
}

// Process-wide shared handle for Connect. sync.Once makes the lazy
// initialization idempotent and re-entrant-safe: every call after the first
// returns the same handle (or the same error) without reconnecting.
var (
	connectOnce sync.Once
	sharedDB    *DB
	connectErr  error
)

// Connect returns the process-wide database handle, opening it on first
// use. Safe to call from concurrent request handlers; subsequent calls are
// no-ops regardless of the path argument.
func Connect(dbPath string) (*DB, error) {
	connectOnce.Do(func() {
		sharedDB, connectErr = New(dbPath)
	})
	return sharedDB, connectErr
}

// New opens a private database handle and runs migrations. Prefer Connect
// in the server; New exists for tests, which want an isolated ":memory:"
// database per test case.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// A single connection keeps ":memory:" databases coherent (each new
	// pool connection would otherwise get its own empty database) and
	// serializes writes, which SQLite does anyway.
	conn.SetMaxOpenConns(1)

	// Surface bad paths and permission problems now, not on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL allows concurrent reads during writes — needed under a web server.
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

// Close closes the connection pool. The server defers this during graceful
// shutdown so the WAL is flushed and the file lock released.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			username      TEXT NOT NULL UNIQUE,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			github        TEXT NOT NULL DEFAULT '',
			bio           TEXT NOT NULL DEFAULT '',
			location      TEXT NOT NULL DEFAULT '',
			website       TEXT NOT NULL DEFAULT '',
			phone         TEXT NOT NULL DEFAULT '',
			theme         TEXT NOT NULL DEFAULT 'light',
			is_verified   INTEGER NOT NULL DEFAULT 0,
			is_admin      INTEGER NOT NULL DEFAULT 0,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_users_username ON users(username);
		CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}
	return nil
}
