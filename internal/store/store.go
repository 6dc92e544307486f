// Package store provides the SQLite-backed record store for notes, folders,
// and the user-stats singleton.
package store

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

const schemaVersion = 1

const schemaSQL = `
CREATE TABLE IF NOT EXISTS schema_info (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS notes (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL DEFAULT '',
	folder_id  TEXT,
	cells      TEXT NOT NULL DEFAULT '[]',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_notes_folder ON notes(folder_id);

CREATE TABLE IF NOT EXISTS folders (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL DEFAULT '',
	parent_id  TEXT,
	created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_folders_parent ON folders(parent_id);

CREATE TABLE IF NOT EXISTS user (
	id   TEXT PRIMARY KEY,
	data TEXT NOT NULL DEFAULT '{}'
);
`

// DB is the shared record store. The underlying connection is a lazily
// re-established singleton: it is opened on first use, cached for every
// caller, and transparently re-opened after it has been invalidated (for
// example by a schema upgrade performed by a second process instance).
type DB struct {
	path string

	mu   sync.Mutex
	conn *sql.DB
}

// Open creates a DB for the SQLite file at path and verifies it is usable.
func Open(path string) (*DB, error) {
	db := &DB{path: path}
	if _, err := db.handle(); err != nil {
		return nil, err
	}
	return db, nil
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// handle returns the cached connection, opening a fresh one if needed.
func (db *DB) handle() (*sql.DB, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.conn != nil {
		return db.conn, nil
	}

	conn, err := sql.Open("sqlite3", db.path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	if err := stampSchemaVersion(conn); err != nil {
		conn.Close()
		return nil, err
	}

	db.conn = conn
	return conn, nil
}

// invalidate closes and clears the cached connection so the next access
// re-opens. Called when an operation fails with a connection-level error.
func (db *DB) invalidate() {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.conn != nil {
		_ = db.conn.Close()
		db.conn = nil
	}
}

// Close releases the cached connection. The DB remains usable: the next
// operation re-opens, which is exactly the recovery path exercised when an
// external process invalidates the handle.
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.conn == nil {
		return nil
	}
	err := db.conn.Close()
	db.conn = nil
	return err
}

// checkConn invalidates the cached handle when err indicates the connection
// itself is no longer usable, so that the next call starts fresh. The error
// is passed through either way; the current call is not retried.
func (db *DB) checkConn(err error) error {
	if err == nil {
		return nil
	}
	if isConnInvalid(err) {
		db.invalidate()
	}
	return err
}

func isConnInvalid(err error) bool {
	if err == sql.ErrConnDone {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "database is closed") ||
		strings.Contains(msg, "no such table") ||
		strings.Contains(msg, "database disk image is malformed")
}

func stampSchemaVersion(conn *sql.DB) error {
	var v int
	err := conn.QueryRow(`SELECT version FROM schema_info LIMIT 1`).Scan(&v)
	switch {
	case err == sql.ErrNoRows:
		if _, err := conn.Exec(`INSERT INTO schema_info (version) VALUES (?)`, schemaVersion); err != nil {
			return fmt.Errorf("store: stamp schema version: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("store: read schema version: %w", err)
	case v > schemaVersion:
		return fmt.Errorf("store: schema version %d is newer than supported %d", v, schemaVersion)
	default:
		return nil
	}
}

// nullableString converts an optional identifier for storage.
func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// optionalString converts a scanned nullable column back to a pointer.
func optionalString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
