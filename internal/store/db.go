// Package store persists finished runs and the mail outbox in SQLite
// (modernc.org/sqlite, no cgo).
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB is an open, migrated gitcourier database.
type DB struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies pending
// migrations. Use ":memory:" in tests that need no file.
func Open(path string) (*DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("store.Open: create directory for %q: %w", path, err)
		}
	}

	dsn := path +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=foreign_keys(ON)" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=synchronous(NORMAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store.Open: open %q: %w", path, err)
	}
	if path == ":memory:" {
		// Every pooled connection would get its own empty in-memory database.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store.Open: ping %q: %w", path, err)
	}
	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, err
	}
	return &DB{db: db}, nil
}

func (d *DB) Close() error { return d.db.Close() }

// Runs returns the run ledger backed by d.
func (d *DB) Runs() *RunStore { return &RunStore{db: d.db} }

// Outbox returns the sent-mail outbox backed by d.
func (d *DB) Outbox() *Outbox { return &Outbox{db: d.db} }
