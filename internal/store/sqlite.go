// Package store owns all SQL for the Daybook database. Storage
// representations (integer booleans, JSON array columns, text dates)
// never leak past this package: every column with a non-obvious shape
// has an explicit encode/decode pair here.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	daybooksync "github.com/daybookapp/daybook/internal/sync"
	_ "modernc.org/sqlite"
)

// Store is the SQLite-backed data access layer. One Store per process,
// constructed at startup and passed by reference into every component.
type Store struct {
	db      *sql.DB
	changes *daybooksync.ChangeLog
}

// New opens (or creates) the database at dbPath, applies pragmas, and
// runs migrations. Pass ":memory:" for an ephemeral database in tests.
func New(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dbPath != ":memory:" && dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite supports a single writer; more connections only add lock churn.
	db.SetMaxOpenConns(1)

	if err := enablePragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable pragmas: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// SetChangeLog attaches the best-effort cross-process change signal.
// A nil change log disables notifications.
func (s *Store) SetChangeLog(cl *daybooksync.ChangeLog) {
	s.changes = cl
}

// enablePragmas sets SQLite pragmas for performance and safety.
func enablePragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %s: %w", pragma, err)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// notify emits a change-log entry after a successful mutation.
// Best effort only; see the sync package.
func (s *Store) notify(entity, id, op string) {
	if s.changes != nil {
		s.changes.Notify(entity, id, op)
	}
}
