// Package store persists templates and graded results in a local SQLite
// database. The database is used as a plain key-value blob store: each logical
// collection lives under a single key as one JSON value, and every mutation is
// a read-decode-modify-encode-write of the whole value inside a transaction.
package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const (
	templatesKey = "templates"
	resultsKey   = "gradedResults"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// get returns the stored value for key, or "" if the key is absent.
func (s *Store) get(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", key, err)
	}
	return value, nil
}

// update runs a read-modify-write of one key inside a transaction. fn receives
// the current value ("" if absent) and returns the replacement. On any error
// the previous value remains intact.
func (s *Store) update(key string, fn func(current string) (string, error)) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&current)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("read %s: %w", key, err)
	}

	next, err := fn(current)
	if err != nil {
		return err
	}

	_, err = tx.Exec(
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = ?`,
		key, next, next,
	)
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return tx.Commit()
}

// remove deletes a key; absent keys are a no-op.
func (s *Store) remove(key string) error {
	if _, err := s.db.Exec(`DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Reset clears all templates and graded results.
func (s *Store) Reset() error {
	if err := s.remove(templatesKey); err != nil {
		return err
	}
	return s.remove(resultsKey)
}
