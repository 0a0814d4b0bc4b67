package store

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema versions (PRAGMA user_version):
//
//	0 - tables only
//	1 - partial index for pending reminders per owner
//	2 - partial index on dispatched_at for pruning
const currentSchemaVersion = 2

// migrations[i] upgrades a database from version i to i+1.
var migrations = []struct {
	name string
	stmt string
}{
	{"pending reminder index", `
		CREATE INDEX IF NOT EXISTS idx_reminders_owner_pending
		ON reminders(user_id, trigger_time)
		WHERE dispatched_at IS NULL`},
	{"dispatched reminder index", `
		CREATE INDEX IF NOT EXISTS idx_reminders_dispatched
		ON reminders(dispatched_at)
		WHERE dispatched_at IS NOT NULL`},
}

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// Store is the SQLite reminder store.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path, applies pragmas,
// the base schema and any pending migrations. Reopening an up-to-date
// database changes nothing.
//
// A single connection is kept open: SQLite serializes writers anyway, and
// one connection keeps the per-connection pragmas in force.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database %s: %w", path, err)
	}

	if err := setup(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the connection. Closing a zero Store is a no-op.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

var pragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA busy_timeout = 5000",
	"PRAGMA foreign_keys = ON",
}

func setup(db *sql.DB) error {
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("apply %q: %w", p, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	return migrate(db, version)
}

// migrate applies every migration after version, recording progress after
// each step so an interrupted upgrade resumes where it stopped.
func migrate(db *sql.DB, version int) error {
	for v := version; v < currentSchemaVersion; v++ {
		m := migrations[v]
		if _, err := db.Exec(m.stmt); err != nil {
			return fmt.Errorf("migrate to v%d (%s): %w", v+1, m.name, err)
		}
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", v+1)); err != nil {
			return fmt.Errorf("record schema version %d: %w", v+1, err)
		}
	}
	return nil
}

// pragma reads a single pragma value. Used by tests.
func (s *Store) pragma(name string) (string, error) {
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return "", fmt.Errorf("read pragma %s: %w", name, err)
	}
	return value, nil
}
