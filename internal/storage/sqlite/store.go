// Package sqlite provides SQLite-backed persistence for users, profiles,
// readings, and web sessions.
package sqlite

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/louisbranch/cezi/internal/id"
	"github.com/louisbranch/cezi/internal/storage"
	"github.com/louisbranch/cezi/internal/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store implements the storage contracts over a single SQLite file.
//
// One file backs identity, profile, and reading state so the auth and sync
// layers share the same transaction and visibility boundaries.
type Store struct {
	sqlDB       *sql.DB
	clock       func() time.Time
	idGenerator func() (string, error)
}

// Open opens a SQLite store and applies bundled migrations.
//
// This keeps startup and schema evolution in one place, instead of requiring
// callers to coordinate migrations independently.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &Store{
		sqlDB:       sqlDB,
		clock:       time.Now,
		idGenerator: id.NewID,
	}

	if err := applyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return store, nil
}

// Close releases the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// toMillis normalizes timestamps into millisecond precision for storage.
func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

// fromMillis restores millisecond precision and keeps UTC normalization.
func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

func (s *Store) nowUTC() time.Time {
	if s == nil || s.clock == nil {
		return time.Now().UTC()
	}
	return s.clock().UTC()
}

func (s *Store) newID() (string, error) {
	if s == nil || s.idGenerator == nil {
		return id.NewID()
	}
	return s.idGenerator()
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.ProfileStore = (*Store)(nil)
var _ storage.ReadingStore = (*Store)(nil)
var _ storage.WebSessionStore = (*Store)(nil)
