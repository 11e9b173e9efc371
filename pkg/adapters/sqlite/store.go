// Package sqlite persists store keys in a single key-value table.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/aretw0/sparklet/pkg/core"
)

// DefaultFile is the database file name used when Config.File is empty.
const DefaultFile = "sparklet.db"

const schema = `
CREATE TABLE IF NOT EXISTS kv (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TEXT NOT NULL
);`

// Config holds the configuration for the SQLite store.
type Config struct {
	// Path is the directory holding the database file.
	Path   string
	File   string
	Logger *slog.Logger
}

// Store implements core.Backend on top of SQLite.
type Store struct {
	config Config
	dsn    string
	file   string

	mu sync.RWMutex
	db *sql.DB
}

// NewStore creates a store. The database is opened by Initialize.
func NewStore(config Config) *Store {
	if config.File == "" {
		config.File = DefaultFile
	}
	file := filepath.Join(config.Path, config.File)
	return &Store{
		config: config,
		file:   file,
		dsn:    "file:" + file + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)",
	}
}

// File returns the database file path.
func (s *Store) File() string {
	return s.file
}

// Initialize opens the database and creates the kv table.
func (s *Store) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return nil
	}
	if err := os.MkdirAll(s.config.Path, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", s.config.Path, err)
	}

	db, err := sql.Open("sqlite", s.dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps writes ordered.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return fmt.Errorf("failed to init schema: %w", err)
	}
	s.db = db

	if s.config.Logger != nil {
		s.config.Logger.Debug("sqlite store opened", "file", s.file)
	}
	return nil
}

func (s *Store) conn() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, errors.New("sqlite store not initialized")
	}
	return s.db, nil
}

// Read returns the value stored under key.
func (s *Store) Read(ctx context.Context, key string) ([]byte, bool, error) {
	db, err := s.conn()
	if err != nil {
		return nil, false, err
	}

	var value string
	err = db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return []byte(value), true, nil
}

// Write upserts value under key.
func (s *Store) Write(ctx context.Context, key string, value []byte) error {
	db, err := s.conn()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET
    value = excluded.value,
    updated_at = excluded.updated_at`,
		key, string(value), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Clear removes every key.
func (s *Store) Clear(ctx context.Context) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM kv`); err != nil {
		return fmt.Errorf("failed to clear store: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

var (
	_ core.Backend     = (*Store)(nil)
	_ core.Initializer = (*Store)(nil)
	_ core.Clearer     = (*Store)(nil)
)
