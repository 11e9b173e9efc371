package fs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/aretw0/sparklet/pkg/core"
)

const (
	// DefaultName is the base name of the store file.
	DefaultName = "sparklet-data"
	storeExt    = ".json"
)

// Config holds the configuration for the file-backed store.
type Config struct {
	Path      string // directory holding the store file
	Name      string // file name without extension, e.g. "sparklet-data"
	MustExist bool
	Logger    *slog.Logger
	// Defaults are returned for keys missing from the file.
	Defaults map[string]json.RawMessage
	// ErrorHandler receives runtime watcher failures.
	ErrorHandler func(error)
}

// Store implements core.Backend as a single JSON object file mapping keys
// to values. Every write rewrites the file atomically.
type Store struct {
	Path   string
	file   string
	config Config

	mu            sync.RWMutex
	lastWriteSum  uint64
	lastWriteAt   *time.Time
	watcherActive bool
}

// NewStore creates a new file-backed store. No I/O happens until Initialize
// or the first Read/Write.
func NewStore(config Config) *Store {
	if config.Name == "" {
		config.Name = DefaultName
	}
	return &Store{
		Path:   config.Path,
		file:   filepath.Join(config.Path, config.Name+storeExt),
		config: config,
	}
}

// File returns the path of the store file.
func (s *Store) File() string {
	return s.file
}

// Initialize ensures the store directory exists.
func (s *Store) Initialize(ctx context.Context) error {
	if s.config.MustExist {
		info, err := os.Stat(s.Path)
		if os.IsNotExist(err) {
			return fmt.Errorf("store path does not exist: %s", s.Path)
		}
		if err != nil {
			return fmt.Errorf("failed to stat store path: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("store path is not a directory: %s", s.Path)
		}
		return nil
	}

	if err := os.MkdirAll(s.Path, 0755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}
	return nil
}

// Read returns the raw JSON stored under key, falling back to the configured
// defaults.
func (s *Store) Read(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	values, err := s.load()
	if err != nil {
		return nil, false, err
	}
	if v, ok := values[key]; ok {
		return v, true, nil
	}
	if v, ok := s.config.Defaults[key]; ok {
		return append([]byte(nil), v...), true, nil
	}
	return nil, false, nil
}

// Write stores value under key. value must be valid JSON.
func (s *Store) Write(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !json.Valid(value) {
		return fmt.Errorf("value for %q is not valid JSON", key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := acquireLock(ctx, s.file)
	if err != nil {
		return err
	}
	defer unlock()

	values, err := s.load()
	if err != nil {
		return err
	}
	values[key] = json.RawMessage(append([]byte(nil), value...))
	return s.save(values)
}

// Clear resets the file to the configured defaults.
func (s *Store) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := acquireLock(ctx, s.file)
	if err != nil {
		return err
	}
	defer unlock()

	values := make(map[string]json.RawMessage, len(s.config.Defaults))
	for k, v := range s.config.Defaults {
		values[k] = v
	}
	return s.save(values)
}

// load reads the whole file. A missing file is an empty store and a corrupt
// one is treated the same way so the next write heals it.
// Callers must hold s.mu.
func (s *Store) load() (map[string]json.RawMessage, error) {
	values := make(map[string]json.RawMessage)

	data, err := os.ReadFile(s.file)
	if os.IsNotExist(err) {
		return values, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read store file: %w", err)
	}

	if err := json.Unmarshal(data, &values); err != nil {
		if s.config.Logger != nil {
			s.config.Logger.Warn("store file is corrupt, starting empty", "path", s.file, "error", err)
		}
		return make(map[string]json.RawMessage), nil
	}
	if values == nil {
		values = make(map[string]json.RawMessage)
	}
	return values, nil
}

// save writes values atomically. Callers must hold s.mu for writing.
func (s *Store) save(values map[string]json.RawMessage) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode store: %w", err)
	}

	if err := os.MkdirAll(s.Path, 0755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}
	if err := writeFileAtomic(s.file, data, 0644); err != nil {
		return fmt.Errorf("failed to write store file: %w", err)
	}

	now := time.Now()
	s.lastWriteSum = xxhash.Sum64(data)
	s.lastWriteAt = &now

	if s.config.Logger != nil {
		s.config.Logger.Debug("store written", "path", s.file, "keys", len(values), "bytes", len(data))
	}
	return nil
}

// isOwnWrite reports whether the file currently holds exactly what this
// store last wrote.
func (s *Store) isOwnWrite() bool {
	data, err := os.ReadFile(s.file)
	if err != nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastWriteAt != nil && xxhash.Sum64(data) == s.lastWriteSum
}

var _ core.Backend = (*Store)(nil)
var _ core.Initializer = (*Store)(nil)
var _ core.Clearer = (*Store)(nil)
var _ core.Watchable = (*Store)(nil)
