package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// maxIDAttempts bounds id regeneration when a generated id already exists.
const maxIDAttempts = 8

// Lifecycle states of a Manager.
const (
	StateUninitialized int32 = iota
	StateInitializing
	StateReady
)

// Manager is the single source of truth for the notes collection.
// It hydrates lazily from a Backend on first use and writes the whole
// collection through on every mutation.
//
// All operations are serialized: hydration happens at most once no matter
// how many callers race on it, and each mutation is applied to the cache
// and flushed before the next operation starts.
type Manager struct {
	mu      sync.Mutex
	backend Backend
	key     string
	logger  *slog.Logger
	now     func() time.Time
	newID   func() string

	state atomic.Int32
	notes []Note
	dirty bool

	reads  atomic.Int64
	writes atomic.Int64
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the logger for the manager.
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithClock overrides the time source (useful for testing).
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.now = now
	}
}

// WithIDGenerator overrides how note ids are minted.
func WithIDGenerator(gen func() string) ManagerOption {
	return func(m *Manager) {
		m.newID = gen
	}
}

// WithKey changes the storage key holding the collection.
func WithKey(key string) ManagerOption {
	return func(m *Manager) {
		if key != "" {
			m.key = key
		}
	}
}

// NewManager creates a Manager over backend. Nothing is read until the
// first operation.
func NewManager(backend Backend, opts ...ManagerOption) *Manager {
	m := &Manager{
		backend: backend,
		key:     NotesKey,
		logger:  slog.New(slog.DiscardHandler),
		now:     time.Now,
		newID:   NewNoteID,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Init hydrates the cache from the backend and returns a copy of the
// collection. A missing value, or one that is not a JSON array, is replaced
// by an empty collection. Malformed elements of an array are repaired.
// Calls after a successful Init only return the cached collection.
func (m *Manager) Init(ctx context.Context) ([]Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureReady(ctx); err != nil {
		return nil, err
	}
	return m.snapshot(func(Note) bool { return true }), nil
}

// ensureReady performs hydration once. Callers must hold m.mu.
func (m *Manager) ensureReady(ctx context.Context) error {
	if m.state.Load() == StateReady {
		return nil
	}
	m.state.Store(StateInitializing)

	raw, found, err := m.backend.Read(ctx, m.key)
	m.reads.Add(1)
	if err != nil {
		m.state.Store(StateUninitialized)
		return &BackendError{Op: "read", Key: m.key, Err: err}
	}

	var notes []Note
	healthy, repaired := false, false
	if found {
		notes, repaired, healthy = m.decodeNotes(raw)
		if !healthy {
			m.logger.Warn("stored notes are not a collection, resetting", "key", m.key, "bytes", len(raw))
		}
	}

	if !healthy {
		notes = []Note{}
	}
	notes = m.dedupe(notes)

	if !healthy || repaired {
		data, err := json.Marshal(notes)
		if err != nil {
			m.state.Store(StateUninitialized)
			return fmt.Errorf("failed to encode notes: %w", err)
		}
		m.writes.Add(1)
		if err := m.backend.Write(ctx, m.key, data); err != nil {
			m.state.Store(StateUninitialized)
			return &BackendError{Op: "write", Key: m.key, Err: err}
		}
	}

	m.notes = notes
	m.dirty = false
	m.state.Store(StateReady)
	m.logger.Debug("notes hydrated", "key", m.key, "count", len(m.notes))
	return nil
}

// decodeNotes reads a JSON array of notes. Only a value that is not an array
// is rejected as a whole; elements that fail to decode are salvaged field by
// field and elements that are not objects are dropped. repaired reports
// whether the result differs from what was stored.
func (m *Manager) decodeNotes(raw []byte) (notes []Note, repaired, ok bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, false, false
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		return nil, false, false
	}

	now := NewTimestamp(m.now())
	notes = make([]Note, 0, len(elems))
	for i, elem := range elems {
		if t := bytes.TrimSpace(elem); len(t) == 0 || t[0] != '{' {
			m.logger.Warn("dropping stored note that is not an object", "key", m.key, "index", i)
			repaired = true
			continue
		}
		var n Note
		if err := json.Unmarshal(elem, &n); err != nil {
			salvaged, isObject := salvageNote(elem)
			if !isObject {
				m.logger.Warn("dropping unreadable stored note", "key", m.key, "index", i)
				repaired = true
				continue
			}
			m.logger.Warn("repairing malformed stored note", "key", m.key, "index", i, "error", err)
			n = salvaged
			repaired = true
		}
		if n.repair(now, m.newID) {
			m.logger.Warn("filled missing fields of stored note", "key", m.key, "id", n.ID)
			repaired = true
		}
		notes = append(notes, n)
	}
	return notes, repaired, true
}

// dedupe keeps the first record of every id.
func (m *Manager) dedupe(notes []Note) []Note {
	seen := make(map[string]bool, len(notes))
	out := make([]Note, 0, len(notes))
	for _, n := range notes {
		if seen[n.ID] {
			m.logger.Warn("dropping duplicate note", "id", n.ID)
			continue
		}
		seen[n.ID] = true
		out = append(out, n)
	}
	return out
}

func (m *Manager) snapshot(keep func(Note) bool) []Note {
	out := make([]Note, 0, len(m.notes))
	for _, n := range m.notes {
		if keep(n) {
			out = append(out, n.clone())
		}
	}
	return out
}

func (m *Manager) indexOf(id string) int {
	return slices.IndexFunc(m.notes, func(n Note) bool { return n.ID == id })
}

// read runs fn against a ready cache.
func (m *Manager) read(ctx context.Context, fn func() []Note) ([]Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureReady(ctx); err != nil {
		return nil, err
	}
	return fn(), nil
}

// GetNotes returns the active notes in insertion order.
func (m *Manager) GetNotes(ctx context.Context) ([]Note, error) {
	return m.read(ctx, func() []Note {
		return m.snapshot(func(n Note) bool { return !n.IsDeleted })
	})
}

// GetAllNotes returns a copy of the whole collection, trash included.
func (m *Manager) GetAllNotes(ctx context.Context) ([]Note, error) {
	return m.read(ctx, func() []Note {
		return m.snapshot(func(Note) bool { return true })
	})
}

// GetTrashNotes returns the soft-deleted notes in insertion order.
func (m *Manager) GetTrashNotes(ctx context.Context) ([]Note, error) {
	return m.read(ctx, func() []Note {
		return m.snapshot(func(n Note) bool { return n.IsDeleted })
	})
}

// GetNoteByID looks a note up by id. found is false when it does not exist.
func (m *Manager) GetNoteByID(ctx context.Context, id string) (note Note, found bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureReady(ctx); err != nil {
		return Note{}, false, err
	}
	i := m.indexOf(id)
	if i < 0 {
		return Note{}, false, nil
	}
	return m.notes[i].clone(), true, nil
}

// CreateNote appends a new empty note and flushes. An empty title or color
// means "not given" and is replaced by DefaultTitle or DefaultColor, so a
// note cannot be created with a blank title. Blank it afterwards with
// UpdateNote if that is really wanted.
//
// If the flush fails the note stays in the cache and is returned together
// with a *BackendError.
func (m *Manager) CreateNote(ctx context.Context, title, color string) (Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureReady(ctx); err != nil {
		return Note{}, err
	}

	id, err := m.uniqueID()
	if err != nil {
		return Note{}, err
	}
	if title == "" {
		title = DefaultTitle
	}
	if color == "" {
		color = DefaultColor
	}

	now := NewTimestamp(m.now())
	note := Note{
		ID:        id,
		Title:     title,
		Color:     color,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.notes = append(m.notes, note)
	m.logger.Debug("note created", "id", id)

	return note.clone(), m.flush(ctx)
}

func (m *Manager) uniqueID() (string, error) {
	for range maxIDAttempts {
		id := m.newID()
		if id != "" && m.indexOf(id) < 0 {
			return id, nil
		}
	}
	return "", fmt.Errorf("failed to generate a unique note id after %d attempts", maxIDAttempts)
}

// UpdateNote merges patch onto the note and refreshes UpdatedAt.
// found is false, and nothing is written, when id does not exist.
func (m *Manager) UpdateNote(ctx context.Context, id string, patch NotePatch) (note Note, found bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureReady(ctx); err != nil {
		return Note{}, false, err
	}
	i := m.indexOf(id)
	if i < 0 {
		return Note{}, false, nil
	}

	patch.apply(&m.notes[i])
	m.notes[i].UpdatedAt = NewTimestamp(m.now())
	m.logger.Debug("note updated", "id", id)

	return m.notes[i].clone(), true, m.flush(ctx)
}

// DeleteNote moves a note to the trash. It reports false when id does not
// exist.
func (m *Manager) DeleteNote(ctx context.Context, id string) (bool, error) {
	return m.transition(ctx, id, func(n *Note, now Timestamp) {
		n.IsDeleted = true
		n.DeletedAt = &now
	})
}

// RestoreNote brings a note back from the trash. It reports false when id
// does not exist.
func (m *Manager) RestoreNote(ctx context.Context, id string) (bool, error) {
	return m.transition(ctx, id, func(n *Note, _ Timestamp) {
		n.IsDeleted = false
		n.DeletedAt = nil
	})
}

func (m *Manager) transition(ctx context.Context, id string, fn func(n *Note, now Timestamp)) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureReady(ctx); err != nil {
		return false, err
	}
	i := m.indexOf(id)
	if i < 0 {
		return false, nil
	}

	now := NewTimestamp(m.now())
	fn(&m.notes[i], now)
	m.notes[i].UpdatedAt = now
	m.logger.Debug("note state changed", "id", id, "deleted", m.notes[i].IsDeleted)

	return true, m.flush(ctx)
}

// PermanentlyDeleteNote removes a note whatever its state. Removing an
// unknown id still counts as success.
func (m *Manager) PermanentlyDeleteNote(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureReady(ctx); err != nil {
		return false, err
	}

	m.notes = slices.DeleteFunc(m.notes, func(n Note) bool { return n.ID == id })
	m.logger.Debug("note purged", "id", id)

	if err := m.flush(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// Flush writes the cache to the backend again. Use it to retry after a
// mutation returned a *BackendError.
func (m *Manager) Flush(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.Load() != StateReady {
		return nil
	}
	return m.flush(ctx)
}

// Dirty reports whether the last flush failed, leaving the backend behind
// the cache.
func (m *Manager) Dirty() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dirty
}

// Reload drops the cache and hydrates again. It refuses with ErrUnflushed
// while unsaved mutations are pending.
func (m *Manager) Reload(ctx context.Context) ([]Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.dirty {
		return nil, ErrUnflushed
	}
	m.state.Store(StateUninitialized)
	m.notes = nil
	if err := m.ensureReady(ctx); err != nil {
		return nil, err
	}
	return m.snapshot(func(Note) bool { return true }), nil
}

// flush persists the whole collection. Callers must hold m.mu.
func (m *Manager) flush(ctx context.Context) error {
	data, err := json.Marshal(m.notes)
	if err != nil {
		m.dirty = true
		return fmt.Errorf("failed to encode notes: %w", err)
	}

	m.writes.Add(1)
	if err := m.backend.Write(ctx, m.key, data); err != nil {
		m.dirty = true
		m.logger.Error("flush failed, backend is behind the cache", "key", m.key, "error", err)
		return &BackendError{Op: "write", Key: m.key, Err: err}
	}
	m.dirty = false
	return nil
}

// Stats summarizes the collection.
type Stats struct {
	Total  int  `json:"total"`
	Active int  `json:"active"`
	Trash  int  `json:"trash"`
	Dirty  bool `json:"dirty"`
}

// Stats counts active and trashed notes.
func (m *Manager) Stats(ctx context.Context) (Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureReady(ctx); err != nil {
		return Stats{}, err
	}
	s := Stats{Total: len(m.notes), Dirty: m.dirty}
	for _, n := range m.notes {
		if n.IsDeleted {
			s.Trash++
		} else {
			s.Active++
		}
	}
	return s, nil
}

// Backend returns the backend the manager writes to.
func (m *Manager) Backend() Backend {
	return m.backend
}

// Close closes the backend if it holds resources. Unflushed mutations are
// reported as ErrUnflushed and the backend is still closed.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var err error
	if m.dirty {
		err = ErrUnflushed
	}
	if c, ok := m.backend.(io.Closer); ok {
		if cerr := c.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close backend: %w", cerr))
		}
	}
	return err
}
