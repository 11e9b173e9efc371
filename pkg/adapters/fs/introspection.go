package fs

import (
	"os"
	"time"

	"github.com/aretw0/introspection"
)

// StoreState exposes internal state for observability.
type StoreState struct {
	Path          string     `json:"path"`
	File          string     `json:"file"`
	Size          int64      `json:"size"`
	WatcherActive bool       `json:"watcher_active"`
	LastWrite     *time.Time `json:"last_write,omitempty"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	var size int64
	if info, err := os.Stat(s.file); err == nil {
		size = info.Size()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return StoreState{
		Path:          s.Path,
		File:          s.file,
		Size:          size,
		WatcherActive: s.watcherActive,
		LastWrite:     s.lastWriteAt,
	}
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "fs"
}

var _ introspection.Introspectable = (*Store)(nil)
var _ introspection.Component = (*Store)(nil)
