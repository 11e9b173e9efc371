package core

import (
	"github.com/aretw0/introspection"
)

// ManagerState exposes internal state for observability.
type ManagerState struct {
	Status      string `json:"status"`
	Key         string `json:"key"`
	CachedNotes int    `json:"cached_notes"`
	Dirty       bool   `json:"dirty"`
	Reads       int64  `json:"backend_reads"`
	Writes      int64  `json:"backend_writes"`
	BackendType string `json:"backend_type"`
}

// State implements introspection.Introspectable.
func (m *Manager) State() any {
	m.mu.Lock()
	defer m.mu.Unlock()

	backendType := "unknown"
	if m.backend != nil {
		backendType = "backend"
		if comp, ok := m.backend.(introspection.Component); ok {
			backendType = comp.ComponentType()
		}
	}

	status := "uninitialized"
	switch m.state.Load() {
	case StateInitializing:
		status = "initializing"
	case StateReady:
		status = "ready"
	}

	return ManagerState{
		Status:      status,
		Key:         m.key,
		CachedNotes: len(m.notes),
		Dirty:       m.dirty,
		Reads:       m.reads.Load(),
		Writes:      m.writes.Load(),
		BackendType: backendType,
	}
}

// ComponentType implements introspection.Component.
func (m *Manager) ComponentType() string {
	return "manager"
}

var _ introspection.Introspectable = (*Manager)(nil)
var _ introspection.Component = (*Manager)(nil)
