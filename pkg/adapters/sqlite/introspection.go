package sqlite

import (
	"context"
	"time"

	"github.com/aretw0/introspection"
)

// StoreState exposes internal state for observability.
type StoreState struct {
	File      string `json:"file"`
	Open      bool   `json:"open"`
	Keys      int    `json:"keys"`
	LastWrite string `json:"last_write,omitempty"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	state := StoreState{File: s.file}

	db, err := s.conn()
	if err != nil {
		return state
	}
	state.Open = true

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	var last *string
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*), MAX(updated_at) FROM kv`).Scan(&state.Keys, &last); err == nil && last != nil {
		state.LastWrite = *last
	}
	return state
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "sqlite"
}

var _ introspection.Introspectable = (*Store)(nil)
var _ introspection.Component = (*Store)(nil)
