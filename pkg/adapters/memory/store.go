// Package memory keeps store keys in process memory. Nothing survives a
// restart; it backs tests and throwaway sessions.
package memory

import (
	"context"
	"slices"

	"github.com/patrickmn/go-cache"

	"github.com/aretw0/sparklet/pkg/core"
)

// Store implements core.Backend on an in-process cache.
type Store struct {
	cache *cache.Cache
}

// NewStore creates an empty store. Entries never expire.
func NewStore() *Store {
	return &Store{cache: cache.New(cache.NoExpiration, 0)}
}

func (s *Store) Read(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if x, found := s.cache.Get(key); found {
		return slices.Clone(x.([]byte)), true, nil
	}
	return nil, false, nil
}

func (s *Store) Write(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.cache.Set(key, slices.Clone(value), cache.NoExpiration)
	return nil
}

// Clear drops every key.
func (s *Store) Clear(ctx context.Context) error {
	s.cache.Flush()
	return nil
}

// StoreState exposes internal state for observability.
type StoreState struct {
	Keys int `json:"keys"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	return StoreState{Keys: s.cache.ItemCount()}
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "memory"
}

var (
	_ core.Backend = (*Store)(nil)
	_ core.Clearer = (*Store)(nil)
)
