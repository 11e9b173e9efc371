// Package redis stores keys in a Redis server under a common prefix.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/aretw0/sparklet/pkg/core"
)

// DefaultPrefix namespaces every key this store writes.
const DefaultPrefix = "sparklet:"

// Config holds the configuration for the Redis store.
type Config struct {
	// URL is a redis:// URL or a bare host:port address.
	URL    string
	Prefix string
	Logger *slog.Logger
}

// Store implements core.Backend on Redis.
type Store struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

// NewStore creates a store. No connection is made until first use or
// Initialize.
func NewStore(config Config) *Store {
	opt, err := redis.ParseURL(config.URL)
	if err != nil {
		if config.Logger != nil {
			config.Logger.Debug("redis url not parseable, using it as address", "url", config.URL, "error", err)
		}
		opt = &redis.Options{Addr: config.URL}
	}
	return NewStoreWithClient(redis.NewClient(opt), config)
}

// NewStoreWithClient wraps an existing client.
func NewStoreWithClient(client *redis.Client, config Config) *Store {
	if config.Prefix == "" {
		config.Prefix = DefaultPrefix
	}
	return &Store{client: client, prefix: config.Prefix, logger: config.Logger}
}

// Initialize checks that the server is reachable.
func (s *Store) Initialize(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	return nil
}

func (s *Store) Read(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, true, nil
}

func (s *Store) Write(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Clear deletes every key under the store prefix.
func (s *Store) Clear(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to clear store: %w", err)
	}
	if s.logger != nil {
		s.logger.Debug("redis store cleared", "keys", len(keys))
	}
	return nil
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

// StoreState exposes internal state for observability.
type StoreState struct {
	Addr   string `json:"addr"`
	Prefix string `json:"prefix"`
	Conns  uint32 `json:"total_conns"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	return StoreState{
		Addr:   s.client.Options().Addr,
		Prefix: s.prefix,
		Conns:  s.client.PoolStats().TotalConns,
	}
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "redis"
}

var (
	_ core.Backend     = (*Store)(nil)
	_ core.Initializer = (*Store)(nil)
	_ core.Clearer     = (*Store)(nil)
)
