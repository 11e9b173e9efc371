package platform

import (
	"log/slog"

	"github.com/aretw0/sparklet/pkg/core"
)

// Adapter names accepted by WithAdapter.
const (
	AdapterFS     = "fs"
	AdapterSQLite = "sqlite"
	AdapterMemory = "memory"
	AdapterRedis  = "redis"
	AdapterBridge = "bridge"
)

// options holds the internal configuration for a Sparklet store.
type options struct {
	backend      core.Backend
	logger       *slog.Logger
	adapter      string
	storeName    string
	key          string
	redisURL     string
	bridgeURL    string
	forceTemp    bool
	mustExist    bool
	devSafety    bool
	errorHandler func(error)
}

// Option defines a functional option for configuring Sparklet.
type Option func(*options)

func defaultOptions() *options {
	return &options{
		adapter:   AdapterFS,
		devSafety: true,
	}
}

// WithAdapter selects the storage adapter by name. Defaults to "fs".
func WithAdapter(name string) Option {
	return func(o *options) {
		o.adapter = name
	}
}

// WithBackend injects a ready backend, skipping adapter construction.
func WithBackend(b core.Backend) Option {
	return func(o *options) {
		o.backend = b
	}
}

// WithLogger sets the logger for the manager and adapters.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithStoreName sets the file name (without extension) used by the fs and
// sqlite adapters.
func WithStoreName(name string) Option {
	return func(o *options) {
		o.storeName = name
	}
}

// WithKey overrides the storage key holding the notes array.
func WithKey(key string) Option {
	return func(o *options) {
		o.key = key
	}
}

// WithRedisURL sets the Redis URL or address.
func WithRedisURL(url string) Option {
	return func(o *options) {
		o.redisURL = url
	}
}

// WithBridgeURL sets the base URL of a bridge server.
func WithBridgeURL(url string) Option {
	return func(o *options) {
		o.bridgeURL = url
	}
}

// WithForceTemp forces the use of a temporary directory (useful for testing).
func WithForceTemp(force bool) Option {
	return func(o *options) {
		o.forceTemp = force
	}
}

// WithMustExist requires the data directory to exist already.
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.mustExist = must
	}
}

// WithWatcherErrorHandler registers a callback for runtime watcher failures.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.errorHandler = fn
	}
}

// WithDevSafety controls the sandbox used under `go run` and `go test`.
// By default (true) local data is re-rooted into a temporary directory.
//
// CAUTION: Only disable this if you are sure your code is safe.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.devSafety = enabled
	}
}
