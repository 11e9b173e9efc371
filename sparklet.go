package sparklet

import (
	"context"
	"log/slog"

	"github.com/aretw0/sparklet/internal/platform"
	"github.com/aretw0/sparklet/pkg/core"
)

// --- Types ---

// Note is a single note record.
type Note = core.Note

// NotePatch carries the fields of an update.
type NotePatch = core.NotePatch

// Manager is the note storage manager.
type Manager = core.Manager

// Backend is the persistence contract adapters implement.
type Backend = core.Backend

// --- Configuration ---

// Option defines a functional option for configuring Sparklet.
type Option = platform.Option

// Config is the YAML and environment configuration.
type Config = platform.Config

// Adapter names.
const (
	AdapterFS     = platform.AdapterFS
	AdapterSQLite = platform.AdapterSQLite
	AdapterMemory = platform.AdapterMemory
	AdapterRedis  = platform.AdapterRedis
	AdapterBridge = platform.AdapterBridge
)

// WithAdapter selects the storage adapter by name.
func WithAdapter(name string) Option {
	return platform.WithAdapter(name)
}

// WithBackend injects a custom backend.
func WithBackend(b Backend) Option {
	return platform.WithBackend(b)
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithStoreName sets the store file name for local adapters.
func WithStoreName(name string) Option {
	return platform.WithStoreName(name)
}

// WithKey overrides the storage key holding the notes array.
func WithKey(key string) Option {
	return platform.WithKey(key)
}

// WithRedisURL sets the Redis URL or address.
func WithRedisURL(url string) Option {
	return platform.WithRedisURL(url)
}

// WithBridgeURL sets the bridge server URL.
func WithBridgeURL(url string) Option {
	return platform.WithBridgeURL(url)
}

// WithForceTemp forces the use of a temporary directory (useful for testing).
func WithForceTemp(force bool) Option {
	return platform.WithForceTemp(force)
}

// WithMustExist requires the data directory to exist already.
func WithMustExist(must bool) Option {
	return platform.WithMustExist(must)
}

// WithDevSafety controls the `go run` sandbox.
func WithDevSafety(enabled bool) Option {
	return platform.WithDevSafety(enabled)
}

// --- Factory ---

// New opens a note manager at uri.
func New(ctx context.Context, uri string, opts ...Option) (*Manager, error) {
	return platform.New(ctx, uri, opts...)
}

// Open builds and initializes a backend without a manager.
func Open(ctx context.Context, uri string, opts ...Option) (Backend, error) {
	return platform.Init(ctx, uri, opts...)
}

// ConfigFileName is the project configuration file name.
const ConfigFileName = platform.ConfigFileName

// LoadEnv loads .env files into the environment, skipping missing ones.
func LoadEnv(files ...string) error {
	return platform.LoadEnv(files...)
}

// LoadConfig reads a sparklet.yaml file.
func LoadConfig(path string) (Config, error) {
	return platform.LoadConfig(path)
}

// --- Safety & Utils ---

// ResolveDataPath determines the actual data path based on safety rules.
func ResolveDataPath(userPath string, forceTemp bool) string {
	return platform.ResolveDataPath(userPath, forceTemp)
}

// IsDevRun checks if the current process is running via `go run` or `go test`.
func IsDevRun() bool {
	return platform.IsDevRun()
}

// FindRoot looks upwards for a Sparklet project root.
func FindRoot(startDir string) (string, error) {
	return platform.FindRoot(startDir)
}

// DeriveTitle returns the title to use when an edit leaves it empty.
func DeriveTitle(title, content string) string {
	return core.DeriveTitle(title, content)
}
