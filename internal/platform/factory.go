package platform

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aretw0/sparklet/pkg/adapters/bridge"
	"github.com/aretw0/sparklet/pkg/adapters/fs"
	"github.com/aretw0/sparklet/pkg/adapters/memory"
	"github.com/aretw0/sparklet/pkg/adapters/redis"
	"github.com/aretw0/sparklet/pkg/adapters/sqlite"
	"github.com/aretw0/sparklet/pkg/core"
)

// New opens the backend and returns a manager over it. Notes are not
// loaded until the first manager call.
//
// The uri is adapter-specific: a directory for fs and sqlite, or a URL for
// redis and bridge when no explicit URL option is given.
func New(ctx context.Context, uri string, opts ...Option) (*core.Manager, error) {
	backend, err := Init(ctx, uri, opts...)
	if err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	managerOpts := []core.ManagerOption{}
	if o.logger != nil {
		managerOpts = append(managerOpts, core.WithLogger(o.logger))
	}
	if o.key != "" {
		managerOpts = append(managerOpts, core.WithKey(o.key))
	}
	return core.NewManager(backend, managerOpts...), nil
}

// Init builds and initializes the configured backend.
func Init(ctx context.Context, uri string, opts ...Option) (core.Backend, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	if o.backend != nil {
		return o.backend, nil
	}

	var backend core.Backend
	switch o.adapter {
	case AdapterFS:
		backend = initFS(uri, o)
	case AdapterSQLite:
		backend = sqlite.NewStore(sqlite.Config{
			Path:   resolveLocalPath(uri, o),
			File:   sqliteFile(o.storeName),
			Logger: o.logger,
		})
	case AdapterMemory:
		backend = memory.NewStore()
	case AdapterRedis:
		backend = redis.NewStore(redis.Config{
			URL:    firstNonEmpty(o.redisURL, uri),
			Logger: o.logger,
		})
	case AdapterBridge:
		backend = bridge.NewClient(firstNonEmpty(o.bridgeURL, uri))
	default:
		return nil, fmt.Errorf("unknown adapter: %s", o.adapter)
	}

	if initializer, ok := backend.(core.Initializer); ok {
		if err := initializer.Initialize(ctx); err != nil {
			return nil, fmt.Errorf("failed to initialize %s adapter: %w", o.adapter, err)
		}
	}
	return backend, nil
}

func initFS(path string, o *options) *fs.Store {
	key := o.key
	if key == "" {
		key = core.NotesKey
	}
	return fs.NewStore(fs.Config{
		Path:         resolveLocalPath(path, o),
		Name:         o.storeName,
		MustExist:    o.mustExist,
		Logger:       o.logger,
		ErrorHandler: o.errorHandler,
		Defaults:     map[string]json.RawMessage{key: json.RawMessage(`[]`)},
	})
}

// resolveLocalPath applies dev-run safety to a local data directory.
func resolveLocalPath(path string, o *options) string {
	useTemp := o.forceTemp || (IsDevRun() && o.devSafety)
	resolved := ResolveDataPath(path, useTemp)

	if o.logger != nil {
		switch {
		case useTemp:
			o.logger.Warn("running in SAFE MODE (Dev/Test)", "original_path", path, "resolved_path", resolved)
		case IsDevRun():
			o.logger.Warn("running in UNSAFE mode (bypassing dev sandbox)", "path", resolved)
		}
	}
	return resolved
}

func sqliteFile(name string) string {
	if name == "" {
		return ""
	}
	return name + ".db"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
