package platform_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/sparklet/internal/platform"
	"github.com/aretw0/sparklet/pkg/adapters/fs"
	"github.com/aretw0/sparklet/pkg/adapters/memory"
	"github.com/aretw0/sparklet/pkg/adapters/sqlite"
	"github.com/aretw0/sparklet/pkg/core"
)

func TestInit(t *testing.T) {
	ctx := context.Background()

	t.Run("FS Adapter Seeds Defaults", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "data")
		backend, err := platform.Init(ctx, dir, platform.WithForceTemp(true))
		require.NoError(t, err)

		store, ok := backend.(*fs.Store)
		require.True(t, ok, "expected fs store")
		assert.Equal(t, dir, store.Path)

		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())

		raw, found, err := store.Read(ctx, core.NotesKey)
		require.NoError(t, err)
		require.True(t, found)
		assert.JSONEq(t, `[]`, string(raw))
	})

	t.Run("MustExist Fails on Missing Directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "missing")
		_, err := platform.Init(ctx, dir, platform.WithMustExist(true), platform.WithForceTemp(true))
		assert.Error(t, err)
	})

	t.Run("SQLite Adapter", func(t *testing.T) {
		dir := t.TempDir()
		backend, err := platform.Init(ctx, dir, platform.WithAdapter(platform.AdapterSQLite), platform.WithStoreName("notes"))
		require.NoError(t, err)
		store, ok := backend.(*sqlite.Store)
		require.True(t, ok)
		defer store.Close()
		assert.Equal(t, filepath.Join(dir, "notes.db"), store.File())
	})

	t.Run("Memory Adapter", func(t *testing.T) {
		backend, err := platform.Init(ctx, "", platform.WithAdapter(platform.AdapterMemory))
		require.NoError(t, err)
		assert.IsType(t, &memory.Store{}, backend)
	})

	t.Run("Injected Backend", func(t *testing.T) {
		injected := memory.NewStore()
		backend, err := platform.Init(ctx, "ignored", platform.WithAdapter("nope"), platform.WithBackend(injected))
		require.NoError(t, err)
		assert.Same(t, injected, backend)
	})

	t.Run("Unknown Adapter", func(t *testing.T) {
		_, err := platform.Init(ctx, "", platform.WithAdapter("tape"))
		assert.ErrorContains(t, err, "unknown adapter")
	})

	t.Run("Bridge Adapter Unreachable", func(t *testing.T) {
		_, err := platform.Init(ctx, "", platform.WithAdapter(platform.AdapterBridge), platform.WithBridgeURL("http://127.0.0.1:1"))
		assert.Error(t, err)
	})
}

func TestNew(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	m, err := platform.New(ctx, dir, platform.WithKey("customNotes"))
	require.NoError(t, err)

	n, err := m.CreateNote(ctx, "hello", "")
	require.NoError(t, err)

	reopened, err := platform.New(ctx, dir, platform.WithKey("customNotes"))
	require.NoError(t, err)
	got, ok, err := reopened.GetNoteByID(ctx, n.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "hello", got.Title)

	other, err := platform.New(ctx, dir)
	require.NoError(t, err)
	notes, err := other.GetAllNotes(ctx)
	require.NoError(t, err)
	assert.Empty(t, notes, "default key is independent")
}
