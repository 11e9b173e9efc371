package sqlite_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/sparklet/pkg/adapters/sqlite"
	"github.com/aretw0/sparklet/pkg/core"
)

func newStore(t *testing.T, dir string) *sqlite.Store {
	t.Helper()
	s := sqlite.NewStore(sqlite.Config{Path: dir})
	require.NoError(t, s.Initialize(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_ReadWrite(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, t.TempDir())

	_, found, err := s.Read(ctx, core.NotesKey)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Write(ctx, core.NotesKey, []byte(`[]`)))
	require.NoError(t, s.Write(ctx, core.NotesKey, []byte(`[{"id":"a"}]`)))

	v, found, err := s.Read(ctx, core.NotesKey)
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `[{"id":"a"}]`, string(v))

	state := s.State().(sqlite.StoreState)
	assert.True(t, state.Open)
	assert.Equal(t, 1, state.Keys)
	assert.NotEmpty(t, state.LastWrite)
}

func TestStore_Clear(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, t.TempDir())
	require.NoError(t, s.Write(ctx, "a", []byte(`1`)))
	require.NoError(t, s.Clear(ctx))

	_, found, err := s.Read(ctx, "a")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStore_NotInitialized(t *testing.T) {
	s := sqlite.NewStore(sqlite.Config{Path: t.TempDir()})
	_, _, err := s.Read(context.Background(), "a")
	assert.Error(t, err)
	assert.False(t, s.State().(sqlite.StoreState).Open)
	assert.NoError(t, s.Close())
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s := sqlite.NewStore(sqlite.Config{Path: dir})
	require.NoError(t, s.Initialize(ctx))
	m := core.NewManager(s)
	n, err := m.CreateNote(ctx, "kept", "#000")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened := core.NewManager(newStore(t, dir))
	got, ok, err := reopened.GetNoteByID(ctx, n.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "kept", got.Title)
}
