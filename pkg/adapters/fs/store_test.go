package fs_test

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/sparklet/pkg/adapters/fs"
	"github.com/aretw0/sparklet/pkg/core"
)

func newStore(t *testing.T, cfg fs.Config) *fs.Store {
	t.Helper()
	if cfg.Path == "" {
		cfg.Path = t.TempDir()
	}
	s := fs.NewStore(cfg)
	require.NoError(t, s.Initialize(context.Background()))
	return s
}

func TestStore_ReadWrite(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, fs.Config{})

	_, found, err := s.Read(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Write(ctx, core.NotesKey, []byte(`[{"id":"a"}]`)))
	require.NoError(t, s.Write(ctx, "theme", []byte(`"dark"`)))

	v, found, err := s.Read(ctx, core.NotesKey)
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `[{"id":"a"}]`, string(v))

	// Both keys live in one JSON object file.
	data, err := os.ReadFile(s.File())
	require.NoError(t, err)
	var onDisk map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &onDisk))
	assert.Len(t, onDisk, 2)
	assert.JSONEq(t, `"dark"`, string(onDisk["theme"]))
	assert.Equal(t, filepath.Join(s.Path, "sparklet-data.json"), s.File())
}

func TestStore_RejectsInvalidJSON(t *testing.T) {
	s := newStore(t, fs.Config{})
	err := s.Write(context.Background(), "k", []byte(`{oops`))
	assert.Error(t, err)
}

func TestStore_Defaults(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, fs.Config{
		Defaults: map[string]json.RawMessage{core.NotesKey: json.RawMessage(`[]`)},
	})

	v, found, err := s.Read(ctx, core.NotesKey)
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `[]`, string(v))

	require.NoError(t, s.Write(ctx, core.NotesKey, []byte(`[{"id":"x"}]`)))
	require.NoError(t, s.Clear(ctx))

	v, found, err = s.Read(ctx, core.NotesKey)
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `[]`, string(v), "clear resets to defaults")
}

func TestStore_CorruptFileSelfHeals(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, fs.Config{})
	require.NoError(t, os.WriteFile(s.File(), []byte("{not json"), 0644))

	_, found, err := s.Read(ctx, core.NotesKey)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Write(ctx, core.NotesKey, []byte(`[]`)))
	data, err := os.ReadFile(s.File())
	require.NoError(t, err)
	assert.JSONEq(t, `{"sparkletNotes": []}`, string(data))
}

func TestStore_MustExist(t *testing.T) {
	s := fs.NewStore(fs.Config{
		Path:      filepath.Join(t.TempDir(), "nope"),
		MustExist: true,
	})
	assert.Error(t, s.Initialize(context.Background()))
}

func TestStore_CancelledContext(t *testing.T) {
	s := newStore(t, fs.Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := s.Read(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, s.Write(ctx, "k", []byte(`1`)), context.Canceled)
}

func TestStore_WithManager(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	m := core.NewManager(newStore(t, fs.Config{Path: dir}))
	n, err := m.CreateNote(ctx, "persisted", "#fff")
	require.NoError(t, err)
	_, err = m.DeleteNote(ctx, n.ID)
	require.NoError(t, err)

	// A second manager over the same file sees the flushed state.
	reopened := core.NewManager(newStore(t, fs.Config{Path: dir}))
	trash, err := reopened.GetTrashNotes(ctx)
	require.NoError(t, err)
	require.Len(t, trash, 1)
	assert.Equal(t, "persisted", trash[0].Title)
	assert.True(t, n.CreatedAt.Equal(trash[0].CreatedAt.Time))
}

func TestStore_State(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, fs.Config{})
	require.NoError(t, s.Write(ctx, "k", []byte(`1`)))

	state, ok := s.State().(fs.StoreState)
	require.True(t, ok)
	assert.Equal(t, s.File(), state.File)
	assert.NotNil(t, state.LastWrite)
	assert.Positive(t, state.Size)
	assert.Equal(t, "fs", s.ComponentType())
}

func TestStore_ConcurrentInstancesKeepAllKeys(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Separate instances only share the lock file.
			s := fs.NewStore(fs.Config{Path: dir})
			assert.NoError(t, s.Write(ctx, fmt.Sprintf("key-%d", i), []byte(`true`)))
		}()
	}
	wg.Wait()

	data, err := os.ReadFile(filepath.Join(dir, "sparklet-data.json"))
	require.NoError(t, err)
	var onDisk map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &onDisk))
	assert.Len(t, onDisk, 8)
}
