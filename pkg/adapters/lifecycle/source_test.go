package lifecycle_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/sparklet/pkg/adapters/lifecycle"
	"github.com/aretw0/sparklet/pkg/adapters/memory"
	"github.com/aretw0/sparklet/pkg/core"
)

func TestSource_ReloadsOnChange(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := memory.NewStore()
	watched := core.NewManager(store)
	_, err := watched.Init(ctx)
	require.NoError(t, err)

	// Another process adds and trashes notes behind the watched manager.
	other := core.NewManager(store)
	_, err = other.CreateNote(ctx, "kept", "")
	require.NoError(t, err)
	gone, err := other.CreateNote(ctx, "gone", "")
	require.NoError(t, err)
	_, err = other.DeleteNote(ctx, gone.ID)
	require.NoError(t, err)

	in := make(chan core.Event, 1)
	src := lifecycle.NewSource(in, watched)
	require.NoError(t, src.Start(ctx))

	in <- core.Event{Type: core.EventModify, ID: "sparklet-data"}

	select {
	case e := <-src.Events():
		changed, ok := e.(lifecycle.NotesChanged)
		require.True(t, ok)
		require.NoError(t, changed.Err)
		assert.Equal(t, 1, changed.Stats.Active)
		assert.Equal(t, 1, changed.Stats.Trash)
		assert.Equal(t, "MODIFY sparklet-data: active=1 trash=1", e.String())
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for change event")
	}

	close(in)
	select {
	case _, ok := <-src.Events():
		assert.False(t, ok, "output closes when input closes")
	case <-time.After(2 * time.Second):
		t.Fatal("output was not closed")
	}
}

func TestSource_ReportsReloadFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan core.Event, 1)
	src := lifecycle.NewSource(in, failingReloader{})
	require.NoError(t, src.Start(ctx))

	in <- core.Event{Type: core.EventCreate, ID: "sparklet-data"}

	select {
	case e := <-src.Events():
		changed := e.(lifecycle.NotesChanged)
		assert.ErrorIs(t, changed.Err, core.ErrUnflushed)
		assert.Contains(t, e.String(), "reload failed")
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for change event")
	}
}

func TestSource_IgnoresEventTypes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan core.Event, 2)
	src := lifecycle.NewSource(in, core.NewManager(memory.NewStore()), lifecycle.IgnoreEvents(core.EventDelete))
	require.NoError(t, src.Start(ctx))

	in <- core.Event{Type: core.EventDelete, ID: "sparklet-data"}
	in <- core.Event{Type: core.EventCreate, ID: "sparklet-data"}

	select {
	case e := <-src.Events():
		assert.Equal(t, core.EventCreate, e.(lifecycle.NotesChanged).Change.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for change event")
	}
}

func TestSource_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := lifecycle.NewSource(make(chan core.Event), failingReloader{})
	require.NoError(t, src.Start(ctx))
	cancel()

	select {
	case _, ok := <-src.Events():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("output was not closed after cancel")
	}
}

type failingReloader struct{}

func (failingReloader) Reload(context.Context) ([]core.Note, error) {
	return nil, core.ErrUnflushed
}

func (failingReloader) Stats(context.Context) (core.Stats, error) {
	return core.Stats{}, nil
}
