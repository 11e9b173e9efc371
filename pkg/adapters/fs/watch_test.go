package fs

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/sparklet/pkg/core"
)

func TestDebouncer_CoalescesPerID(t *testing.T) {
	d := newDebouncer(20 * time.Millisecond)

	var mu sync.Mutex
	var fired []core.Event
	record := func(e core.Event) {
		mu.Lock()
		defer mu.Unlock()
		fired = append(fired, e)
	}

	d.add(core.Event{ID: "a", Type: core.EventCreate}, record)
	d.add(core.Event{ID: "a", Type: core.EventModify}, record)
	d.add(core.Event{ID: "b", Type: core.EventModify}, record)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(fired) == 2
	}, time.Second, 5*time.Millisecond)

	d.stopAndWait(time.Second)
	mu.Lock()
	defer mu.Unlock()
	for _, e := range fired {
		if e.ID == "a" {
			assert.Equal(t, core.EventModify, e.Type, "last event wins")
		}
	}
}

func TestDebouncer_StopDropsPending(t *testing.T) {
	d := newDebouncer(time.Hour)
	called := false
	d.add(core.Event{ID: "a"}, func(core.Event) { called = true })
	d.stopAndWait(time.Second)
	d.add(core.Event{ID: "b"}, func(core.Event) { called = true })
	assert.False(t, called)
}

func TestStore_WatchReportsExternalChanges(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping watcher test in short mode")
	}

	dir := t.TempDir()
	s := NewStore(Config{Path: dir})
	require.NoError(t, s.Initialize(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := s.Watch(ctx, "")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return s.State().(StoreState).WatcherActive
	}, 2*time.Second, 10*time.Millisecond)

	// Another process sharing the directory.
	other := NewStore(Config{Path: dir})
	require.NoError(t, other.Write(context.Background(), core.NotesKey, []byte(`[]`)))

	select {
	case e := <-events:
		assert.Equal(t, DefaultName, e.ID)
		assert.NotEmpty(t, e.Type)
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for external change event")
	}

	cancel()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("events channel was not closed after cancel")
		}
	}
}

func TestStore_WatchRejectsBadPattern(t *testing.T) {
	s := NewStore(Config{Path: t.TempDir()})
	_, err := s.Watch(context.Background(), "[")
	assert.Error(t, err)
}
