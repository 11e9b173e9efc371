// Package lifecycle turns store change notifications into lifecycle events
// that carry the refreshed state of the notes collection.
package lifecycle

import (
	"context"
	"fmt"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/sparklet/pkg/core"
)

// Reloader is the part of core.Manager a Source needs.
type Reloader interface {
	Reload(ctx context.Context) ([]core.Note, error)
	Stats(ctx context.Context) (core.Stats, error)
}

// NotesChanged is emitted once the manager has reloaded after an external
// change. Err is set when the reload failed, in which case Stats is zero.
type NotesChanged struct {
	Change core.Event
	Stats  core.Stats
	Err    error
}

func (e NotesChanged) String() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: reload failed: %v", e.Change, e.Err)
	}
	return fmt.Sprintf("%s: active=%d trash=%d", e.Change, e.Stats.Active, e.Stats.Trash)
}

type notesSource struct {
	events  <-chan core.Event
	notes   Reloader
	ignored map[core.EventType]bool
	out     chan lifecycle.Event
}

// SourceOption configures a Source.
type SourceOption func(*notesSource)

// IgnoreEvents drops store events of the given types before any reload.
func IgnoreEvents(types ...core.EventType) SourceOption {
	return func(s *notesSource) {
		for _, t := range types {
			s.ignored[t] = true
		}
	}
}

// NewSource wraps a store change feed as a lifecycle.Source. Every change
// reloads notes and is re-emitted as a NotesChanged event, so a lifecycle
// router sees what other processes did to the collection.
func NewSource(events <-chan core.Event, notes Reloader, opts ...SourceOption) lifecycle.Source {
	s := &notesSource{
		events:  events,
		notes:   notes,
		ignored: make(map[core.EventType]bool),
		out:     make(chan lifecycle.Event),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *notesSource) Events() <-chan lifecycle.Event {
	return s.out
}

func (s *notesSource) Start(ctx context.Context) error {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-s.events:
				if !ok {
					return nil
				}
				if s.ignored[e.Type] {
					continue
				}
				select {
				case s.out <- s.refresh(ctx, e):
				case <-ctx.Done():
					return nil
				}
			}
		}
	})
	return nil
}

func (s *notesSource) refresh(ctx context.Context, e core.Event) NotesChanged {
	changed := NotesChanged{Change: e}
	if _, err := s.notes.Reload(ctx); err != nil {
		changed.Err = err
		return changed
	}
	changed.Stats, changed.Err = s.notes.Stats(ctx)
	return changed
}
