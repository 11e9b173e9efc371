package fs

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/aretw0/lifecycle/pkg/core/worker"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/sparklet/pkg/core"
)

// watchDebounce is how long a burst of events for one file is coalesced.
const watchDebounce = 50 * time.Millisecond

// Watch reports changes to store files in the store directory made by
// other processes. pattern is a doublestar glob matched against the file
// name; empty means this store's own file. The channel is closed once ctx
// is cancelled and the watcher has drained.
func (s *Store) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	if pattern == "" {
		pattern = filepath.Base(s.file)
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid watch pattern: %s", pattern)
	}

	events := make(chan core.Event, 16)
	w := newWatchWorker(s, pattern, events)
	if err := w.Start(ctx); err != nil {
		return nil, err
	}

	lifecycle.Go(ctx, func(ctx context.Context) error {
		<-ctx.Done()
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := w.Stop(stopCtx)
		close(events)
		return err
	}, lifecycle.WithErrorHandler(s.reportError))

	return events, nil
}

func (s *Store) reportError(err error) {
	if s.config.ErrorHandler != nil {
		s.config.ErrorHandler(err)
	} else if s.config.Logger != nil {
		s.config.Logger.Error("watcher failure", "error", err)
	}
}

func (s *Store) setWatcherActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watcherActive = active
}

type watchWorker struct {
	*worker.BaseWorker
	store     *Store
	pattern   string
	events    chan<- core.Event
	watcher   *fsnotify.Watcher
	debouncer *debouncer
	cancel    context.CancelFunc
}

func newWatchWorker(store *Store, pattern string, events chan<- core.Event) *watchWorker {
	return &watchWorker{
		BaseWorker: worker.NewBaseWorker("store-watcher"),
		store:      store,
		pattern:    pattern,
		events:     events,
	}
}

func (w *watchWorker) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	status := w.State().Status
	if status != worker.StatusCreated && status != worker.StatusPending {
		return fmt.Errorf("watcher already started (status: %s)", status)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	// Watch the directory: atomic renames replace the file inode.
	if err := watcher.Add(w.store.Path); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", w.store.Path, err)
	}

	w.watcher = watcher
	w.debouncer = newDebouncer(watchDebounce)
	w.store.setWatcherActive(true)

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.SetStatus(worker.StatusRunning)
	return w.StartFunc(runCtx, w.run)
}

func (w *watchWorker) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.StopRequested = true
		w.cancel()
	}
	return w.BaseWorker.Stop(ctx)
}

func (w *watchWorker) State() worker.State {
	return w.ExportState(func(s *worker.State) {
		s.Metadata = map[string]string{
			worker.MetadataType: string(worker.TypeGoroutine),
			"pattern":           w.pattern,
		}
	})
}

// shouldIgnore filters temp and lock files, non-matching names and our
// own writes.
func (w *watchWorker) shouldIgnore(event fsnotify.Event) bool {
	name := filepath.Base(event.Name)
	if isTempFile(name) || strings.HasSuffix(name, lockSuffix) {
		return true
	}
	if ok, _ := doublestar.Match(w.pattern, name); !ok {
		return true
	}
	if event.Name == w.store.file && !event.Has(fsnotify.Remove) && w.store.isOwnWrite() {
		return true
	}
	return false
}

func mapEventType(event fsnotify.Event) core.EventType {
	switch {
	case event.Has(fsnotify.Create):
		return core.EventCreate
	case event.Has(fsnotify.Write):
		return core.EventModify
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return core.EventDelete
	}
	return ""
}

func (w *watchWorker) processFilesystemEvent(ctx context.Context, event fsnotify.Event) bool {
	if w.store.config.Logger != nil {
		w.store.config.Logger.Debug("event received", "name", event.Name, "op", event.Op.String())
	}

	if w.shouldIgnore(event) {
		return false
	}
	eType := mapEventType(event)
	if eType == "" {
		return false
	}

	base := filepath.Base(event.Name)
	w.sendEvent(ctx, core.Event{
		Type:      eType,
		ID:        strings.TrimSuffix(base, filepath.Ext(base)),
		Timestamp: time.Now().Unix(),
	})
	return true
}

// sendEvent enqueues an event via the debouncer.
func (w *watchWorker) sendEvent(ctx context.Context, event core.Event) {
	w.debouncer.add(event, func(e core.Event) {
		defer func() {
			// The channel may already be closed during shutdown.
			_ = recover()
		}()
		select {
		case w.events <- e:
		case <-ctx.Done():
		}
	})
}

func (w *watchWorker) run(ctx context.Context) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("watcher panic: %v", recovered)
			logger := w.store.config.Logger
			if logger == nil {
				return
			}
			if logger.Enabled(ctx, slog.LevelDebug) {
				logger.Error("watcher panic", "error", err, "stack", string(debug.Stack()))
			} else {
				logger.Error("watcher panic", "error", err)
			}
		}
	}()
	// Timers still in flight must finish before the events channel closes.
	defer w.debouncer.stopAndWait(5 * time.Second)
	defer w.store.setWatcherActive(false)
	defer w.watcher.Close()

	return w.mainEventLoop(ctx)
}

func (w *watchWorker) mainEventLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}
			w.processFilesystemEvent(ctx, event)

		case wErr, ok := <-w.watcher.Errors:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			w.store.reportError(wErr)
		}
	}
}
