package fs

import (
	"sync"
	"time"

	"github.com/aretw0/sparklet/pkg/core"
)

// debouncer coalesces bursts of events per ID into the last one.
type debouncer struct {
	delay   time.Duration
	mu      sync.Mutex
	timers  map[string]*time.Timer
	stopped bool
	wg      sync.WaitGroup
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{
		delay:  delay,
		timers: make(map[string]*time.Timer),
	}
}

// add schedules fire(e) after the delay, replacing any pending event with
// the same ID.
func (d *debouncer) add(e core.Event, fire func(core.Event)) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if t, ok := d.timers[e.ID]; ok && t.Stop() {
		d.wg.Done()
	}

	d.wg.Add(1)
	d.timers[e.ID] = time.AfterFunc(d.delay, func() {
		defer d.wg.Done()

		d.mu.Lock()
		stopped := d.stopped
		delete(d.timers, e.ID)
		d.mu.Unlock()

		if !stopped {
			fire(e)
		}
	})
}

// stopAndWait cancels pending events and waits up to timeout for running
// callbacks to return.
func (d *debouncer) stopAndWait(timeout time.Duration) {
	d.mu.Lock()
	d.stopped = true
	for id, t := range d.timers {
		if t.Stop() {
			d.wg.Done()
		}
		delete(d.timers, id)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
	}
}
