package pipeline

import (
	"sync"
	"time"

	"github.com/Akshay-i95/quick-order-app/internal/model"
)

// debouncer coalesces rapid edits per variant. Scheduling resets the
// variant's timer, so within one window only the last callback fires.
type debouncer struct {
	mu     sync.Mutex
	window time.Duration
	timers map[model.VariantID]*time.Timer
}

func newDebouncer(window time.Duration) *debouncer {
	return &debouncer{
		window: window,
		timers: make(map[model.VariantID]*time.Timer),
	}
}

// schedule arms (or re-arms) the variant's timer to run fn after the window.
func (d *debouncer) schedule(id model.VariantID, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.timers[id]; ok {
		t.Stop()
	}
	d.timers[id] = time.AfterFunc(d.window, func() {
		d.mu.Lock()
		delete(d.timers, id)
		d.mu.Unlock()
		fn()
	})
}

// cancel drops any pending timer for the variant.
func (d *debouncer) cancel(id model.VariantID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.timers[id]; ok {
		t.Stop()
		delete(d.timers, id)
	}
}

// stopAll cancels every pending timer.
func (d *debouncer) stopAll() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for id, t := range d.timers {
		t.Stop()
		delete(d.timers, id)
	}
}
