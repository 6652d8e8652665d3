// Package lookup orchestrates the external lookups behind the form: the
// debounced per-row ORCID fetch, the ORCID name search, and the in-memory
// ROR funder suggestion index. Lookups are independent per row; a fresh
// input while a request is pending bumps the row's generation so the stale
// response is discarded on arrival.
package lookup

import (
	"strings"
	"sync"
	"time"
)

// Debouncer coalesces rapid triggers per key. Each trigger bumps the key's
// generation; the scheduled function runs after the delay only if no newer
// trigger arrived, and receives a liveness check to consult again after any
// slow work it performs.
type Debouncer struct {
	mu     sync.Mutex
	delay  time.Duration
	gens   map[string]uint64
	timers map[string]*time.Timer
}

// NewDebouncer creates a debouncer with the given settle delay.
func NewDebouncer(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = 300 * time.Millisecond
	}
	return &Debouncer{
		delay:  delay,
		gens:   make(map[string]uint64),
		timers: make(map[string]*time.Timer),
	}
}

// Trigger schedules fn for the key, replacing any pending run. fn receives
// live, which reports whether this trigger is still the key's newest; fn
// must re-check it after fetching before applying results.
func (d *Debouncer) Trigger(key string, fn func(live func() bool)) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.gens[key]++
	gen := d.gens[key]

	if t, ok := d.timers[key]; ok {
		t.Stop()
	}

	live := func() bool {
		d.mu.Lock()
		defer d.mu.Unlock()
		return d.gens[key] == gen
	}

	d.timers[key] = time.AfterFunc(d.delay, func() {
		if !live() {
			return
		}
		fn(live)
	})
}

// Cancel invalidates any pending or in-flight run for the key.
func (d *Debouncer) Cancel(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.gens[key]++
	if t, ok := d.timers[key]; ok {
		t.Stop()
		delete(d.timers, key)
	}
}

// CancelPrefix invalidates every pending or in-flight run whose key starts
// with the prefix.
func (d *Debouncer) CancelPrefix(prefix string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for key := range d.gens {
		if strings.HasPrefix(key, prefix) {
			d.gens[key]++
		}
	}
	for key, t := range d.timers {
		if strings.HasPrefix(key, prefix) {
			t.Stop()
			delete(d.timers, key)
		}
	}
}

// Stop cancels every pending run.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for key, t := range d.timers {
		t.Stop()
		delete(d.timers, key)
		d.gens[key]++
	}
}
