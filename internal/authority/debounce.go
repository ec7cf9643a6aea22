package authority

import (
	"context"
	"sync"
	"time"
)

// Debouncer coalesces bursts of graph mutations into a single propagation
// pass. Every MarkDirty restarts the countdown; the pass fires only after
// the graph has been quiet for the configured delay.
type Debouncer struct {
	delay time.Duration
	run   func(context.Context)

	mu     sync.Mutex
	timer  *time.Timer
	closed bool
}

// NewDebouncer creates a debouncer that calls run after each quiet period.
func NewDebouncer(delay time.Duration, run func(context.Context)) *Debouncer {
	return &Debouncer{delay: delay, run: run}
}

// MarkDirty notes a graph change and restarts the countdown.
func (d *Debouncer) MarkDirty() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		d.run(context.Background())
	})
}

// Stop cancels any pending pass. Safe to call more than once.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closed = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
