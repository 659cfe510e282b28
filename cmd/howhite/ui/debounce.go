package ui

import (
	"sync"
	"time"

	"howhite/internal/virtual"
)

// DefaultResizeDuration is how long the reader waits for a resize storm to
// settle before re-rendering markdown.
const DefaultResizeDuration = 150 * time.Millisecond

// Debouncer runs the last submitted function once calls stop for the
// configured duration. Timers come from a virtual.Scheduler so the function
// runs wherever the scheduler delivers, i.e. inside Update for the TUI.
type Debouncer struct {
	mu       sync.Mutex
	sched    virtual.Scheduler
	timer    virtual.Timer
	duration time.Duration
	seq      uint64
}

// NewDebouncer creates a debouncer.
func NewDebouncer(sched virtual.Scheduler, duration time.Duration) *Debouncer {
	return &Debouncer{sched: sched, duration: duration}
}

// Debounce schedules fn, cancelling any pending call.
func (d *Debouncer) Debounce(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	seq := d.seq
	d.timer = d.sched.AfterFunc(d.duration, func() {
		d.mu.Lock()
		current := seq == d.seq
		if current {
			d.timer = nil
		}
		d.mu.Unlock()
		if current {
			fn()
		}
	})
}

// Pending reports whether a call is waiting.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Cancel drops any pending call.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.seq++
}
