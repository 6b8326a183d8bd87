package scheduler

import (
	"sync"
	"time"

	"github.com/okian/bullseye/pkg/metrics"
)

// Debouncer holds at most one pending task. Scheduling a new task replaces the
// pending one and restarts the quiet period.
type Debouncer struct {
	mu      sync.Mutex
	clock   Clock
	delay   time.Duration
	timer   Timer
	pending func()
	gen     uint64
}

// NewDebouncer creates a debouncer firing after delay of quiet on clock.
func NewDebouncer(clock Clock, delay time.Duration) *Debouncer {
	if clock == nil {
		clock = RealClock()
	}
	if delay < 0 {
		delay = 0
	}
	return &Debouncer{clock: clock, delay: delay}
}

// Trigger schedules fn, collapsing any task still waiting.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending != nil {
		d.timer.Stop()
		metrics.RecordDebounceCollapsed()
	}
	d.gen++
	gen := d.gen
	d.pending = fn
	d.timer = d.clock.AfterFunc(d.delay, func() { d.fire(gen) })
}

// Cancel drops the pending task. It reports whether one was pending.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending == nil {
		return false
	}
	d.timer.Stop()
	d.clear()
	return true
}

// Flush runs the pending task now instead of waiting. It reports whether a task ran.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	if d.pending == nil {
		d.mu.Unlock()
		return false
	}
	d.timer.Stop()
	fn := d.pending
	d.clear()
	d.mu.Unlock()
	fn()
	return true
}

// Pending reports whether a task is waiting.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || d.pending == nil {
		d.mu.Unlock()
		return
	}
	fn := d.pending
	d.clear()
	d.mu.Unlock()
	fn()
}

// clear resets the slot. Caller holds mu.
func (d *Debouncer) clear() {
	d.pending = nil
	d.timer = nil
	d.gen++
}
