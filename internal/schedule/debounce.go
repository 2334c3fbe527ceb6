// Package schedule provides a coalescing scheduler: a debouncer that
// collapses bursts of triggers into a single execution of a fixed
// function. It is decoupled from what it triggers so it can be tested on
// its own.
package schedule

import (
	"sync"
	"time"
)

// Mode selects which edge of a trigger burst runs the function.
type Mode int

// Debounce modes
const (
	// Trailing runs the function once, delay after the last trigger.
	Trailing Mode = iota
	// Leading runs the function on the first trigger and suppresses
	// further runs until the burst has been quiet for delay.
	Leading
)

// Debouncer collapses bursts of Trigger calls into single executions.
type Debouncer struct {
	mu      sync.Mutex
	fn      func()
	delay   time.Duration
	mode    Mode
	timer   *time.Timer
	pending bool
	stopped bool
}

// NewDebouncer creates a debouncer running fn per the given mode and delay.
func NewDebouncer(fn func(), delay time.Duration, mode Mode) *Debouncer {
	return &Debouncer{fn: fn, delay: delay, mode: mode}
}

// Trigger requests an execution. Bursts within the delay window collapse
// into one run.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}

	if d.mode == Leading {
		if d.timer != nil {
			// Inside the quiet window: extend it, no new run.
			d.timer.Reset(d.delay)
			d.mu.Unlock()
			return
		}
		d.timer = time.AfterFunc(d.delay, d.expireLeading)
		d.mu.Unlock()
		d.fn()
		return
	}

	d.pending = true
	if d.timer == nil {
		d.timer = time.AfterFunc(d.delay, d.expireTrailing)
	} else {
		d.timer.Reset(d.delay)
	}
	d.mu.Unlock()
}

func (d *Debouncer) expireLeading() {
	d.mu.Lock()
	d.timer = nil
	d.mu.Unlock()
}

func (d *Debouncer) expireTrailing() {
	d.mu.Lock()
	if d.stopped || !d.pending {
		d.timer = nil
		d.mu.Unlock()
		return
	}
	d.pending = false
	d.timer = nil
	d.mu.Unlock()
	d.fn()
}

// Flush runs any pending trailing execution immediately.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	run := d.pending && !d.stopped
	d.pending = false
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()
	if run {
		d.fn()
	}
}

// Stop cancels any pending execution. Further triggers are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	d.pending = false
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
