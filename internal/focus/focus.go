// Package focus tracks whether the property-editing surface holds input
// focus. Losing focus only deactivates after a short grace delay so that a
// focus hop between two properties in the same surface does not flicker.
package focus

import (
	"sync"
	"time"
)

// Tracker is the Inactive/Active state machine for one surface.
// It holds no state beyond the current flag and is rebuilt each session.
type Tracker struct {
	mu       sync.Mutex
	active   bool
	grace    time.Duration
	blur     *time.Timer
	onChange func(active bool)
	stopped  bool
}

// New creates a tracker. onChange fires on every state transition and may
// be nil.
func New(grace time.Duration, onChange func(active bool)) *Tracker {
	return &Tracker{grace: grace, onChange: onChange}
}

// Active returns the current flag.
func (t *Tracker) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// FocusGained marks the surface active. A pending deactivation from an
// earlier FocusLost is canceled.
func (t *Tracker) FocusGained() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	if t.blur != nil {
		t.blur.Stop()
		t.blur = nil
	}
	changed := !t.active
	t.active = true
	cb := t.onChange
	t.mu.Unlock()

	if changed && cb != nil {
		cb(true)
	}
}

// FocusLost schedules the transition back to inactive after the grace
// delay. A FocusGained inside the window cancels it.
func (t *Tracker) FocusLost() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped || !t.active {
		return
	}
	if t.blur != nil {
		t.blur.Stop()
	}
	t.blur = time.AfterFunc(t.grace, t.deactivate)
}

func (t *Tracker) deactivate() {
	t.mu.Lock()
	if t.stopped || !t.active {
		t.mu.Unlock()
		return
	}
	t.active = false
	t.blur = nil
	cb := t.onChange
	t.mu.Unlock()

	if cb != nil {
		cb(false)
	}
}

// Stop cancels any pending transition and freezes the tracker.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	if t.blur != nil {
		t.blur.Stop()
		t.blur = nil
	}
}
