// Package schedule holds the timing glue around refresh passes: a debouncer
// for bursts of edits and a daily scheduler firing just after local midnight.
package schedule

import (
	"log/slog"
	"sync"
	"time"
)

// DefaultDebounce is the quiet interval used when none is configured.
const DefaultDebounce = 600 * time.Millisecond

// State is the debouncer's state.
type State int

const (
	// Idle: no call scheduled.
	Idle State = iota
	// Pending: a call is scheduled at the deadline.
	Pending
	// Firing: the function is running and no newer trigger has arrived.
	Firing
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Firing:
		return "firing"
	default:
		return "idle"
	}
}

// Debouncer coalesces bursts of triggers into one call after a quiet interval.
//
// Idle --Trigger--> Pending(deadline) --deadline--> Firing --done--> Idle.
// A Trigger while Pending cancels the deadline and arms a new one. A Trigger
// while Firing arms a new deadline; the running call is not interrupted.
type Debouncer struct {
	fn       func() error
	interval func() time.Duration
	logger   *slog.Logger

	mu       sync.Mutex
	state    State
	gen      uint64
	timer    *time.Timer
	deadline time.Time
	stopped  bool
}

// NewDebouncer creates a Debouncer calling fn. interval is consulted on every
// Trigger so configuration changes apply to the next burst; nil or
// non-positive values use DefaultDebounce.
func NewDebouncer(fn func() error, interval func() time.Duration, logger *slog.Logger) *Debouncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Debouncer{fn: fn, interval: interval, logger: logger}
}

// Trigger schedules a call one quiet interval from now.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	wait := DefaultDebounce
	if d.interval != nil {
		if v := d.interval(); v > 0 {
			wait = v
		}
	}

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.state = Pending
	d.deadline = time.Now().Add(wait)
	d.timer = time.AfterFunc(wait, func() { d.fire(gen) })
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if d.stopped || gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.state = Firing
	d.timer = nil
	d.mu.Unlock()

	if err := d.fn(); err != nil {
		d.logger.Error("debounced pass failed", "error", err)
	}

	d.mu.Lock()
	if gen == d.gen && d.state == Firing {
		d.state = Idle
	}
	d.mu.Unlock()
}

// State returns the current state.
func (d *Debouncer) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Deadline returns when the pending call fires; zero unless Pending.
func (d *Debouncer) Deadline() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != Pending {
		return time.Time{}
	}
	return d.deadline
}

// Stop cancels any pending call. Later Triggers are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.state == Pending {
		d.state = Idle
	}
}
