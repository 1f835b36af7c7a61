// Package debounce collapses bursts of change signals into one trailing call.
//
// Every Signal bumps a generation counter and reschedules the timer for
// now+quiet. When a timer fires it compares its captured generation with the
// current one and does nothing if they differ, so a timer that lost a race
// with a newer Signal or with Stop never reaches the callback.
package debounce

import (
	"sync"
	"time"

	"github.com/bft-labs/canvasship/internal/clock"
)

// DefaultQuiet is the quiet period used when none is given.
const DefaultQuiet = time.Second

// Option configures a Debouncer.
type Option func(*Debouncer)

// WithClock replaces the real clock, mainly for tests.
func WithClock(c clock.Clock) Option {
	return func(d *Debouncer) { d.clock = c }
}

// Debouncer calls fire once, quiet after the last Signal of a burst.
// It is safe for concurrent use.
type Debouncer struct {
	quiet time.Duration
	fire  func()
	clock clock.Clock

	mu         sync.Mutex
	generation uint64
	timer      *clock.Timer
	lastSignal time.Time
	stopped    bool
}

// New creates a Debouncer. A non-positive quiet selects DefaultQuiet.
func New(quiet time.Duration, fire func(), opts ...Option) *Debouncer {
	if quiet <= 0 {
		quiet = DefaultQuiet
	}
	d := &Debouncer{
		quiet: quiet,
		fire:  fire,
		clock: clock.Real(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Quiet returns the configured quiet period.
func (d *Debouncer) Quiet() time.Duration { return d.quiet }

// Signal records a change and (re)schedules the trailing call. Signals after
// Stop are ignored.
func (d *Debouncer) Signal() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}

	d.generation++
	gen := d.generation
	d.lastSignal = d.clock.Now()
	d.timer = d.clock.AfterFunc(d.quiet, func() { d.expire(gen) })
}

// Pending reports whether a trailing call is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// LastSignal returns the time of the most recent Signal.
func (d *Debouncer) LastSignal() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastSignal
}

// Stop cancels any scheduled call. No callback starts after Stop returns,
// though one already running is not interrupted.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	d.generation++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *Debouncer) expire(gen uint64) {
	d.mu.Lock()
	if d.stopped || gen != d.generation {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()

	d.fire()
}
