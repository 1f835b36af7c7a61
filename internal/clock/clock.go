// Package clock abstracts the time functions used by timer-driven code so
// tests can drive them deterministically.
//
// Production code uses Real(). Tests use Fake(t0), register timers, then
// call Advance to fire them synchronously in deadline order.
package clock

import "time"

// Clock is the subset of the time package the debouncer and backoff need.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// AfterFunc waits for d, then calls f in its own goroutine (real) or
	// synchronously from Advance (fake).
	AfterFunc(d time.Duration, f func()) *Timer

	// After returns a channel that receives the time once d has elapsed.
	After(d time.Duration) <-chan time.Time
}

// Timer is a cancellable scheduled call returned by AfterFunc.
type Timer struct {
	stopFunc func() bool
}

// Stop prevents the Timer from firing. Returns false if it already fired
// or was stopped.
func (t *Timer) Stop() bool { return t.stopFunc() }

// Real returns a Clock backed by the standard time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

func (realClock) AfterFunc(d time.Duration, f func()) *Timer {
	t := time.AfterFunc(d, f)
	return &Timer{stopFunc: t.Stop}
}
