package app

import (
	"context"
	"math/rand"
	"time"

	"github.com/bft-labs/canvasship/internal/clock"
)

// Default backoff configuration values.
const (
	DefaultBackoffInitial = 500 * time.Millisecond
	DefaultBackoffMax     = 10 * time.Second
)

// backoff implements exponential backoff with jitter.
type backoff struct {
	initial time.Duration
	max     time.Duration
	current time.Duration
	clock   clock.Clock
	jitter  func() float64
}

// newBackoff creates a new backoff with the given initial and max durations.
func newBackoff(initial, max time.Duration, clk clock.Clock) *backoff {
	if initial <= 0 {
		initial = DefaultBackoffInitial
	}
	if max < initial {
		max = initial
	}
	if clk == nil {
		clk = clock.Real()
	}
	return &backoff{
		initial: initial,
		max:     max,
		current: initial,
		clock:   clk,
		jitter:  rand.Float64,
	}
}

// Next returns the current delay with ±20% jitter and doubles the delay for
// the following call, capped at max.
func (b *backoff) Next() time.Duration {
	jitter := float64(b.current) * 0.2 * (b.jitter()*2 - 1)
	d := time.Duration(float64(b.current) + jitter)

	b.current *= 2
	if b.current > b.max {
		b.current = b.max
	}
	return d
}

// Wait blocks for the next delay or until ctx is done.
func (b *backoff) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-b.clock.After(b.Next()):
		return nil
	}
}

// Reset resets the backoff to the initial duration.
func (b *backoff) Reset() {
	b.current = b.initial
}

// Current returns the current backoff duration.
func (b *backoff) Current() time.Duration {
	return b.current
}
