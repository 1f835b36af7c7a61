// Package canvasship runs the headless companion agent of a drawing surface.
//
// Example usage:
//
//	cfg := canvasship.DefaultConfig()
//	cfg.DocumentPath = "/path/to/canvas.json"
//	if err := canvasship.Run(context.Background(), cfg); err != nil {
//	    log.Fatal(err)
//	}
//
// For lifecycle control and events use pkg/canvasship directly.
package canvasship

import (
	"context"
	"errors"

	"github.com/bft-labs/canvasship/pkg/canvasship"
)

// Config holds the configuration of the agent.
// Use DefaultConfig() to get a Config with sensible defaults.
type Config = canvasship.Config

// Option configures optional behavior of the agent.
type Option = canvasship.Option

// DefaultServiceURL is the default base URL of the recognition service.
const DefaultServiceURL = canvasship.DefaultServiceURL

// DefaultConfig returns a Config with sensible default values.
// At minimum, you must set DocumentPath before calling Run.
func DefaultConfig() Config {
	return canvasship.DefaultConfig()
}

// Run starts the agent and blocks until ctx is cancelled or, with
// cfg.Once, until the single capture finished.
func Run(ctx context.Context, cfg Config, opts ...Option) error {
	s, err := canvasship.New(cfg, opts...)
	if err != nil {
		return err
	}
	if err := s.Start(ctx); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
	case <-s.Done():
	}

	if err := s.Stop(); err != nil && !errors.Is(err, canvasship.ErrNotRunning) {
		return err
	}
	if s.Status() == canvasship.StateCrashed {
		return s.Err()
	}
	return nil
}
