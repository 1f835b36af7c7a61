package app

import (
	"context"
	"sync"
	"time"

	"github.com/bft-labs/canvasship/internal/clock"
	"github.com/bft-labs/canvasship/internal/ports"
	"github.com/bft-labs/canvasship/pkg/log"
	"github.com/bft-labs/canvasship/pkg/tunnel"
)

// TunnelRunnerConfig configures the reconnect loop around a tunnel client.
type TunnelRunnerConfig struct {
	Port           int
	BackoffInitial time.Duration
	BackoffMax     time.Duration
}

// TunnelStats is a snapshot of the runner's connection history.
type TunnelStats struct {
	State     string `json:"state"`
	Connects  uint64 `json:"connects"`
	Failures  uint64 `json:"failures"`
	Frames    uint64 `json:"frames"`
	Bytes     uint64 `json:"bytes"`
	LastError string `json:"last_error,omitempty"`
}

// TunnelRunnerOption configures a TunnelRunner.
type TunnelRunnerOption func(*TunnelRunner)

// WithTunnelClock replaces the clock used for backoff waits.
func WithTunnelClock(c clock.Clock) TunnelRunnerOption {
	return func(r *TunnelRunner) { r.clock = c }
}

// WithTunnelObserver registers a callback for tunnel state changes.
func WithTunnelObserver(fn func(tunnel.StateChange)) TunnelRunnerOption {
	return func(r *TunnelRunner) { r.observer = fn }
}

// WithTunnelClientOptions passes options through to the tunnel client.
func WithTunnelClientOptions(opts ...tunnel.Option) TunnelRunnerOption {
	return func(r *TunnelRunner) { r.clientOpts = append(r.clientOpts, opts...) }
}

// TunnelRunner keeps a tunnel client connected, reconnecting with
// exponential backoff after failures, and forwards frames to a sink.
type TunnelRunner struct {
	cfg        TunnelRunnerConfig
	sink       ports.FrameSink
	logger     log.Logger
	clock      clock.Clock
	observer   func(tunnel.StateChange)
	clientOpts []tunnel.Option
	client     *tunnel.Client

	mu       sync.Mutex
	stats    TunnelStats
	wasReady bool
}

// NewTunnelRunner creates a runner. Frames are published to sink in wire order.
func NewTunnelRunner(cfg TunnelRunnerConfig, tcfg tunnel.Config, sink ports.FrameSink, logger log.Logger, opts ...TunnelRunnerOption) *TunnelRunner {
	if cfg.Port == 0 {
		cfg.Port = tunnel.DefaultPort
	}
	r := &TunnelRunner{
		cfg:    cfg,
		sink:   sink,
		logger: log.OrNoop(logger),
		clock:  clock.Real(),
		stats:  TunnelStats{State: tunnel.StateIdle.String()},
	}
	for _, opt := range opts {
		opt(r)
	}

	clientOpts := append([]tunnel.Option{
		tunnel.WithHandler(r),
		tunnel.WithLogger(r.logger),
	}, r.clientOpts...)
	r.client = tunnel.NewClient(tcfg, clientOpts...)
	return r
}

// Run connects and reconnects until ctx is cancelled. It returns nil on
// cancellation and an error only if the port is unusable.
func (r *TunnelRunner) Run(ctx context.Context) error {
	bo := newBackoff(r.cfg.BackoffInitial, r.cfg.BackoffMax, r.clock)

	for {
		r.mu.Lock()
		r.wasReady = false
		r.mu.Unlock()

		if err := r.client.Connect(ctx, r.cfg.Port); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			r.client.Close()
			return nil
		case <-r.client.Done():
		}
		if ctx.Err() != nil {
			return nil
		}

		r.mu.Lock()
		ready := r.wasReady
		r.mu.Unlock()
		if ready {
			bo.Reset()
		}

		delay := bo.Current()
		r.logger.Info("tunnel reconnect scheduled",
			log.Int("port", r.cfg.Port),
			log.Duration("backoff", delay),
		)
		if err := bo.Wait(ctx); err != nil {
			return nil
		}
	}
}

// Stats returns a snapshot of the connection history.
func (r *TunnelRunner) Stats() TunnelStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// OnStateChange implements tunnel.Handler.
func (r *TunnelRunner) OnStateChange(change tunnel.StateChange) {
	r.mu.Lock()
	r.stats.State = change.Current.String()
	switch change.Current {
	case tunnel.StateReady:
		r.stats.Connects++
		r.wasReady = true
	case tunnel.StateFailed:
		r.stats.Failures++
		if change.Err != nil {
			r.stats.LastError = change.Err.Error()
		}
	}
	r.mu.Unlock()

	if r.observer != nil {
		r.observer(change)
	}
}

// OnFrame implements tunnel.Handler.
func (r *TunnelRunner) OnFrame(payload []byte) {
	r.mu.Lock()
	r.stats.Frames++
	r.stats.Bytes += uint64(len(payload))
	r.mu.Unlock()

	if r.sink != nil {
		r.sink.Publish(payload)
	}
}
