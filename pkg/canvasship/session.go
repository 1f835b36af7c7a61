package canvasship

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"sync"

	"github.com/bft-labs/canvasship/internal/adapters/fs"
	"github.com/bft-labs/canvasship/internal/app"
	"github.com/bft-labs/canvasship/internal/relay"
	"github.com/bft-labs/canvasship/pkg/capture"
	"github.com/bft-labs/canvasship/pkg/log"
	"github.com/bft-labs/canvasship/pkg/surface"
	"github.com/bft-labs/canvasship/pkg/tunnel"
)

// Status snapshot types.
type (
	TunnelStats = app.TunnelStats
	AgentStatus = app.AgentStatus
	RelayStats  = relay.BrokerStats
)

// Snapshot is the document served at the relay's /status endpoint.
type Snapshot struct {
	State   string      `json:"state"`
	Tunnel  TunnelStats `json:"tunnel"`
	Capture AgentStatus `json:"capture"`
}

// Session runs the companion agent: the tunnel client with reconnects, the
// document watcher with its capture pipeline, and the frame relay.
// Use New() to create one, then Start() and Stop().
type Session struct {
	config    Config
	opts      options
	logger    log.Logger
	lifecycle *app.Lifecycle
	agent     *app.Agent
	tunnel    *app.TunnelRunner
	broker    *relay.Broker

	mu     sync.Mutex
	done   chan struct{}
	err    error
	cancel context.CancelFunc
}

// New creates a Session in StateStopped.
// Returns an error wrapping ErrInvalidConfig if cfg is invalid.
func New(cfg Config, opts ...Option) (*Session, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := validateModuleVersions(); err != nil {
		return nil, err
	}

	o := defaultOptions(&http.Client{Timeout: cfg.HTTPTimeout})
	for _, opt := range opts {
		opt(&o)
	}

	s := &Session{
		config: cfg,
		opts:   o,
		logger: o.logger,
		broker: relay.NewBroker(),
	}
	s.lifecycle = app.NewLifecycle(s.logger, (*lifecycleEvents)(s))

	stateDir := cfg.StateDir
	if stateDir == "" {
		stateDir = filepath.Dir(cfg.DocumentPath)
	}

	var agentOpts []app.AgentOption
	if o.renderer != nil {
		agentOpts = append(agentOpts, app.WithRenderer(o.renderer))
	}
	s.agent = app.NewAgent(app.AgentConfig{
		Quiet:          cfg.Quiet,
		GrowMargin:     cfg.GrowMargin,
		MaxExtent:      cfg.MaxSurface,
		InitialSize:    surface.Size{W: cfg.InitialSurface, H: cfg.InitialSurface},
		Viewport:       cfg.Viewport,
		ViewportWidth:  cfg.ViewportWidth,
		ViewportHeight: cfg.ViewportHeight,
		Upload: capture.UploaderConfig{
			ServiceURL:       cfg.ServiceURL,
			Path:             cfg.UploadPath,
			MaxResponseBytes: cfg.MaxResponseBytes,
		},
		Once: cfg.Once,
	},
		fs.NewDocumentWatcher(cfg.DocumentPath, s.logger),
		fs.NewStateFileRepository(stateDir),
		o.httpClient,
		s.logger,
		(*captureEvents)(s),
		agentOpts...,
	)

	s.tunnel = app.NewTunnelRunner(
		app.TunnelRunnerConfig{
			Port:           cfg.TunnelPort,
			BackoffInitial: cfg.BackoffInitial,
			BackoffMax:     cfg.BackoffMax,
		},
		tunnel.Config{
			Host:          cfg.TunnelHost,
			MaxFrameBytes: cfg.MaxFrameBytes,
			DialTimeout:   cfg.HTTPTimeout,
		},
		s.broker,
		s.logger,
		app.WithTunnelObserver(s.onTunnelChange),
	)

	return s, nil
}

// Start launches the session workers and returns once they are running.
// The provided context bounds the lifetime of the session.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.lifecycle.CanStart() {
		return ErrAlreadyRunning
	}
	if err := s.lifecycle.TransitionTo(app.StateStarting, "Start() called"); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.lifecycle.SetCancel(cancel)
	s.done = make(chan struct{})
	s.err = nil
	done := s.done

	if !s.config.Once {
		s.lifecycle.Go(func() {
			if err := s.tunnel.Run(runCtx); err != nil {
				s.crash(fmt.Errorf("tunnel: %w", err))
			}
		})
		if s.config.RelayListen != "" {
			handler := relay.NewServer(s.broker, func() any { return s.Snapshot() }, s.logger)
			s.lifecycle.Go(func() {
				if err := relay.Serve(runCtx, s.config.RelayListen, handler, s.logger, s.opts.relayReady); err != nil {
					s.crash(fmt.Errorf("relay: %w", err))
				}
			})
		}
	}

	s.lifecycle.Go(func() {
		defer close(done)
		err := s.agent.Run(runCtx)
		switch {
		case err != nil && !errors.Is(err, context.Canceled):
			s.crash(err)
		case s.config.Once && runCtx.Err() == nil:
			s.finishOnce()
		}
	})

	if err := s.lifecycle.TransitionTo(app.StateRunning, "workers started"); err != nil {
		s.logger.Debug("session left starting before running", log.Err(err))
	}
	return nil
}

// Stop cancels the workers and waits up to app.ShutdownTimeout for them.
// Returns ErrShutdownTimeout if they do not finish in time.
func (s *Session) Stop() error {
	s.mu.Lock()
	if !s.lifecycle.CanStop() {
		s.mu.Unlock()
		return ErrNotRunning
	}
	if err := s.lifecycle.TransitionTo(app.StateStopping, "Stop() called"); err != nil {
		s.mu.Unlock()
		return err
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	err := s.lifecycle.WaitWithTimeout(app.ShutdownTimeout)
	if err != nil {
		_ = s.lifecycle.TransitionTo(app.StateCrashed, "shutdown timeout")
	} else {
		_ = s.lifecycle.TransitionTo(app.StateStopped, "graceful shutdown")
	}
	return err
}

// Status returns the current lifecycle state.
// Safe to call concurrently from any goroutine.
func (s *Session) Status() State {
	return convertState(s.lifecycle.State())
}

// Done is closed when the capture worker of the current run exits: after
// the single capture in Once mode, on a crash, or after Stop.
// It returns nil before the first Start.
func (s *Session) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// Err returns the error that crashed the session, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Snapshot returns the tunnel and capture status.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		State:   s.Status().String(),
		Tunnel:  s.tunnel.Stats(),
		Capture: s.agent.Status(),
	}
}

// RelayStats returns the frame relay counters.
func (s *Session) RelayStats() RelayStats {
	return s.broker.Stats()
}

// crash records err, moves to StateCrashed and cancels the other workers.
func (s *Session) crash(err error) {
	s.mu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.mu.Unlock()

	s.logger.Error("session worker failed", log.Err(err))
	if terr := s.lifecycle.TransitionTo(app.StateCrashed, err.Error()); terr != nil {
		s.logger.Debug("crash transition skipped", log.Err(terr))
	}
	s.lifecycle.Cancel()
}

// finishOnce stops the session after the single capture. A concurrent Stop
// wins the Stopping transition and finishes the job itself.
func (s *Session) finishOnce() {
	if err := s.lifecycle.TransitionTo(app.StateStopping, "capture complete"); err != nil {
		return
	}
	s.lifecycle.Cancel()
	_ = s.lifecycle.TransitionTo(app.StateStopped, "capture complete")
}

func (s *Session) onTunnelChange(change tunnel.StateChange) {
	if h := s.opts.eventHandler; h != nil {
		h.OnTunnelStateChange(TunnelEvent{Previous: change.Previous, Current: change.Current, Err: change.Err})
	}
}

type lifecycleEvents Session

func (e *lifecycleEvents) OnStateChange(previous, current app.State, reason string) {
	if h := e.opts.eventHandler; h != nil {
		h.OnStateChange(StateChangeEvent{
			Previous: convertState(previous),
			Current:  convertState(current),
			Reason:   reason,
		})
	}
}

type captureEvents Session

func (e *captureEvents) OnCapture(res capture.Result) {
	if h := e.opts.eventHandler; h != nil {
		h.OnCapture(captureEvent(res))
	}
}

func convertState(s app.State) State {
	switch s {
	case app.StateStopped:
		return StateStopped
	case app.StateStarting:
		return StateStarting
	case app.StateRunning:
		return StateRunning
	case app.StateStopping:
		return StateStopping
	case app.StateCrashed:
		return StateCrashed
	default:
		return StateStopped
	}
}
