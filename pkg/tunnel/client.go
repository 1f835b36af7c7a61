package tunnel

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/bft-labs/canvasship/pkg/frame"
	"github.com/bft-labs/canvasship/pkg/log"
)

// DefaultPort is the relay port used when none is configured.
const DefaultPort = 9999

// Config holds connection settings for a Client.
type Config struct {
	// Host is the relay host. Default: localhost
	Host string

	// MaxFrameBytes bounds a single frame payload. Default: frame.DefaultMaxPayload
	MaxFrameBytes uint32

	// DialTimeout bounds the TCP dial. Zero means no timeout beyond ctx.
	DialTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Host:          "localhost",
		MaxFrameBytes: frame.DefaultMaxPayload,
		DialTimeout:   10 * time.Second,
	}
}

// Dialer opens the transport connection. *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Option configures optional behavior of a Client.
type Option func(*Client)

// WithHandler registers the connection event handler.
func WithHandler(h Handler) Option {
	return func(c *Client) { c.handler = h }
}

// WithLogger sets the logger. Default: no-op.
func WithLogger(l log.Logger) Option {
	return func(c *Client) { c.logger = log.OrNoop(l) }
}

// WithDialer replaces the TCP dialer, mainly for tests.
func WithDialer(d Dialer) Option {
	return func(c *Client) { c.dialer = d }
}

// Client owns a single connection to the relay endpoint.
type Client struct {
	cfg     Config
	handler Handler
	logger  log.Logger
	dialer  Dialer

	mu     sync.Mutex
	state  State
	err    error
	cancel context.CancelFunc
	done   chan struct{}
}

// NewClient creates a Client in StateIdle.
func NewClient(cfg Config, opts ...Option) *Client {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.MaxFrameBytes == 0 {
		cfg.MaxFrameBytes = frame.DefaultMaxPayload
	}

	c := &Client{
		cfg:     cfg,
		handler: HandlerFuncs{},
		logger:  log.NoopLogger{},
		dialer:  &net.Dialer{Timeout: cfg.DialTimeout},
		state:   StateIdle,
	}
	for _, opt := range opts {
		opt(c)
	}

	closed := make(chan struct{})
	close(closed)
	c.done = closed
	return c
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the reason of the last failure, or nil.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Done returns a channel closed when the current connection goroutine has
// exited. Before the first Connect the channel is already closed.
func (c *Client) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}

// Connect starts connecting to Host:port and returns immediately. Progress
// is reported through the Handler. Connect returns ErrAlreadyConnected while
// a previous connection is Connecting or Ready.
func (c *Client) Connect(ctx context.Context, port int) error {
	if port <= 0 || port > 65535 {
		return fmt.Errorf("tunnel: invalid port %d", port)
	}

	c.mu.Lock()
	if c.state.Active() {
		c.mu.Unlock()
		return ErrAlreadyConnected
	}
	// The previous goroutine may still be returning after its final
	// transition; wait for it so two never overlap.
	prevDone := c.done
	c.mu.Unlock()
	<-prevDone

	c.mu.Lock()
	if c.state.Active() {
		c.mu.Unlock()
		return ErrAlreadyConnected
	}
	prev := c.state
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	c.state = StateConnecting
	c.err = nil
	c.cancel = cancel
	c.done = done
	c.mu.Unlock()

	addr := net.JoinHostPort(c.cfg.Host, strconv.Itoa(port))
	go c.run(runCtx, cancel, addr, prev, done)
	return nil
}

// Cancel stops the connection. The Cancelled transition and handler call
// happen on the connection goroutine; use Close to wait for them. No frame
// callback starts once the connection goroutine has observed the cancel.
// Cancel is safe to call from a Handler and more than once.
func (c *Client) Cancel() {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Close cancels the connection and waits for its goroutine to exit. It must
// not be called from a Handler callback.
func (c *Client) Close() {
	c.Cancel()
	<-c.Done()
}

func (c *Client) run(ctx context.Context, cancel context.CancelFunc, addr string, prev State, done chan struct{}) {
	defer close(done)
	defer cancel()

	c.logger.Info("connecting to relay", log.String("addr", addr))
	c.handler.OnStateChange(StateChange{Previous: prev, Current: StateConnecting})

	conn, err := c.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		c.finish(ctx, fmt.Errorf("%w: dial %s: %w", ErrTransport, addr, err))
		return
	}
	defer conn.Close()

	// Unblocks a pending read when the context is cancelled.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if ctx.Err() != nil {
		c.finish(ctx, ctx.Err())
		return
	}
	if !c.transition(StateReady, nil) {
		return
	}
	c.logger.Info("relay connection ready", log.String("addr", addr))

	dec := frame.NewDecoder(conn, c.cfg.MaxFrameBytes)
	for {
		payload, err := dec.Next()
		if err != nil {
			if !errors.Is(err, frame.ErrOversizedFrame) && ctx.Err() == nil {
				err = fmt.Errorf("%w: %w", ErrTransport, err)
			}
			c.finish(ctx, err)
			return
		}
		if ctx.Err() != nil {
			c.finish(ctx, ctx.Err())
			return
		}
		c.logger.Debug("frame received", log.Int("bytes", len(payload)))
		c.handler.OnFrame(payload)
	}
}

// finish records the terminal transition for a connection. A cancelled
// context always wins over the error that its cancellation caused.
func (c *Client) finish(ctx context.Context, err error) {
	if ctx.Err() != nil {
		c.logger.Info("relay connection cancelled")
		c.transition(StateCancelled, nil)
		return
	}
	c.logger.Warn("relay connection failed", log.Err(err))
	c.transition(StateFailed, err)
}

func (c *Client) transition(to State, err error) bool {
	c.mu.Lock()
	from := c.state
	if !canTransition(from, to) {
		c.mu.Unlock()
		c.logger.Debug("ignored state transition",
			log.String("from", from.String()),
			log.String("to", to.String()),
		)
		return false
	}
	c.state = to
	c.err = err
	c.mu.Unlock()

	c.handler.OnStateChange(StateChange{Previous: from, Current: to, Err: err})
	return true
}
