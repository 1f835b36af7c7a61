package canvasship

import (
	"net"
	"net/http"

	"github.com/bft-labs/canvasship/pkg/capture"
	"github.com/bft-labs/canvasship/pkg/log"
)

// Option configures optional behavior of a Session.
type Option func(*options)

type options struct {
	httpClient   capture.HTTPClient
	logger       log.Logger
	eventHandler EventHandler
	renderer     capture.Renderer
	relayReady   func(net.Addr)
}

func defaultOptions(client *http.Client) options {
	return options{
		httpClient: client,
		logger:     log.NoopLogger{},
	}
}

// WithHTTPClient sets the client used for uploads.
// If not provided, a client with Config.HTTPTimeout is used.
func WithHTTPClient(client capture.HTTPClient) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = log.OrNoop(logger)
	}
}

// WithEventHandler sets a handler for session events.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// WithRenderer replaces the built-in PNG renderer.
func WithRenderer(r capture.Renderer) Option {
	return func(o *options) {
		o.renderer = r
	}
}

// WithRelayReady registers a callback that receives the relay's bound
// address once it is listening.
func WithRelayReady(fn func(net.Addr)) Option {
	return func(o *options) {
		o.relayReady = fn
	}
}
