package canvasship

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/bft-labs/canvasship/internal/domain"
	"github.com/bft-labs/canvasship/pkg/capture"
	"github.com/bft-labs/canvasship/pkg/frame"
	"github.com/bft-labs/canvasship/pkg/surface"
	"github.com/bft-labs/canvasship/pkg/tunnel"
)

// DefaultServiceURL is the default base URL of the recognition service.
const DefaultServiceURL = "http://localhost:9999"

// Viewport is a rectangle in surface coordinates.
type Viewport = domain.Viewport

// Config holds the configuration of a Session.
// Use DefaultConfig() and set DocumentPath before calling New.
type Config struct {
	// DocumentPath is the JSON surface document to watch
	DocumentPath string

	// StateDir holds status.json. Default: the document's directory
	StateDir string

	// Viewport overrides the document viewport when non-empty
	Viewport Viewport

	// ViewportWidth and ViewportHeight size the default centred viewport
	ViewportWidth  float64
	ViewportHeight float64

	TunnelHost    string
	TunnelPort    int
	MaxFrameBytes uint32

	ServiceURL       string
	UploadPath       string
	MaxResponseBytes int64
	HTTPTimeout      time.Duration

	// Quiet is the debounce period before a capture
	Quiet time.Duration

	GrowMargin     float64
	MaxSurface     float64
	InitialSurface float64

	// RelayListen is the address of the frame relay. Empty disables it.
	RelayListen string

	BackoffInitial time.Duration
	BackoffMax     time.Duration

	// Once captures the current document a single time and stops.
	// The tunnel and the relay are not started.
	Once bool
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	cfg := Config{}
	cfg.SetDefaults()
	return cfg
}

// SetDefaults fills zero fields with their default values.
func (c *Config) SetDefaults() {
	if c.TunnelHost == "" {
		c.TunnelHost = "localhost"
	}
	if c.TunnelPort == 0 {
		c.TunnelPort = tunnel.DefaultPort
	}
	if c.MaxFrameBytes == 0 {
		c.MaxFrameBytes = frame.DefaultMaxPayload
	}
	if c.ServiceURL == "" {
		c.ServiceURL = DefaultServiceURL
	}
	if c.UploadPath == "" {
		c.UploadPath = capture.DefaultUploadPath
	}
	if c.MaxResponseBytes == 0 {
		c.MaxResponseBytes = capture.DefaultMaxResponseBytes
	}
	if c.HTTPTimeout == 0 {
		c.HTTPTimeout = 15 * time.Second
	}
	if c.Quiet == 0 {
		c.Quiet = time.Second
	}
	if c.GrowMargin == 0 {
		c.GrowMargin = surface.DefaultMargin
	}
	if c.MaxSurface == 0 {
		c.MaxSurface = surface.DefaultMaxExtent
	}
	if c.InitialSurface == 0 {
		c.InitialSurface = surface.DefaultInitialExtent
	}
	if c.BackoffInitial == 0 {
		c.BackoffInitial = 500 * time.Millisecond
	}
	if c.BackoffMax == 0 {
		c.BackoffMax = 30 * time.Second
	}
}

// Validate reports configuration errors. Every error wraps ErrInvalidConfig.
func (c Config) Validate() error {
	if c.DocumentPath == "" {
		return invalid("document path is required")
	}
	u, err := url.Parse(c.ServiceURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return invalid("service url %q is not absolute", c.ServiceURL)
	}
	if !strings.HasPrefix(c.UploadPath, "/") {
		return invalid("upload path %q must start with /", c.UploadPath)
	}
	if c.TunnelPort < 1 || c.TunnelPort > 65535 {
		return invalid("tunnel port %d out of range", c.TunnelPort)
	}
	if c.Quiet <= 0 {
		return invalid("quiet period must be positive")
	}
	if c.GrowMargin <= 0 {
		return invalid("grow margin must be positive")
	}
	if c.InitialSurface <= 0 || c.MaxSurface < c.InitialSurface {
		return invalid("initial surface %.0f must be positive and at most max surface %.0f", c.InitialSurface, c.MaxSurface)
	}
	if c.BackoffInitial <= 0 || c.BackoffMax < c.BackoffInitial {
		return invalid("backoff %v..%v is not a valid range", c.BackoffInitial, c.BackoffMax)
	}
	if c.Viewport.Width < 0 || c.Viewport.Height < 0 {
		return invalid("viewport size must not be negative")
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
