package cliconfig

import (
	"fmt"
	"math"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bft-labs/canvasship/pkg/capture"
	"github.com/bft-labs/canvasship/pkg/frame"
	"github.com/bft-labs/canvasship/pkg/log"
	"github.com/bft-labs/canvasship/pkg/surface"
	"github.com/bft-labs/canvasship/pkg/tunnel"
)

// DefaultServiceURL is the default base URL of the recognition service.
const DefaultServiceURL = "http://localhost:9999"

// Config holds CLI configuration for canvasship.
type Config struct {
	DocumentPath string

	// Viewport is either "WxH" (centred on the surface) or "x,y,w,h".
	Viewport string

	TunnelHost    string
	TunnelPort    int
	MaxFrameBytes int

	ServiceURL  string
	UploadPath  string
	HTTPTimeout time.Duration

	Quiet          time.Duration
	GrowMargin     float64
	MaxSurface     float64
	InitialSurface float64

	StateDir    string
	RelayListen string

	BackoffInitial time.Duration
	BackoffMax     time.Duration

	LogLevel string
	LogFile  string
	Once     bool
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		TunnelHost:     "localhost",
		TunnelPort:     tunnel.DefaultPort,
		MaxFrameBytes:  int(frame.DefaultMaxPayload),
		ServiceURL:     DefaultServiceURL,
		UploadPath:     capture.DefaultUploadPath,
		HTTPTimeout:    15 * time.Second,
		Quiet:          time.Second,
		GrowMargin:     surface.DefaultMargin,
		MaxSurface:     surface.DefaultMaxExtent,
		InitialSurface: surface.DefaultInitialExtent,
		RelayListen:    "127.0.0.1:7777",
		BackoffInitial: 500 * time.Millisecond,
		BackoffMax:     30 * time.Second,
		LogLevel:       "info",
	}
}

// Validate checks the configuration for errors and sets derived defaults.
func (c *Config) Validate() error {
	if c.DocumentPath == "" {
		return fmt.Errorf("document is required")
	}

	if c.StateDir == "" {
		c.StateDir = filepath.Dir(c.DocumentPath)
	}

	if c.ServiceURL == "" {
		c.ServiceURL = DefaultServiceURL
	}
	c.ServiceURL = strings.TrimRight(c.ServiceURL, "/")
	u, err := url.Parse(c.ServiceURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("service url %q is not absolute", c.ServiceURL)
	}

	if c.UploadPath == "" {
		c.UploadPath = capture.DefaultUploadPath
	}
	if !strings.HasPrefix(c.UploadPath, "/") {
		c.UploadPath = "/" + c.UploadPath
	}

	if c.TunnelPort < 1 || c.TunnelPort > 65535 {
		return fmt.Errorf("tunnel port %d out of range", c.TunnelPort)
	}
	if c.MaxFrameBytes <= 0 {
		return fmt.Errorf("max frame bytes must be positive")
	}
	if int64(c.MaxFrameBytes) > math.MaxUint32 {
		return fmt.Errorf("max frame bytes %d exceeds %d", c.MaxFrameBytes, uint32(math.MaxUint32))
	}
	if c.Quiet <= 0 {
		return fmt.Errorf("quiet period must be positive")
	}
	if c.GrowMargin <= 0 {
		return fmt.Errorf("grow margin must be positive")
	}
	if c.InitialSurface <= 0 || c.MaxSurface < c.InitialSurface {
		return fmt.Errorf("initial surface %.0f must be positive and not exceed max surface %.0f", c.InitialSurface, c.MaxSurface)
	}
	if c.BackoffInitial <= 0 || c.BackoffMax < c.BackoffInitial {
		return fmt.Errorf("backoff initial %v must be positive and not exceed backoff max %v", c.BackoffInitial, c.BackoffMax)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if _, err := c.ParseViewport(); err != nil {
		return err
	}

	return nil
}

// ViewportSpec is the parsed form of Config.Viewport.
type ViewportSpec struct {
	X, Y          float64
	Width, Height float64
	// Positioned is true when an explicit origin was given.
	Positioned bool
}

// ParseViewport parses Config.Viewport. The empty string yields a zero spec.
func (c *Config) ParseViewport() (ViewportSpec, error) {
	raw := strings.TrimSpace(c.Viewport)
	if raw == "" {
		return ViewportSpec{}, nil
	}

	if w, h, ok := strings.Cut(strings.ToLower(raw), "x"); ok && !strings.Contains(raw, ",") {
		width, err1 := strconv.ParseFloat(strings.TrimSpace(w), 64)
		height, err2 := strconv.ParseFloat(strings.TrimSpace(h), 64)
		if err1 != nil || err2 != nil || width <= 0 || height <= 0 {
			return ViewportSpec{}, fmt.Errorf("viewport %q: want WxH with positive sizes", raw)
		}
		return ViewportSpec{Width: width, Height: height}, nil
	}

	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return ViewportSpec{}, fmt.Errorf("viewport %q: want WxH or x,y,w,h", raw)
	}
	var vals [4]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return ViewportSpec{}, fmt.Errorf("viewport %q: %w", raw, err)
		}
		vals[i] = v
	}
	if vals[2] <= 0 || vals[3] <= 0 {
		return ViewportSpec{}, fmt.Errorf("viewport %q: width and height must be positive", raw)
	}
	return ViewportSpec{X: vals[0], Y: vals[1], Width: vals[2], Height: vals[3], Positioned: true}, nil
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setFloat sets a float64 value if positive and flag not changed.
func (s *configSetter) setFloat(flag string, value float64, dst *float64) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setFloatFromString parses a string to float64 and sets the destination if valid.
func (s *configSetter) setFloatFromString(flag, value string, dst *float64) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if f <= 0 {
		return nil
	}
	*dst = f
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
