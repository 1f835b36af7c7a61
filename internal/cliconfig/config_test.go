package cliconfig

import (
	"math"
	"testing"
	"time"
)

// Variables, not constants, so the int conversions compile on 32-bit targets.
var (
	maxUint32  int64 = math.MaxUint32
	overUint32 int64 = math.MaxUint32 + 1
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.TunnelPort != 9999 {
		t.Errorf("TunnelPort = %v, want 9999", cfg.TunnelPort)
	}
	if cfg.Quiet != time.Second {
		t.Errorf("Quiet = %v, want 1s", cfg.Quiet)
	}
	if cfg.ServiceURL != DefaultServiceURL {
		t.Errorf("ServiceURL = %v, want %v", cfg.ServiceURL, DefaultServiceURL)
	}
	if cfg.UploadPath != "/ocr" {
		t.Errorf("UploadPath = %v, want /ocr", cfg.UploadPath)
	}
	if cfg.GrowMargin != 1000 || cfg.MaxSurface != 100000 || cfg.InitialSurface != 50000 {
		t.Errorf("surface defaults = %v/%v/%v, want 1000/100000/50000", cfg.GrowMargin, cfg.MaxSurface, cfg.InitialSurface)
	}
	if cfg.MaxFrameBytes != 16<<20 {
		t.Errorf("MaxFrameBytes = %v, want 16MiB", cfg.MaxFrameBytes)
	}
}

func validConfig() Config {
	cfg := DefaultConfig()
	cfg.DocumentPath = "/tmp/canvas/doc.json"
	return cfg
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid defaults with document", mutate: func(*Config) {}},
		{name: "missing document", mutate: func(c *Config) { c.DocumentPath = "" }, wantErr: true},
		{name: "relative service url", mutate: func(c *Config) { c.ServiceURL = "ocr.local" }, wantErr: true},
		{name: "port zero", mutate: func(c *Config) { c.TunnelPort = 0 }, wantErr: true},
		{name: "port too large", mutate: func(c *Config) { c.TunnelPort = 70000 }, wantErr: true},
		{name: "zero quiet", mutate: func(c *Config) { c.Quiet = 0 }, wantErr: true},
		{name: "zero margin", mutate: func(c *Config) { c.GrowMargin = 0 }, wantErr: true},
		{name: "initial above max", mutate: func(c *Config) { c.InitialSurface = c.MaxSurface + 1 }, wantErr: true},
		{name: "backoff max below initial", mutate: func(c *Config) { c.BackoffMax = c.BackoffInitial / 2 }, wantErr: true},
		{name: "unknown log level", mutate: func(c *Config) { c.LogLevel = "chatty" }, wantErr: true},
		{name: "bad viewport", mutate: func(c *Config) { c.Viewport = "1,2,3" }, wantErr: true},
		{name: "sized viewport", mutate: func(c *Config) { c.Viewport = "800x600" }},
		{name: "zero frame limit", mutate: func(c *Config) { c.MaxFrameBytes = 0 }, wantErr: true},
		{name: "largest frame limit", mutate: func(c *Config) { c.MaxFrameBytes = int(maxUint32) }},
		{name: "frame limit beyond uint32", mutate: func(c *Config) { c.MaxFrameBytes = int(overUint32) }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Validate_Derivations(t *testing.T) {
	c1 := validConfig()
	c1.ServiceURL = "http://api.com/base/"
	c1.UploadPath = "ocr"
	if err := c1.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if c1.ServiceURL != "http://api.com/base" {
		t.Errorf("ServiceURL = %v, want trailing slash trimmed", c1.ServiceURL)
	}
	if c1.UploadPath != "/ocr" {
		t.Errorf("UploadPath = %v, want /ocr", c1.UploadPath)
	}
	if c1.StateDir != "/tmp/canvas" {
		t.Errorf("StateDir = %v, want document directory", c1.StateDir)
	}

	c2 := validConfig()
	c2.StateDir = "/state"
	c2.ServiceURL = ""
	if err := c2.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if c2.StateDir != "/state" {
		t.Errorf("StateDir = %v, want /state", c2.StateDir)
	}
	if c2.ServiceURL != DefaultServiceURL {
		t.Errorf("ServiceURL = %v, want %v", c2.ServiceURL, DefaultServiceURL)
	}
}

func TestConfig_ParseViewport(t *testing.T) {
	tests := []struct {
		in      string
		want    ViewportSpec
		wantErr bool
	}{
		{in: "", want: ViewportSpec{}},
		{in: "1024x768", want: ViewportSpec{Width: 1024, Height: 768}},
		{in: " 800 X 600 ", want: ViewportSpec{Width: 800, Height: 600}},
		{in: "10,20,300,400", want: ViewportSpec{X: 10, Y: 20, Width: 300, Height: 400, Positioned: true}},
		{in: "-5, -5, 100, 50", want: ViewportSpec{X: -5, Y: -5, Width: 100, Height: 50, Positioned: true}},
		{in: "0x600", wantErr: true},
		{in: "axb", wantErr: true},
		{in: "1,2,3,0", wantErr: true},
		{in: "1,2,three,4", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			c := Config{Viewport: tt.in}
			got, err := c.ParseViewport()
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseViewport(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseViewport(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}
