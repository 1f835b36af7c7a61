package cliconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	Document       string  `toml:"document" yaml:"document"`
	Viewport       string  `toml:"viewport" yaml:"viewport"`
	TunnelHost     string  `toml:"tunnel_host" yaml:"tunnel_host"`
	TunnelPort     int     `toml:"tunnel_port" yaml:"tunnel_port"`
	MaxFrameBytes  int     `toml:"max_frame_bytes" yaml:"max_frame_bytes"`
	ServiceURL     string  `toml:"service_url" yaml:"service_url"`
	UploadPath     string  `toml:"upload_path" yaml:"upload_path"`
	HTTPTimeout    string  `toml:"http_timeout" yaml:"http_timeout"`
	Quiet          string  `toml:"quiet" yaml:"quiet"`
	GrowMargin     float64 `toml:"grow_margin" yaml:"grow_margin"`
	MaxSurface     float64 `toml:"max_surface" yaml:"max_surface"`
	InitialSurface float64 `toml:"initial_surface" yaml:"initial_surface"`
	StateDir       string  `toml:"state_dir" yaml:"state_dir"`
	RelayListen    string  `toml:"relay_listen" yaml:"relay_listen"`
	BackoffInitial string  `toml:"backoff_initial" yaml:"backoff_initial"`
	BackoffMax     string  `toml:"backoff_max" yaml:"backoff_max"`
	LogLevel       string  `toml:"log_level" yaml:"log_level"`
	LogFile        string  `toml:"log_file" yaml:"log_file"`
	Once           *bool   `toml:"once" yaml:"once"`
}

// LoadFileConfig reads and parses a config file from the given path.
// Files ending in .yaml or .yml are parsed as YAML, everything else as TOML.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		if err := toml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.canvasship/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".canvasship", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("document", fc.Document, &cfg.DocumentPath)
	s.setString("viewport", fc.Viewport, &cfg.Viewport)
	s.setString("tunnel-host", fc.TunnelHost, &cfg.TunnelHost)
	s.setString("service-url", fc.ServiceURL, &cfg.ServiceURL)
	s.setString("upload-path", fc.UploadPath, &cfg.UploadPath)
	s.setString("state-dir", fc.StateDir, &cfg.StateDir)
	s.setString("relay-listen", fc.RelayListen, &cfg.RelayListen)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)
	s.setString("log-file", fc.LogFile, &cfg.LogFile)

	if err := s.setDuration("timeout", fc.HTTPTimeout, &cfg.HTTPTimeout); err != nil {
		return err
	}
	if err := s.setDuration("quiet", fc.Quiet, &cfg.Quiet); err != nil {
		return err
	}
	if err := s.setDuration("backoff-initial", fc.BackoffInitial, &cfg.BackoffInitial); err != nil {
		return err
	}
	if err := s.setDuration("backoff-max", fc.BackoffMax, &cfg.BackoffMax); err != nil {
		return err
	}

	s.setInt("tunnel-port", fc.TunnelPort, &cfg.TunnelPort)
	s.setInt("max-frame-bytes", fc.MaxFrameBytes, &cfg.MaxFrameBytes)

	s.setFloat("grow-margin", fc.GrowMargin, &cfg.GrowMargin)
	s.setFloat("max-surface", fc.MaxSurface, &cfg.MaxSurface)
	s.setFloat("initial-surface", fc.InitialSurface, &cfg.InitialSurface)

	s.setBool("once", fc.Once, &cfg.Once)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
