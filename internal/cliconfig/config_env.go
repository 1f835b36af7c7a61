package cliconfig

import "os"

// EnvPrefix prefixes every environment variable read by ApplyEnvConfig.
const EnvPrefix = "CANVASSHIP_"

// ApplyEnvConfig applies configuration from environment variables (CANVASSHIP_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)
	env := func(name string) string { return os.Getenv(EnvPrefix + name) }

	s.setString("document", env("DOCUMENT"), &cfg.DocumentPath)
	s.setString("viewport", env("VIEWPORT"), &cfg.Viewport)
	s.setString("tunnel-host", env("TUNNEL_HOST"), &cfg.TunnelHost)
	s.setString("service-url", env("SERVICE_URL"), &cfg.ServiceURL)
	s.setString("upload-path", env("UPLOAD_PATH"), &cfg.UploadPath)
	s.setString("state-dir", env("STATE_DIR"), &cfg.StateDir)
	s.setString("relay-listen", env("RELAY_LISTEN"), &cfg.RelayListen)
	s.setString("log-level", env("LOG_LEVEL"), &cfg.LogLevel)
	s.setString("log-file", env("LOG_FILE"), &cfg.LogFile)

	if err := s.setDuration("timeout", env("HTTP_TIMEOUT"), &cfg.HTTPTimeout); err != nil {
		return err
	}
	if err := s.setDuration("quiet", env("QUIET"), &cfg.Quiet); err != nil {
		return err
	}
	if err := s.setDuration("backoff-initial", env("BACKOFF_INITIAL"), &cfg.BackoffInitial); err != nil {
		return err
	}
	if err := s.setDuration("backoff-max", env("BACKOFF_MAX"), &cfg.BackoffMax); err != nil {
		return err
	}

	if err := s.setIntFromString("tunnel-port", env("TUNNEL_PORT"), &cfg.TunnelPort); err != nil {
		return err
	}
	if err := s.setIntFromString("max-frame-bytes", env("MAX_FRAME_BYTES"), &cfg.MaxFrameBytes); err != nil {
		return err
	}

	if err := s.setFloatFromString("grow-margin", env("GROW_MARGIN"), &cfg.GrowMargin); err != nil {
		return err
	}
	if err := s.setFloatFromString("max-surface", env("MAX_SURFACE"), &cfg.MaxSurface); err != nil {
		return err
	}
	if err := s.setFloatFromString("initial-surface", env("INITIAL_SURFACE"), &cfg.InitialSurface); err != nil {
		return err
	}

	s.setBoolFromString("once", env("ONCE"), &cfg.Once)

	return nil
}
