// Package log provides the logging abstraction used by canvasship components.
//
// Library packages (frame, tunnel, capture, canvasship) never talk to a
// concrete logging library. They accept a [Logger] and default to the
// [NoopLogger] when none is configured. The CLI wires in the zerolog adapter.
//
// # Usage
//
//	logger := log.NewZerologAdapterWithLogger(zerolog.New(os.Stderr))
//	client := tunnel.NewClient(cfg, tunnel.WithLogger(logger.With(log.String("component", "tunnel"))))
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
package log
