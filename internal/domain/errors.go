package domain

import "errors"

// Domain errors represent error conditions in the canvasship domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrAlreadyRunning is returned when Start() is called on a running session.
	ErrAlreadyRunning = errors.New("canvasship: already running")

	// ErrNotRunning is returned when Stop() is called on a stopped session.
	ErrNotRunning = errors.New("canvasship: not running")

	// ErrShutdownTimeout is returned when graceful shutdown times out.
	ErrShutdownTimeout = errors.New("canvasship: shutdown timeout")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("canvasship: invalid configuration")

	// ErrInvalidDocument is returned when a surface document cannot be parsed.
	ErrInvalidDocument = errors.New("canvasship: invalid document")
)
