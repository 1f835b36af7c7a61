package log

// NoopLogger implements Logger by discarding all log messages.
// It is the default for every component constructed without a logger.
type NoopLogger struct{}

// NewNoopLogger creates a new no-op logger.
func NewNoopLogger() *NoopLogger {
	return &NoopLogger{}
}

func (NoopLogger) Debug(msg string, fields ...Field) {}
func (NoopLogger) Info(msg string, fields ...Field)  {}
func (NoopLogger) Warn(msg string, fields ...Field)  {}
func (NoopLogger) Error(msg string, fields ...Field) {}

// OrNoop returns logger, or a NoopLogger when logger is nil.
func OrNoop(logger Logger) Logger {
	if logger == nil {
		return NoopLogger{}
	}
	return logger
}
