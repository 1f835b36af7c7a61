package cliconfig

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/bft-labs/canvasship/pkg/log"
)

var logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
	With().Timestamp().Logger()

// Logger returns the bootstrap console logger used before configuration
// is loaded.
func Logger() zerolog.Logger {
	return logger
}

// rotatingFile returns the rotated log file written with --log-file.
func rotatingFile(name string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   name,
		MaxSize:    25, // megabytes
		MaxBackups: 10,
		MaxAge:     14, // days
		Compress:   true,
	}
}

// NewLogger builds the runtime logger: console output on stderr plus, when
// file is set, JSON lines into a rotating file. The returned closer
// releases the file and is never nil.
func NewLogger(level, file string) (zerolog.Logger, io.Closer, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), nopCloser{}, err
	}

	var out io.Writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	var closer io.Closer = nopCloser{}
	if file != "" {
		rot := rotatingFile(file)
		out = zerolog.MultiLevelWriter(out, rot)
		closer = rot
	}

	l := zerolog.New(out).Level(zerologLevel(lvl)).With().Timestamp().Logger()
	return l, closer, nil
}

func zerologLevel(l log.Level) zerolog.Level {
	switch l {
	case log.LevelDebug:
		return zerolog.DebugLevel
	case log.LevelWarn:
		return zerolog.WarnLevel
	case log.LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
