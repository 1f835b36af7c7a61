package cliconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewLogger_Levels(t *testing.T) {
	tests := []struct {
		level   string
		want    zerolog.Level
		wantErr bool
	}{
		{level: "", want: zerolog.InfoLevel},
		{level: "debug", want: zerolog.DebugLevel},
		{level: "warn", want: zerolog.WarnLevel},
		{level: "error", want: zerolog.ErrorLevel},
		{level: "loud", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			l, closer, err := NewLogger(tt.level, "")
			defer closer.Close()
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewLogger(%q) error = %v, wantErr %v", tt.level, err, tt.wantErr)
			}
			if !tt.wantErr && l.GetLevel() != tt.want {
				t.Errorf("level = %v, want %v", l.GetLevel(), tt.want)
			}
		})
	}
}

func TestNewLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "canvasship.log")
	l, closer, err := NewLogger("info", path)
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	l.Info().Str("component", "test").Msg("hello file")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), `"message":"hello file"`) {
		t.Errorf("log file = %q, want JSON line with message", data)
	}
}
