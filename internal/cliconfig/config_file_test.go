package cliconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestApplyFileConfig(t *testing.T) {
	trueVal := true

	tests := []struct {
		name       string
		fileConfig FileConfig
		changed    map[string]bool
		initial    Config
		expected   Config
		wantErr    bool
	}{
		{
			name: "applies all valid config values",
			fileConfig: FileConfig{
				Document:       "/tmp/canvas.json",
				Viewport:       "0,0,1024,768",
				TunnelHost:     "127.0.0.1",
				TunnelPort:     9000,
				MaxFrameBytes:  4096,
				ServiceURL:     "http://example.com",
				UploadPath:     "/ocr",
				HTTPTimeout:    "30s",
				Quiet:          "2s",
				GrowMargin:     1500,
				MaxSurface:     90000,
				InitialSurface: 3000,
				StateDir:       "/state",
				RelayListen:    ":7777",
				BackoffInitial: "100ms",
				BackoffMax:     "10s",
				LogLevel:       "warn",
				LogFile:        "/tmp/log",
				Once:           &trueVal,
			},
			changed: map[string]bool{},
			expected: Config{
				DocumentPath:   "/tmp/canvas.json",
				Viewport:       "0,0,1024,768",
				TunnelHost:     "127.0.0.1",
				TunnelPort:     9000,
				MaxFrameBytes:  4096,
				ServiceURL:     "http://example.com",
				UploadPath:     "/ocr",
				HTTPTimeout:    30 * time.Second,
				Quiet:          2 * time.Second,
				GrowMargin:     1500,
				MaxSurface:     90000,
				InitialSurface: 3000,
				StateDir:       "/state",
				RelayListen:    ":7777",
				BackoffInitial: 100 * time.Millisecond,
				BackoffMax:     10 * time.Second,
				LogLevel:       "warn",
				LogFile:        "/tmp/log",
				Once:           true,
			},
		},
		{
			name: "respects changed flags",
			fileConfig: FileConfig{
				Document:   "/config/canvas.json",
				TunnelHost: "config-host",
			},
			changed: map[string]bool{"document": true},
			initial: Config{
				DocumentPath: "/flag/canvas.json",
				TunnelHost:   "flag-host",
			},
			expected: Config{
				DocumentPath: "/flag/canvas.json", // unchanged because flag was set
				TunnelHost:   "config-host",
			},
		},
		{
			name:       "returns error for invalid duration",
			fileConfig: FileConfig{Quiet: "soon"},
			changed:    map[string]bool{},
			wantErr:    true,
		},
		{
			name:       "unset once keeps the current value",
			fileConfig: FileConfig{},
			changed:    map[string]bool{},
			initial:    Config{Once: true},
			expected:   Config{Once: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.initial
			err := ApplyFileConfig(&cfg, tt.fileConfig, tt.changed)

			if tt.wantErr {
				if err == nil {
					t.Error("ApplyFileConfig() expected error but got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("ApplyFileConfig() unexpected error: %v", err)
			}
			if cfg != tt.expected {
				t.Errorf("ApplyFileConfig() = %+v, want %+v", cfg, tt.expected)
			}
		})
	}
}

func TestLoadFileConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.toml")

	tomlContent := `
document = "/tmp/canvas.json"
tunnel_port = 9001
quiet = "1500ms"
grow_margin = 800.0
once = true
`

	if err := os.WriteFile(configPath, []byte(tomlContent), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	fc, err := LoadFileConfig(configPath)
	if err != nil {
		t.Fatalf("LoadFileConfig() error = %v", err)
	}

	if fc.Document != "/tmp/canvas.json" {
		t.Errorf("Document = %v, want /tmp/canvas.json", fc.Document)
	}
	if fc.TunnelPort != 9001 {
		t.Errorf("TunnelPort = %v, want 9001", fc.TunnelPort)
	}
	if fc.Quiet != "1500ms" {
		t.Errorf("Quiet = %v, want 1500ms", fc.Quiet)
	}
	if fc.GrowMargin != 800 {
		t.Errorf("GrowMargin = %v, want 800", fc.GrowMargin)
	}
	if fc.Once == nil || !*fc.Once {
		t.Errorf("Once = %v, want true", fc.Once)
	}
}

func TestLoadFileConfig_YAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
document: /srv/canvas.json
viewport: 1280x720
service_url: http://ocr.internal:8000
max_surface: 60000
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	fc, err := LoadFileConfig(configPath)
	if err != nil {
		t.Fatalf("LoadFileConfig() error = %v", err)
	}
	if fc.Document != "/srv/canvas.json" {
		t.Errorf("Document = %v, want /srv/canvas.json", fc.Document)
	}
	if fc.Viewport != "1280x720" {
		t.Errorf("Viewport = %v, want 1280x720", fc.Viewport)
	}
	if fc.ServiceURL != "http://ocr.internal:8000" {
		t.Errorf("ServiceURL = %v", fc.ServiceURL)
	}
	if fc.MaxSurface != 60000 {
		t.Errorf("MaxSurface = %v, want 60000", fc.MaxSurface)
	}
	if fc.Once != nil {
		t.Errorf("Once = %v, want nil", *fc.Once)
	}
}

func TestLoadFileConfig_InvalidFile(t *testing.T) {
	_, err := LoadFileConfig("/nonexistent/path/config.toml")
	if err == nil {
		t.Error("LoadFileConfig() expected error for nonexistent file")
	}
}

func TestLoadFileConfig_InvalidTOML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.toml")

	invalidContent := `
document = "/test"
this is not valid toml
`

	if err := os.WriteFile(configPath, []byte(invalidContent), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	_, err := LoadFileConfig(configPath)
	if err == nil {
		t.Error("LoadFileConfig() expected error for invalid TOML")
	}
}

func TestLoadFileConfig_InvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "invalid.yml")
	if err := os.WriteFile(configPath, []byte("document: [unterminated\n"), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}
	if _, err := LoadFileConfig(configPath); err == nil {
		t.Error("LoadFileConfig() expected error for invalid YAML")
	}
}

func TestDefaultConfigPath(t *testing.T) {
	path := DefaultConfigPath()

	if path != "" && !strings.Contains(path, ".canvasship") {
		t.Errorf("DefaultConfigPath() = %v, should contain .canvasship", path)
	}
}

func TestFileExists(t *testing.T) {
	tmpDir := t.TempDir()
	existingFile := filepath.Join(tmpDir, "exists.txt")

	if err := os.WriteFile(existingFile, []byte("test"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	if !FileExists(existingFile) {
		t.Error("FileExists() = false, want true for existing file")
	}

	if FileExists(filepath.Join(tmpDir, "nonexistent.txt")) {
		t.Error("FileExists() = true, want false for nonexistent file")
	}
}
