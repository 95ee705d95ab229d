package config

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zapcore"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfiguration_NoFile(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() with empty path error = %v", err)
	}
	if cfg.Version != 1 {
		t.Errorf("Default config version = %d, want 1", cfg.Version)
	}
	if cfg.Logging.ConsoleLogger.Level != "normal" {
		t.Errorf("Default console level = %q, want normal", cfg.Logging.ConsoleLogger.Level)
	}
	if cfg.Viewport.Width != 800 || cfg.Viewport.Height != 600 {
		t.Errorf("Default viewport = %dx%d, want 800x600", cfg.Viewport.Width, cfg.Viewport.Height)
	}
	if cfg.Tree.Assertions {
		t.Error("Assertions should be off by default")
	}
}

func TestLoadConfiguration_WithFile(t *testing.T) {
	path := writeConfig(t, `version: 1
logging:
  console:
    level: debug
tree:
  assertions: true
`)
	cfg, err := LoadConfiguration(path)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if cfg.Logging.ConsoleLogger.Level != "debug" {
		t.Errorf("Console level = %q, want debug", cfg.Logging.ConsoleLogger.Level)
	}
	if !cfg.Tree.Assertions {
		t.Error("Expected assertions to be enabled")
	}
	// Keys absent from the file keep template defaults.
	if cfg.Viewport.Width != 800 {
		t.Errorf("Viewport width = %d, want 800", cfg.Viewport.Width)
	}
}

func TestLoadConfiguration_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid yaml", "version: 1\nlogging:\n  console\n    level: debug\n"},
		{"unknown field", "version: 1\nunknown_field: value\n"},
		{"bad version", "version: 2\n"},
		{"bad level", "version: 1\nlogging:\n  console:\n    level: chatty\n"},
		{"tiny viewport", "version: 1\nviewport:\n  width: 1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfiguration(writeConfig(t, tt.content)); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestLoadConfiguration_NonExistentFile(t *testing.T) {
	if _, err := LoadConfiguration("/nonexistent/config.yaml"); err == nil {
		t.Error("Expected error for nonexistent file")
	}
}

func TestPrepare(t *testing.T) {
	data, err := Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if _, err := unmarshalConfig(data, &Config{}, true); err != nil {
		t.Errorf("Prepared config is not valid: %v", err)
	}
}

func TestDump(t *testing.T) {
	cfg := &Config{
		Version:  1,
		Logging:  LoggingConfig{ConsoleLogger: LoggerConfig{Level: "none"}},
		Viewport: ViewportConfig{Width: 320, Height: 200},
		Tree:     TreeConfig{Assertions: true},
	}
	data, err := Dump(cfg)
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	cfg2, err := unmarshalConfig(data, &Config{}, true)
	if err != nil {
		t.Fatalf("Dumped config cannot be loaded: %v", err)
	}
	if *cfg2 != *cfg {
		t.Errorf("Dump/load mismatch: got %+v, want %+v", *cfg2, *cfg)
	}
}

func TestLoggingPrepare(t *testing.T) {
	tests := []struct {
		level     string
		wantDebug bool
		wantInfo  bool
	}{
		{"none", false, false},
		{"normal", false, true},
		{"debug", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			conf := LoggingConfig{ConsoleLogger: LoggerConfig{Level: tt.level}}
			log, err := conf.Prepare("layertool")
			if err != nil {
				t.Fatalf("Prepare() error = %v", err)
			}
			if got := log.Core().Enabled(zapcore.DebugLevel); got != tt.wantDebug {
				t.Errorf("Debug enabled = %v, want %v", got, tt.wantDebug)
			}
			if got := log.Core().Enabled(zapcore.InfoLevel); got != tt.wantInfo {
				t.Errorf("Info enabled = %v, want %v", got, tt.wantInfo)
			}
		})
	}
}
