package logger

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ensemble/internal/infra/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"DEBUG", slog.LevelDebug},
		{"", slog.LevelInfo},
		{"nonsense", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ensemble.log")

	log, closer, err := New(config.LoggerConfig{Level: "debug", Format: "json", Output: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	log.Debug("orchestration started", "strategy", "parallel")
	if err := closer(); err != nil {
		t.Fatalf("closer: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	line := string(data)
	if !strings.Contains(line, `"msg":"orchestration started"`) {
		t.Errorf("log line missing message: %s", line)
	}
	if !strings.Contains(line, `"strategy":"parallel"`) {
		t.Errorf("log line missing attr: %s", line)
	}
}

func TestNewRespectsLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ensemble.log")

	log, closer, err := New(config.LoggerConfig{Level: "warn", Format: "text", Output: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	log.Info("should be dropped")
	log.Warn("should be kept")
	if err := closer(); err != nil {
		t.Fatalf("closer: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	if strings.Contains(out, "should be dropped") {
		t.Errorf("info line leaked through warn level: %s", out)
	}
	if !strings.Contains(out, "should be kept") {
		t.Errorf("warn line missing: %s", out)
	}

	if !log.Enabled(context.Background(), slog.LevelWarn) {
		t.Error("warn should be enabled")
	}
	if log.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug should be disabled at warn level")
	}
}

func TestNewStderrCloserIsNoop(t *testing.T) {
	log, closer, err := New(config.LoggerConfig{Level: "info", Format: "text", Output: "stderr"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if log == nil {
		t.Fatal("nil logger")
	}
	if err := closer(); err != nil {
		t.Errorf("stderr closer: %v", err)
	}
	// Closing twice must stay safe for stream outputs.
	if err := closer(); err != nil {
		t.Errorf("second close: %v", err)
	}
}
