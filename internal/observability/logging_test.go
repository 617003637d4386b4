package observability

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLogger_DefaultFileFallbackForInteractiveAuto(t *testing.T) {
	stateRoot := t.TempDir()
	t.Setenv("XDG_STATE_HOME", stateRoot)

	cfg := &Config{
		Level:          "info",
		Format:         "json",
		StderrMode:     "auto",
		InteractiveTTY: true,
		SessionID:      "session-test",
		CommandPath:    "pebblectl session",
		Version:        "test",
		Commit:         "abc123",
	}

	logger, cleanup, err := NewLogger(cfg)
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}

	logger.Info("hello from test")

	if cleanup != nil {
		if closeErr := cleanup(); closeErr != nil {
			t.Fatalf("cleanup() error = %v", closeErr)
		}
	}

	logPath := filepath.Join(stateRoot, "pebblectl", "logs", "pebblectl.log")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("ReadFile(%q) error = %v", logPath, err)
	}

	if !strings.Contains(string(data), "hello from test") {
		t.Fatalf("log file %q missing message: %s", logPath, data)
	}
}

func TestNewLogger_NoSinks(t *testing.T) {
	_, _, err := NewLogger(&Config{StderrMode: "off"})
	if err == nil {
		t.Fatal("NewLogger() error = nil, want no sinks error")
	}
}

func TestNewLogger_InvalidInputs(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "level", cfg: Config{Level: "verbose", StderrMode: "on"}},
		{name: "format", cfg: Config{Format: "xml", StderrMode: "on"}},
		{name: "stderr", cfg: Config{StderrMode: "sometimes"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := NewLogger(&tt.cfg); err == nil {
				t.Fatalf("NewLogger(%+v) error = nil, want error", tt.cfg)
			}
		})
	}
}

func TestNewLogger_RedactsSecrets(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "out.log")

	logger, cleanup, err := NewLogger(&Config{Format: "json", StderrMode: "off", LogFile: logPath})
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}

	logger.Info("auth", slog.String("github_token", "ghp_abc"), slog.String("phone.ip", "10.0.0.2"))

	if err := cleanup(); err != nil {
		t.Fatalf("cleanup() error = %v", err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	if strings.Contains(string(data), "ghp_abc") {
		t.Fatalf("secret leaked into log: %s", data)
	}

	if !strings.Contains(string(data), "10.0.0.2") {
		t.Fatalf("non-sensitive attribute missing: %s", data)
	}
}

func TestFromContext_FallsBackToDefault(t *testing.T) {
	if got := FromContext(context.Background()); got != slog.Default() {
		t.Fatal("FromContext without logger should return slog.Default()")
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	ctx := WithLogger(context.Background(), logger)

	if got := FromContext(ctx); got != logger {
		t.Fatal("FromContext should return the stored logger")
	}
}

func TestRotateLogFile_RotatesAndKeepsBoundedBackups(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "pebblectl.log")

	for i, content := range []string{"one", "two", "three"} {
		name := logPath + "." + string(rune('1'+i))
		if err := os.WriteFile(name, []byte(content), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	if err := os.WriteFile(logPath, []byte("1234567890"), 0o600); err != nil {
		t.Fatalf("write current: %v", err)
	}

	if err := rotateLogFile(logPath, 5, 3); err != nil {
		t.Fatalf("rotateLogFile() error = %v", err)
	}

	if _, err := os.Stat(logPath); !os.IsNotExist(err) {
		t.Fatalf("expected current log to be rotated away, stat err = %v", err)
	}

	data1, err := os.ReadFile(logPath + ".1")
	if err != nil {
		t.Fatalf("read .1: %v", err)
	}

	if string(data1) != "1234567890" {
		t.Fatalf(".1 = %q, want rotated current log", data1)
	}

	data3, err := os.ReadFile(logPath + ".3")
	if err != nil {
		t.Fatalf("read .3: %v", err)
	}

	if string(data3) != "two" {
		t.Fatalf("backup retention ordering wrong: .3 = %q, want %q", data3, "two")
	}
}

func TestRotateLogFile_BelowThresholdIsNoop(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "pebblectl.log")

	if err := os.WriteFile(logPath, []byte("abc"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := rotateLogFile(logPath, 1024, 3); err != nil {
		t.Fatalf("rotateLogFile() error = %v", err)
	}

	if _, err := os.Stat(logPath + ".1"); !os.IsNotExist(err) {
		t.Fatalf("unexpected rotation, stat err = %v", err)
	}
}
