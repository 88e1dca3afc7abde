package cmd

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/runger/sdev/internal/config"
)

func TestNewLogger_File(t *testing.T) {
	tmp := t.TempDir()
	paths := &config.Paths{DataDir: tmp}
	c := config.DefaultConfig()

	l, closer, err := newLogger(c, paths, false)
	if err != nil {
		t.Fatalf("newLogger error: %v", err)
	}
	l.Info("hello", "k", "v")
	l.Debug("hidden")
	if err := closer(); err != nil {
		t.Fatalf("close error: %v", err)
	}

	data, err := os.ReadFile(paths.LogFile())
	if err != nil {
		t.Fatalf("log file should exist: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "msg=hello") || !strings.Contains(out, "k=v") {
		t.Errorf("log should contain the record, got:\n%s", out)
	}
	if !strings.Contains(out, "run=") {
		t.Errorf("log should carry the run attribute, got:\n%s", out)
	}
	if strings.Contains(out, "hidden") {
		t.Errorf("debug records should be filtered at info level, got:\n%s", out)
	}
}

func TestNewLogger_ConfiguredFile(t *testing.T) {
	tmp := t.TempDir()
	c := config.DefaultConfig()
	c.Log.File = filepath.Join(tmp, "nested", "custom.log")

	l, closer, err := newLogger(c, &config.Paths{DataDir: filepath.Join(tmp, "unused")}, false)
	if err != nil {
		t.Fatalf("newLogger error: %v", err)
	}
	l.Warn("custom")
	_ = closer()

	if _, err := os.Stat(c.Log.File); err != nil {
		t.Errorf("configured log file should exist: %v", err)
	}
}

func TestNewLogger_RunIDPerLogger(t *testing.T) {
	tmp := t.TempDir()
	paths := &config.Paths{DataDir: tmp}
	c := config.DefaultConfig()

	for i := 0; i < 2; i++ {
		l, closer, err := newLogger(c, paths, false)
		if err != nil {
			t.Fatalf("newLogger error: %v", err)
		}
		l.Info("run")
		_ = closer()
	}

	data, _ := os.ReadFile(paths.LogFile())
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d", len(lines))
	}
	runAttr := func(line string) string {
		for _, f := range strings.Fields(line) {
			if strings.HasPrefix(f, "run=") {
				return f
			}
		}
		return ""
	}
	if runAttr(lines[0]) == runAttr(lines[1]) {
		t.Errorf("each invocation should get its own run id: %q", runAttr(lines[0]))
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
