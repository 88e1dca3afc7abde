package cmd

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/spf13/cobra"

	"github.com/runger/sdev/internal/config"
	"github.com/runger/sdev/internal/shell"
	"github.com/runger/sdev/internal/shell/shelltest"
)

// withTestEnv points every XDG directory and the clone root into a temp
// dir, installs a default config and a discarding logger, and routes all
// subprocesses to r.
func withTestEnv(t *testing.T, r *shelltest.Recorder) string {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmp+"/config")
	t.Setenv("XDG_DATA_HOME", tmp+"/data")
	t.Setenv("XDG_CACHE_HOME", tmp+"/cache")
	t.Setenv("SDEV_ROOT", "")
	t.Setenv("SDEV_DEBUG", "")
	t.Setenv("SDEV_LOG_LEVEL", "")

	oldCfg, oldLogger, oldRunner := cfg, logger, newRunner
	cfg = config.DefaultConfig()
	cfg.Root = tmp + "/src"
	cfg.User = "skipkayhil"
	logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	newRunner = func(*slog.Logger) shell.Runner { return r }

	t.Cleanup(func() {
		cfg, logger, newRunner = oldCfg, oldLogger, oldRunner
	})
	return tmp
}

// testCommand returns a bare command carrying a context, as cobra provides
// to RunE.
func testCommand() *cobra.Command {
	c := &cobra.Command{}
	c.SetContext(context.Background())
	return c
}

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe() failed: %v", err)
	}
	os.Stdout = w

	outC := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		outC <- buf.String()
	}()

	fn()
	_ = w.Close()
	os.Stdout = old
	out := <-outC
	_ = r.Close()
	return out
}
