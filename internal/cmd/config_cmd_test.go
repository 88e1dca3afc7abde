package cmd

import (
	"os"
	"strings"
	"testing"

	"github.com/runger/sdev/internal/config"
	"github.com/runger/sdev/internal/shell/shelltest"
)

func TestListConfig(t *testing.T) {
	withTestEnv(t, &shelltest.Recorder{})
	disableColors()
	t.Cleanup(applyColorMode)

	out := captureStdout(t, func() {
		if err := listConfig(cfg, config.DefaultPaths()); err != nil {
			t.Errorf("listConfig error: %v", err)
		}
	})

	for _, key := range config.ListKeys() {
		if !strings.Contains(out, key+" = ") {
			t.Errorf("listConfig output should contain %q", key)
		}
	}
	if !strings.Contains(out, "log.file = (not set)") {
		t.Errorf("empty values should be shown as (not set), got:\n%s", out)
	}
	if !strings.Contains(out, "config.yaml") {
		t.Errorf("listConfig should print the config file path, got:\n%s", out)
	}
}

func TestGetConfig(t *testing.T) {
	withTestEnv(t, &shelltest.Recorder{})

	out := captureStdout(t, func() {
		if err := getConfig(cfg, "tmux.binary"); err != nil {
			t.Errorf("getConfig error: %v", err)
		}
	})
	if out != "tmux\n" {
		t.Errorf("getConfig output = %q, want tmux", out)
	}

	if err := getConfig(cfg, "nope.key"); err == nil {
		t.Error("getConfig should fail for unknown keys")
	}
}

func TestSetConfig(t *testing.T) {
	withTestEnv(t, &shelltest.Recorder{})
	paths := config.DefaultPaths()

	captureStdout(t, func() {
		if err := setConfig(cfg, paths, "picker.start_focus", "sessions"); err != nil {
			t.Errorf("setConfig error: %v", err)
		}
	})

	if _, err := os.Stat(paths.ConfigFile()); err != nil {
		t.Fatalf("config file should exist: %v", err)
	}
	loaded, err := config.LoadFromFile(paths.ConfigFile())
	if err != nil {
		t.Fatalf("LoadFromFile error: %v", err)
	}
	if loaded.Picker.StartFocus != config.FocusSessions {
		t.Errorf("saved start_focus = %q, want sessions", loaded.Picker.StartFocus)
	}
}

func TestSetConfig_Invalid(t *testing.T) {
	withTestEnv(t, &shelltest.Recorder{})
	paths := config.DefaultPaths()

	if err := setConfig(cfg, paths, "log.level", "loud"); err == nil {
		t.Error("setConfig should reject an invalid log level")
	}
	if _, err := os.Stat(paths.ConfigFile()); !os.IsNotExist(err) {
		t.Error("config file should not be written for invalid values")
	}
}
