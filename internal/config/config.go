package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/shlex"
	"gopkg.in/yaml.v3"
)

// Config represents the sdev configuration.
type Config struct {
	Root string `yaml:"root"` // Directory holding working copies, laid out host/owner/name
	Host string `yaml:"host"` // Host used for bare "name" and "owner/name" clone arguments
	User string `yaml:"user"` // Owner used for bare "name" clone arguments

	Picker PickerConfig `yaml:"picker"`
	Git    GitConfig    `yaml:"git"`
	Tmux   TmuxConfig   `yaml:"tmux"`
	Log    LogConfig    `yaml:"log"`
}

// PickerConfig holds interactive picker settings.
type PickerConfig struct {
	FrameMs      int    `yaml:"frame_ms"`       // Redraw interval
	TickBudgetMs int    `yaml:"tick_budget_ms"` // Ranking work allowed per frame
	StartFocus   string `yaml:"start_focus"`    // repos or sessions
}

// GitConfig holds git settings.
type GitConfig struct {
	CloneCommand string `yaml:"clone_command"` // Shell-quoted command; URL and destination are appended
}

// TmuxConfig holds tmux settings.
type TmuxConfig struct {
	Binary string `yaml:"binary"` // tmux executable
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`  // Log file path (overrides default)
}

// Picker focus values.
const (
	FocusRepos    = "repos"
	FocusSessions = "sessions"
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Root: filepath.Join("~", "src"),
		Host: "github.com",
		User: os.Getenv("USER"),
		Picker: PickerConfig{
			FrameMs:      16,
			TickBudgetMs: 10,
			StartFocus:   FocusRepos,
		},
		Git: GitConfig{
			CloneCommand: "git clone",
		},
		Tmux: TmuxConfig{
			Binary: "tmux",
		},
		Log: LogConfig{
			Level: "info",
			File:  "", // Use default from paths
		},
	}
}

// Load loads configuration from the default path.
func Load() (*Config, error) {
	paths := DefaultPaths()
	return LoadFromFile(paths.ConfigFile())
}

// LoadFromFile loads configuration from the specified file.
// If the file doesn't exist, returns default configuration.
// Environment variable overrides are applied after file loading.
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.ApplyEnvOverrides()
			return cfg, nil // Return defaults if file doesn't exist
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Save saves the configuration to the default path.
func (c *Config) Save() error {
	paths := DefaultPaths()
	return c.SaveToFile(paths.ConfigFile())
}

// SaveToFile saves the configuration to the specified file.
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// RootDir returns Root with a leading "~" expanded to the home directory.
func (c *Config) RootDir() string {
	return ExpandHome(c.Root)
}

// FrameInterval returns the picker redraw interval.
func (c *Config) FrameInterval() time.Duration {
	return time.Duration(c.Picker.FrameMs) * time.Millisecond
}

// TickBudget returns the ranking budget per frame.
func (c *Config) TickBudget() time.Duration {
	return time.Duration(c.Picker.TickBudgetMs) * time.Millisecond
}

// ExpandHome replaces a leading "~" path element with the home directory.
func ExpandHome(path string) string {
	if path == "~" {
		return homeDir()
	}
	if strings.HasPrefix(path, "~/") || strings.HasPrefix(path, "~"+string(filepath.Separator)) {
		return filepath.Join(homeDir(), path[2:])
	}
	return path
}

// Get retrieves a configuration value by key. Top-level keys ("root") have no
// section; the rest are dot-separated, for example "picker.frame_ms".
func (c *Config) Get(key string) (string, error) {
	parts := strings.Split(key, ".")
	switch len(parts) {
	case 1:
		return c.getTopField(parts[0])
	case 2:
	default:
		return "", errors.New("key must be in format 'key' or 'section.key'")
	}

	section, field := parts[0], parts[1]

	switch section {
	case "picker":
		return c.getPickerField(field)
	case "git":
		return c.getGitField(field)
	case "tmux":
		return c.getTmuxField(field)
	case "log":
		return c.getLogField(field)
	default:
		return "", fmt.Errorf("unknown section: %s", section)
	}
}

// Set sets a configuration value by key.
func (c *Config) Set(key, value string) error {
	parts := strings.Split(key, ".")
	switch len(parts) {
	case 1:
		return c.setTopField(parts[0], value)
	case 2:
	default:
		return errors.New("key must be in format 'key' or 'section.key'")
	}

	section, field := parts[0], parts[1]

	switch section {
	case "picker":
		return c.setPickerField(field, value)
	case "git":
		return c.setGitField(field, value)
	case "tmux":
		return c.setTmuxField(field, value)
	case "log":
		return c.setLogField(field, value)
	default:
		return fmt.Errorf("unknown section: %s", section)
	}
}

func (c *Config) getTopField(field string) (string, error) {
	switch field {
	case "root":
		return c.Root, nil
	case "host":
		return c.Host, nil
	case "user":
		return c.User, nil
	default:
		return "", fmt.Errorf("unknown field: %s", field)
	}
}

func (c *Config) setTopField(field, value string) error {
	switch field {
	case "root":
		if value == "" {
			return errors.New("invalid root: must not be empty")
		}
		c.Root = value
	case "host":
		if value == "" {
			return errors.New("invalid host: must not be empty")
		}
		c.Host = value
	case "user":
		c.User = value
	default:
		return fmt.Errorf("unknown field: %s", field)
	}
	return nil
}

func (c *Config) getPickerField(field string) (string, error) {
	switch field {
	case "frame_ms":
		return strconv.Itoa(c.Picker.FrameMs), nil
	case "tick_budget_ms":
		return strconv.Itoa(c.Picker.TickBudgetMs), nil
	case "start_focus":
		return c.Picker.StartFocus, nil
	default:
		return "", fmt.Errorf("unknown field: picker.%s", field)
	}
}

func (c *Config) setPickerField(field, value string) error {
	switch field {
	case "frame_ms":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for frame_ms: %w", err)
		}
		if v <= 0 {
			return fmt.Errorf("invalid frame_ms: must be positive")
		}
		c.Picker.FrameMs = v
	case "tick_budget_ms":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for tick_budget_ms: %w", err)
		}
		if v <= 0 {
			return fmt.Errorf("invalid tick_budget_ms: must be positive")
		}
		c.Picker.TickBudgetMs = v
	case "start_focus":
		if !isValidFocus(value) {
			return fmt.Errorf("invalid start_focus: %s (must be repos or sessions)", value)
		}
		c.Picker.StartFocus = value
	default:
		return fmt.Errorf("unknown field: picker.%s", field)
	}
	return nil
}

func (c *Config) getGitField(field string) (string, error) {
	switch field {
	case "clone_command":
		return c.Git.CloneCommand, nil
	default:
		return "", fmt.Errorf("unknown field: git.%s", field)
	}
}

func (c *Config) setGitField(field, value string) error {
	switch field {
	case "clone_command":
		if err := validateCommand(value); err != nil {
			return fmt.Errorf("invalid clone_command: %w", err)
		}
		c.Git.CloneCommand = value
	default:
		return fmt.Errorf("unknown field: git.%s", field)
	}
	return nil
}

func (c *Config) getTmuxField(field string) (string, error) {
	switch field {
	case "binary":
		return c.Tmux.Binary, nil
	default:
		return "", fmt.Errorf("unknown field: tmux.%s", field)
	}
}

func (c *Config) setTmuxField(field, value string) error {
	switch field {
	case "binary":
		if value == "" {
			return errors.New("invalid binary: must not be empty")
		}
		c.Tmux.Binary = value
	default:
		return fmt.Errorf("unknown field: tmux.%s", field)
	}
	return nil
}

func (c *Config) getLogField(field string) (string, error) {
	switch field {
	case "level":
		return c.Log.Level, nil
	case "file":
		return c.Log.File, nil
	default:
		return "", fmt.Errorf("unknown field: log.%s", field)
	}
}

func (c *Config) setLogField(field, value string) error {
	switch field {
	case "level":
		if !isValidLogLevel(value) {
			return fmt.Errorf("invalid level: %s (must be debug, info, warn, or error)", value)
		}
		c.Log.Level = value
	case "file":
		c.Log.File = value
	default:
		return fmt.Errorf("unknown field: log.%s", field)
	}
	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Root == "" {
		return errors.New("root must not be empty")
	}

	if c.Host == "" {
		return errors.New("host must not be empty")
	}

	if c.Picker.FrameMs <= 0 {
		return errors.New("picker.frame_ms must be > 0")
	}

	if c.Picker.TickBudgetMs <= 0 {
		return errors.New("picker.tick_budget_ms must be > 0")
	}

	// A budget longer than the frame would starve input handling.
	if c.Picker.TickBudgetMs > c.Picker.FrameMs {
		c.Picker.TickBudgetMs = c.Picker.FrameMs
	}

	if !isValidFocus(c.Picker.StartFocus) {
		return fmt.Errorf("picker.start_focus must be repos or sessions (got: %s)", c.Picker.StartFocus)
	}

	if err := validateCommand(c.Git.CloneCommand); err != nil {
		return fmt.Errorf("git.clone_command: %w", err)
	}

	if c.Tmux.Binary == "" {
		return errors.New("tmux.binary must not be empty")
	}

	if !isValidLogLevel(c.Log.Level) {
		return fmt.Errorf("log.level must be debug, info, warn, or error (got: %s)", c.Log.Level)
	}

	return nil
}

func validateCommand(line string) error {
	argv, err := shlex.Split(line)
	if err != nil {
		return err
	}
	if len(argv) == 0 {
		return errors.New("must not be empty")
	}
	return nil
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func isValidFocus(focus string) bool {
	switch focus {
	case FocusRepos, FocusSessions:
		return true
	default:
		return false
	}
}

// ApplyEnvOverrides applies environment variable overrides to the config.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("SDEV_ROOT"); v != "" {
		c.Root = v
	}
	if v := os.Getenv("SDEV_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil && b {
			c.Log.Level = "debug"
		}
	}
	if v := os.Getenv("SDEV_LOG_LEVEL"); v != "" {
		if isValidLogLevel(v) {
			c.Log.Level = v
		}
	}
}

// ListKeys returns user-facing configuration keys.
func ListKeys() []string {
	return []string{
		"root",
		"host",
		"user",
		"picker.frame_ms",
		"picker.tick_budget_ms",
		"picker.start_focus",
		"git.clone_command",
		"tmux.binary",
		"log.level",
		"log.file",
	}
}
