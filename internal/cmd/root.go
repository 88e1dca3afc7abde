package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/runger/sdev/internal/config"
	"github.com/runger/sdev/internal/shell"
)

const (
	groupWork  = "work"
	groupSetup = "setup"
)

var (
	logStderr bool

	// Set by the persistent pre-run for every subcommand.
	cfg    *config.Config
	logger *slog.Logger

	closeLog = func() error { return nil }

	// newRunner builds the subprocess runner. Tests replace it.
	newRunner = func(l *slog.Logger) shell.Runner { return shell.NewExec(l) }
)

var rootCmd = &cobra.Command{
	Use:   "sdev",
	Short: "jump between repositories and tmux sessions",
	Long: `sdev - jump between repositories and tmux sessions
  - fuzzy pick a working copy or a running session, land in its tmux session
  - clone repositories into root/host/owner/name
  - print the new pull request link for the current branch`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

// Execute runs the root command
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if cerr := closeLog(); err == nil {
		err = cerr
	}
	return err
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: groupWork, Title: "Workflow Commands:"},
		&cobra.Group{ID: groupSetup, Title: "Setup Commands:"},
	)
	rootCmd.PersistentFlags().BoolVar(&logStderr, "log-stderr", false, "write logs to stderr instead of the log file")
	rootCmd.PersistentFlags().StringVar(&colorMode, "color", "auto", "color output: auto, always, or never")

	rootCmd.AddCommand(versionCmd)
}

// setup loads the configuration and installs the logger.
func setup(cmd *cobra.Command, args []string) error {
	applyColorMode()

	loaded, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg = loaded

	l, closer, err := newLogger(cfg, config.DefaultPaths(), logStderr)
	if err != nil {
		return err
	}
	logger = l
	closeLog = closer
	slog.SetDefault(logger)

	logger.Debug("command started", "command", cmd.CommandPath(), "args", args)
	return nil
}

func teardown(cmd *cobra.Command, args []string) error {
	if logger != nil {
		logger.Debug("command finished", "command", cmd.CommandPath())
	}
	return nil
}
