package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/runger/sdev/internal/launcher"
	"github.com/runger/sdev/internal/tmux"
)

var tmuxFocus string

var tmuxCmd = &cobra.Command{
	Use:     "tmux [query]",
	Aliases: []string{"t"},
	Short:   "Fuzzy attach to a repository's tmux session",
	GroupID: groupWork,
	Long: `Pick a working copy under the root directory or a running tmux session
and attach to its session, creating the session first when needed.

Tab switches between repositories and sessions. Enter selects, Esc aborts.
Inside tmux the current client is switched; otherwise sdev attaches.`,
	RunE: runTmux,
}

func init() {
	tmuxCmd.Flags().StringVar(&tmuxFocus, "focus", "", "initial tab: repos or sessions (default from picker.start_focus)")
	rootCmd.AddCommand(tmuxCmd)
}

// newLauncher builds the launcher from the loaded configuration.
func newLauncher(query string) (*launcher.Launcher, error) {
	focus := cfg.Picker.StartFocus
	if tmuxFocus != "" {
		if err := cfg.Set("picker.start_focus", tmuxFocus); err != nil {
			return nil, err
		}
		focus = tmuxFocus
	}

	client := tmux.NewClient(cfg.Tmux.Binary, newRunner(logger))
	client.Logger = logger

	return &launcher.Launcher{
		Root:          cfg.RootDir(),
		Tmux:          client,
		FrameInterval: cfg.FrameInterval(),
		TickBudget:    cfg.TickBudget(),
		StartFocus:    focus,
		Query:         query,
		Logger:        logger,
	}, nil
}

func runTmux(cmd *cobra.Command, args []string) error {
	l, err := newLauncher(strings.Join(args, " "))
	if err != nil {
		return err
	}

	tty, err := launcher.OpenTTY()
	if err != nil {
		return err
	}
	defer tty.Close()

	if err := launcher.CheckTerminal(tty); err != nil {
		return err
	}

	// stdout may be a pipe; take the color profile from the terminal the
	// picker draws on.
	lipgloss.SetColorProfile(termenv.NewOutput(tty).ColorProfile())

	if err := l.Run(cmd.Context(), tty, tty); err != nil {
		return fmt.Errorf("tmux: %w", err)
	}
	return nil
}
