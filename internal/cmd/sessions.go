package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/runger/sdev/internal/tmux"
)

var sessionsCmd = &cobra.Command{
	Use:     "sessions",
	Short:   "List running tmux sessions",
	GroupID: groupWork,
	Args:    cobra.NoArgs,
	RunE:    runSessions,
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
}

func runSessions(cmd *cobra.Command, args []string) error {
	client := tmux.NewClient(cfg.Tmux.Binary, newRunner(logger))
	client.Logger = logger

	sessions, err := client.ListSessions(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	for _, s := range sessions {
		fmt.Println(s.Name)
	}
	return nil
}
