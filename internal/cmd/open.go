package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/runger/sdev/internal/git"
)

var openCmd = &cobra.Command{
	Use:     "open",
	Aliases: []string{"o"},
	Short:   "Open a link for the current repository",
	GroupID: groupWork,
}

var openPRCmd = &cobra.Command{
	Use:   "pr [target]",
	Short: "Print the New Pull Request link for the current branch",
	Long: `Print the GitHub New Pull Request link for the current branch.

The upstream remote is preferred over origin. TARGET is the base branch;
the repository default is used when it is omitted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runOpenPR,
}

func init() {
	openCmd.AddCommand(openPRCmd)
	rootCmd.AddCommand(openCmd)
}

func runOpenPR(cmd *cobra.Command, args []string) error {
	var target string
	if len(args) == 1 {
		target = args[0]
	}

	dir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	url, err := git.NewClient(newRunner(logger), dir).PullRequestURL(cmd.Context(), target)
	if err != nil {
		return err
	}

	fmt.Println(url)
	return nil
}
