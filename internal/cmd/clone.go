package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/runger/sdev/internal/config"
	"github.com/runger/sdev/internal/dep"
	"github.com/runger/sdev/internal/git"
	"github.com/runger/sdev/internal/repo"
	"github.com/runger/sdev/internal/shell"
	"github.com/runger/sdev/internal/tmux"
)

var cloneAttach bool

var cloneCmd = &cobra.Command{
	Use:     "clone <repo>",
	Short:   "Clone a git repository into a standardized path",
	GroupID: groupWork,
	Long: `Clone a repository into root/host/owner/name.

REPO is one of:
  name                     git@HOST:USER/name.git
  owner/name               git@HOST:owner/name.git
  https://host/owner/name  cloned as given
  git@host:owner/name.git  cloned as given

Cloning is skipped when the destination already is a working copy.

Examples:
  sdev clone sdev
  sdev clone rails/rails --attach
  sdev clone https://aur.archlinux.org/google-chrome.git`,
	Args: cobra.ExactArgs(1),
	RunE: runClone,
}

func init() {
	cloneCmd.Flags().BoolVar(&cloneAttach, "attach", false, "attach to a tmux session for the clone afterwards")
	rootCmd.AddCommand(cloneCmd)
}

// cloneResource returns the resource that clones src under the configured
// root.
func cloneResource(cfg *config.Config, src repo.Source, r shell.Runner) *git.RepositoryCloned {
	url, dir := src.Resolve(cfg.RootDir(), cfg.Host, cfg.User)
	return &git.RepositoryCloned{
		URL:     url,
		Path:    dir,
		Command: cfg.Git.CloneCommand,
		Runner:  r,
		LockDir: config.DefaultPaths().LockDir(),
		Logger:  logger,
	}
}

func runClone(cmd *cobra.Command, args []string) error {
	src, err := repo.ParseSource(args[0])
	if err != nil {
		return err
	}
	if src.Kind == repo.SourceName && cfg.User == "" {
		return fmt.Errorf("cloning %q needs an owner: set user with 'sdev config user NAME'", args[0])
	}

	runner := newRunner(logger)
	cloned := cloneResource(cfg, src, runner)
	engine := dep.New(logger)

	if err := engine.Process(cmd.Context(), cloned); err != nil {
		return err
	}

	if !cloneAttach {
		return nil
	}

	client := tmux.NewClient(cfg.Tmux.Binary, runner)
	client.Logger = logger
	attached := tmux.NewSessionAttached(client, filepath.Base(cloned.Path), cloned.Path)
	return engine.Process(cmd.Context(), attached)
}
