// Package git clones repositories and reads the state of the current one.
package git

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/google/shlex"

	"github.com/runger/sdev/internal/dep"
	"github.com/runger/sdev/internal/repo"
	"github.com/runger/sdev/internal/shell"
)

// DefaultCloneCommand is the command a RepositoryCloned runs, followed by the
// URL and destination.
const DefaultCloneCommand = "git clone"

// RepositoryCloned holds when Path is a git working copy. Meeting it clones
// URL into Path.
type RepositoryCloned struct {
	dep.NoPreconditions

	URL  string
	Path string

	// Command is the clone command line; DefaultCloneCommand when empty.
	Command string
	Runner  shell.Runner

	// LockDir holds per-destination lock files. No lock is taken when empty.
	LockDir string
	Logger  *slog.Logger
}

// Compile-time check that RepositoryCloned implements dep.Resource.
var _ dep.Resource = (*RepositoryCloned)(nil)

func (r *RepositoryCloned) String() string {
	return fmt.Sprintf("%s cloned into %s", r.URL, r.Path)
}

// Met implements dep.Resource.
func (r *RepositoryCloned) Met(context.Context) (dep.Status, error) {
	return dep.Status(repo.IsWorkingCopy(r.Path)), nil
}

// Meet implements dep.Resource.
func (r *RepositoryCloned) Meet(ctx context.Context) error {
	argv, err := r.argv()
	if err != nil {
		return err
	}

	if r.LockDir != "" {
		unlock, err := r.lock()
		if err != nil {
			return err
		}
		defer unlock()

		// Another process may have finished the clone while we waited.
		if repo.IsWorkingCopy(r.Path) {
			return nil
		}
	}

	if err := os.MkdirAll(filepath.Dir(r.Path), 0o755); err != nil {
		return fmt.Errorf("creating parent directory: %w", err)
	}

	cmd := shell.New(argv[0], argv[1:]...).Echoed()
	res, err := r.Runner.Run(ctx, cmd)
	if err != nil {
		return err
	}
	if !res.Success() {
		r.logger().Warn("clone exited non-zero", "url", r.URL, "path", r.Path, "exit", res.ExitCode)
	}
	return nil
}

func (r *RepositoryCloned) argv() ([]string, error) {
	line := r.Command
	if line == "" {
		line = DefaultCloneCommand
	}
	argv, err := shlex.Split(line)
	if err != nil {
		return nil, fmt.Errorf("parsing clone command %q: %w", line, err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("clone command is empty")
	}
	return append(argv, r.URL, r.Path), nil
}

// lock takes the advisory lock for r.Path. It fails immediately when another
// process holds it.
func (r *RepositoryCloned) lock() (func(), error) {
	if err := os.MkdirAll(r.LockDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating lock directory: %w", err)
	}
	lockPath := r.lockPath()
	l := flock.New(lockPath)
	locked, err := l.TryLock()
	if err != nil {
		return nil, fmt.Errorf("cannot acquire clone lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("another clone into %s is in progress (lock: %s)", r.Path, lockPath)
	}
	return func() { _ = l.Unlock() }, nil
}

// lockPath is the lock file for r.Path inside r.LockDir.
func (r *RepositoryCloned) lockPath() string {
	sum := sha256.Sum256([]byte(filepath.Clean(r.Path)))
	return filepath.Join(r.LockDir, "clone-"+hex.EncodeToString(sum[:8])+".lock")
}

func (r *RepositoryCloned) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}
