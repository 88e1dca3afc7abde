// Package repo finds git working copies on disk and parses the ways a user
// names one on the command line.
//
// Working copies live under a root directory laid out by host:
//
//	root/github.com/owner/name
//	root/gitlab.com/group/subgroup/name
package repo

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// GitDir is the metadata directory that marks a working copy.
const GitDir = ".git"

var (
	// ErrNotInRoot is returned for paths outside the configured root.
	ErrNotInRoot = errors.New("path is not inside the root directory")

	// ErrNotARepo is returned for directories without a .git directory.
	ErrNotARepo = errors.New("not a git working copy")
)

// GitRepo is a working copy found under the root.
type GitRepo struct {
	// Name is the final path element, used as the session name.
	Name string
	// Path is the absolute path of the working copy.
	Path string
	// Host is the first path element below the root.
	Host string
}

func (r GitRepo) String() string {
	return r.Path
}

// RelativePath returns r.Path relative to root, or r.Path when it is not
// below root.
func (r GitRepo) RelativePath(root string) string {
	rel, err := filepath.Rel(root, r.Path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return r.Path
	}
	return rel
}

// IsWorkingCopy reports whether dir contains a .git directory. A .git file
// (linked worktree or submodule) does not count.
func IsWorkingCopy(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, GitDir))
	return err == nil && info.IsDir()
}

// FromPath builds the GitRepo for an absolute working copy path below root.
func FromPath(path, root string) (GitRepo, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return GitRepo{}, ErrNotInRoot
	}
	if !IsWorkingCopy(path) {
		return GitRepo{}, ErrNotARepo
	}

	host, _, _ := strings.Cut(filepath.ToSlash(rel), "/")
	return GitRepo{
		Name: filepath.Base(path),
		Path: path,
		Host: host,
	}, nil
}

// Walk calls fn for every working copy below root. It does not descend into a
// working copy, so nested repositories and the contents of .git are never
// visited. Unreadable directories are skipped. Walk stops at the first error
// returned by fn or when ctx is done.
func Walk(ctx context.Context, root string, fn func(GitRepo) error) error {
	root = filepath.Clean(root)
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path == root {
			return nil
		}
		if d.Name() == GitDir {
			return filepath.SkipDir
		}
		if !IsWorkingCopy(path) {
			return nil
		}

		rel, _ := filepath.Rel(root, path)
		host, _, _ := strings.Cut(filepath.ToSlash(rel), "/")
		if err := fn(GitRepo{Name: d.Name(), Path: path, Host: host}); err != nil {
			return err
		}
		return filepath.SkipDir
	})
}
