package git

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runger/sdev/internal/dep"
	"github.com/runger/sdev/internal/shell"
	"github.com/runger/sdev/internal/shell/shelltest"
)

// cloneCreates simulates a successful clone by creating DEST/.git.
func cloneCreates(c shell.Command) (shell.Result, error) {
	dest := c.Args[len(c.Args)-1]
	if err := os.MkdirAll(filepath.Join(dest, ".git"), 0o755); err != nil {
		return shell.Result{}, err
	}
	return shell.Result{}, nil
}

func newCloned(t *testing.T, r shell.Runner) *RepositoryCloned {
	t.Helper()
	root := t.TempDir()
	return &RepositoryCloned{
		URL:     "git@github.com:ruby/ruby.git",
		Path:    filepath.Join(root, "github.com", "ruby", "ruby"),
		Runner:  r,
		LockDir: filepath.Join(root, "cache"),
	}
}

func TestRepositoryCloned_Clones(t *testing.T) {
	r := (&shelltest.Recorder{}).On("git clone", cloneCreates)
	res := newCloned(t, r)

	require.NoError(t, dep.Process(context.Background(), res))
	assert.Equal(t, []string{"git clone git@github.com:ruby/ruby.git " + res.Path}, r.Calls())
	assert.DirExists(t, filepath.Join(res.Path, ".git"))
}

func TestRepositoryCloned_Idempotent(t *testing.T) {
	r := (&shelltest.Recorder{}).On("git clone", cloneCreates)
	res := newCloned(t, r)

	require.NoError(t, dep.Process(context.Background(), res))
	require.NoError(t, dep.Process(context.Background(), res))
	assert.Equal(t, 1, r.Count("git clone"))
}

func TestRepositoryCloned_EchoesCommand(t *testing.T) {
	var echoed bool
	r := (&shelltest.Recorder{}).On("git clone", func(c shell.Command) (shell.Result, error) {
		echoed = c.Echo
		return cloneCreates(c)
	})

	require.NoError(t, dep.Process(context.Background(), newCloned(t, r)))
	assert.True(t, echoed)
}

func TestRepositoryCloned_CustomCommand(t *testing.T) {
	r := (&shelltest.Recorder{}).On("git clone", cloneCreates)
	res := newCloned(t, r)
	res.Command = `git clone --filter=blob:none --origin "up stream"`

	require.NoError(t, dep.Process(context.Background(), res))
	calls := r.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "git clone --filter=blob:none --origin up stream git@github.com:ruby/ruby.git "+res.Path, calls[0])
}

func TestRepositoryCloned_BadCommand(t *testing.T) {
	res := newCloned(t, &shelltest.Recorder{})
	res.Command = `git clone "unterminated`

	err := dep.Process(context.Background(), res)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing clone command")
}

func TestRepositoryCloned_CloneExitsNonZero(t *testing.T) {
	r := (&shelltest.Recorder{}).On("git clone", shelltest.Exit(128))
	res := newCloned(t, r)

	err := dep.Process(context.Background(), res)
	assert.ErrorIs(t, err, dep.ErrPostcondition)
}

func TestRepositoryCloned_SpawnFailure(t *testing.T) {
	boom := errors.New("git not installed")
	r := (&shelltest.Recorder{}).On("git", shelltest.Fail(boom))
	res := newCloned(t, r)

	err := dep.Process(context.Background(), res)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, dep.ErrPostcondition)
}

func TestRepositoryCloned_GitFileIsNotMet(t *testing.T) {
	res := newCloned(t, &shelltest.Recorder{})
	require.NoError(t, os.MkdirAll(res.Path, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(res.Path, ".git"), []byte("gitdir: x"), 0o644))

	status, err := res.Met(context.Background())
	require.NoError(t, err)
	assert.Equal(t, dep.Unmet, status)
}

func TestRepositoryCloned_LockHeld(t *testing.T) {
	r := (&shelltest.Recorder{}).On("git clone", cloneCreates)
	res := newCloned(t, r)
	require.NoError(t, os.MkdirAll(res.LockDir, 0o755))

	// Another sdev cloning into the same directory.
	held := flock.New(res.lockPath())
	locked, err := held.TryLock()
	require.NoError(t, err)
	require.True(t, locked)

	err = dep.Process(context.Background(), res)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "in progress")
	assert.Zero(t, r.Count("git clone"))

	require.NoError(t, held.Unlock())
	require.NoError(t, dep.Process(context.Background(), res))
	assert.Equal(t, 1, r.Count("git clone"))
}

func TestRepositoryCloned_LockPerDestination(t *testing.T) {
	a := &RepositoryCloned{Path: "/src/github.com/a/one", LockDir: "/cache"}
	b := &RepositoryCloned{Path: "/src/github.com/a/two", LockDir: "/cache"}
	c := &RepositoryCloned{Path: "/src/github.com/a/one/", LockDir: "/cache"}

	assert.NotEqual(t, a.lockPath(), b.lockPath())
	assert.Equal(t, a.lockPath(), c.lockPath())
}

func TestRepositoryCloned_String(t *testing.T) {
	res := &RepositoryCloned{URL: "git@github.com:ruby/ruby.git", Path: "/src/github.com/ruby/ruby"}
	assert.Equal(t, "git@github.com:ruby/ruby.git cloned into /src/github.com/ruby/ruby", res.String())
}

func TestClient_CurrentBranch(t *testing.T) {
	r := (&shelltest.Recorder{}).On("git symbolic-ref", shelltest.Stdout("feature/x\n"))
	c := NewClient(r, "/src/repo")

	got, err := c.CurrentBranch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "feature/x", got)
	assert.Equal(t, []string{"git symbolic-ref --quiet --short HEAD"}, r.Calls())
}

func TestClient_CurrentBranch_Detached(t *testing.T) {
	r := (&shelltest.Recorder{}).On("git symbolic-ref", shelltest.Exit(1))
	c := NewClient(r, "")

	_, err := c.CurrentBranch(context.Background())
	assert.ErrorIs(t, err, ErrDetachedHead)
}

func TestClient_CurrentBranch_NotARepo(t *testing.T) {
	r := (&shelltest.Recorder{}).On("git symbolic-ref", func(shell.Command) (shell.Result, error) {
		return shell.Result{ExitCode: 128, Stderr: []byte("fatal: not a git repository")}, nil
	})
	c := NewClient(r, "")

	_, err := c.CurrentBranch(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDetachedHead)
	assert.Contains(t, err.Error(), "not a git repository")
}

func TestClient_RunsInDir(t *testing.T) {
	var dir string
	r := (&shelltest.Recorder{}).On("git", func(c shell.Command) (shell.Result, error) {
		dir = c.Dir
		return shell.Result{Stdout: []byte("main")}, nil
	})
	c := NewClient(r, "/src/repo")

	_, err := c.CurrentBranch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/src/repo", dir)
}

func TestClient_PullRequestURL(t *testing.T) {
	tests := []struct {
		name     string
		upstream string
		origin   string
		target   string
		want     string
	}{
		{
			name:   "origin only",
			origin: "git@github.com:skipkayhil/sdev.git",
			want:   "https://github.com/skipkayhil/sdev/pull/my-branch",
		},
		{
			name:   "origin with target",
			origin: "https://github.com/skipkayhil/sdev.git",
			target: "main",
			want:   "https://github.com/skipkayhil/sdev/pull/main...my-branch",
		},
		{
			name:     "upstream preferred",
			upstream: "git@github.com:rails/rails.git",
			origin:   "git@github.com:skipkayhil/rails.git",
			want:     "https://github.com/rails/rails/pull/skipkayhil:my-branch",
		},
		{
			name:     "upstream only",
			upstream: "https://github.com/rails/rails",
			target:   "7-1-stable",
			want:     "https://github.com/rails/rails/pull/7-1-stable...my-branch",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := (&shelltest.Recorder{}).
				On("git symbolic-ref", shelltest.Stdout("my-branch\n"))
			if tt.upstream != "" {
				r.On("git remote get-url upstream", shelltest.Stdout(tt.upstream+"\n"))
			} else {
				r.On("git remote get-url upstream", shelltest.Exit(2))
			}
			if tt.origin != "" {
				r.On("git remote get-url origin", shelltest.Stdout(tt.origin+"\n"))
			} else {
				r.On("git remote get-url origin", shelltest.Exit(2))
			}

			got, err := NewClient(r, "").PullRequestURL(context.Background(), tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClient_PullRequestURL_Errors(t *testing.T) {
	detached := (&shelltest.Recorder{}).On("git symbolic-ref", shelltest.Exit(1))
	_, err := NewClient(detached, "").PullRequestURL(context.Background(), "")
	assert.ErrorIs(t, err, ErrDetachedHead)

	noRemote := (&shelltest.Recorder{}).
		On("git symbolic-ref", shelltest.Stdout("main")).
		On("git remote", shelltest.Exit(2))
	_, err = NewClient(noRemote, "").PullRequestURL(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoRemote)

	gitlab := (&shelltest.Recorder{}).
		On("git symbolic-ref", shelltest.Stdout("main")).
		On("git remote get-url upstream", shelltest.Exit(2)).
		On("git remote get-url origin", shelltest.Stdout("git@gitlab.com:me/proj.git"))
	_, err = NewClient(gitlab, "").PullRequestURL(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnsupportedHost)
}
