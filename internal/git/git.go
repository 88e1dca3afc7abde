package git

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/runger/sdev/internal/repo"
	"github.com/runger/sdev/internal/shell"
)

var (
	// ErrDetachedHead is returned when HEAD does not point at a branch.
	ErrDetachedHead = errors.New("HEAD is detached")

	// ErrNoRemote is returned when neither upstream nor origin is configured.
	ErrNoRemote = errors.New("no upstream or origin remote")

	// ErrUnsupportedHost is returned for remotes not hosted on GitHub.
	ErrUnsupportedHost = errors.New("pull request links are only supported for github.com")
)

// Client runs git in Dir (the process's working directory when empty).
type Client struct {
	Binary string
	Dir    string
	Runner shell.Runner
}

// NewClient returns a Client running "git" through r.
func NewClient(r shell.Runner, dir string) *Client {
	return &Client{Binary: "git", Dir: dir, Runner: r}
}

func (c *Client) output(ctx context.Context, args ...string) (shell.Result, error) {
	cmd := shell.New(c.Binary, args...)
	cmd.Dir = c.Dir
	return c.Runner.Output(ctx, cmd)
}

// CurrentBranch returns the short name of the checked out branch.
func (c *Client) CurrentBranch(ctx context.Context) (string, error) {
	res, err := c.output(ctx, "symbolic-ref", "--quiet", "--short", "HEAD")
	if err != nil {
		return "", err
	}
	if !res.Success() {
		if res.ExitCode == 1 {
			return "", ErrDetachedHead
		}
		return "", fmt.Errorf("git symbolic-ref exited %d: %s", res.ExitCode, strings.TrimSpace(string(res.Stderr)))
	}
	return res.Text(), nil
}

// RemoteURL returns the fetch URL of the named remote, or "" when it does
// not exist.
func (c *Client) RemoteURL(ctx context.Context, name string) (string, error) {
	res, err := c.output(ctx, "remote", "get-url", name)
	if err != nil {
		return "", err
	}
	if !res.Success() {
		return "", nil
	}
	return res.Text(), nil
}

// PullRequestURL returns the GitHub link that opens a pull request for the
// current branch. The upstream remote is preferred over origin; when both
// exist the branch is qualified with the origin owner so the link targets
// the upstream repository from the fork. target, when set, is the base
// branch.
func (c *Client) PullRequestURL(ctx context.Context, target string) (string, error) {
	branch, err := c.CurrentBranch(ctx)
	if err != nil {
		return "", err
	}

	upstreamURL, err := c.RemoteURL(ctx, "upstream")
	if err != nil {
		return "", err
	}
	originURL, err := c.RemoteURL(ctx, "origin")
	if err != nil {
		return "", err
	}

	return pullRequestURL(upstreamURL, originURL, branch, target)
}

func pullRequestURL(upstreamURL, originURL, branch, target string) (string, error) {
	baseURL := upstreamURL
	if baseURL == "" {
		baseURL = originURL
	}
	if baseURL == "" {
		return "", ErrNoRemote
	}

	base, err := repo.ParseRemote(baseURL)
	if err != nil {
		return "", err
	}
	if base.Host != "github.com" {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedHost, base.Host)
	}

	head := branch
	if upstreamURL != "" && originURL != "" {
		origin, err := repo.ParseRemote(originURL)
		if err != nil {
			return "", err
		}
		if origin.Owner() != base.Owner() {
			head = origin.Owner() + ":" + branch
		}
	}

	var b strings.Builder
	b.WriteString("https://")
	b.WriteString(base.WebURL())
	b.WriteString("/pull/")
	if target != "" {
		b.WriteString(target)
		b.WriteString("...")
	}
	b.WriteString(head)
	return b.String(), nil
}
