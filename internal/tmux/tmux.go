// Package tmux talks to the tmux server through its command line.
package tmux

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/runger/sdev/internal/shell"
)

// SessionName is a tmux-safe session identifier. tmux treats '.' and ':' as
// target separators, so both are replaced with '_'.
type SessionName string

// NewSessionName sanitizes s into a SessionName.
func NewSessionName(s string) SessionName {
	return SessionName(strings.Map(func(r rune) rune {
		switch r {
		case '.', ':':
			return '_'
		default:
			return r
		}
	}, s))
}

func (n SessionName) String() string {
	return string(n)
}

// exact is the target form that disables tmux's prefix matching.
func (n SessionName) exact() string {
	return "=" + string(n)
}

// Session is a running tmux session.
type Session struct {
	Name SessionName
}

func (s Session) String() string {
	return s.Name.String()
}

// Client issues tmux commands.
type Client struct {
	Binary string
	Runner shell.Runner

	// LookupEnv reads the environment; os.LookupEnv when nil.
	LookupEnv func(key string) (string, bool)

	Logger *slog.Logger
}

// NewClient returns a Client running binary ("tmux" when empty) through r.
func NewClient(binary string, r shell.Runner) *Client {
	if binary == "" {
		binary = "tmux"
	}
	return &Client{Binary: binary, Runner: r, LookupEnv: os.LookupEnv, Logger: slog.Default()}
}

func (c *Client) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

func (c *Client) command(args ...string) shell.Command {
	return shell.New(c.Binary, args...)
}

// InTmux reports whether this process runs inside a tmux client. Only the
// presence of $TMUX matters, not its value.
func (c *Client) InTmux() bool {
	lookup := c.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	_, ok := lookup("TMUX")
	return ok
}

// HasSession reports whether a session named exactly name exists.
func (c *Client) HasSession(ctx context.Context, name SessionName) (bool, error) {
	res, err := c.Runner.Output(ctx, c.command("has-session", "-t", name.exact()))
	if err != nil {
		return false, err
	}
	return res.Success(), nil
}

// CurrentSession returns the name of the session the calling client is
// attached to.
func (c *Client) CurrentSession(ctx context.Context) (string, error) {
	res, err := c.Runner.Output(ctx, c.command("display-message", "-p", "#S"))
	if err != nil {
		return "", err
	}
	if !res.Success() {
		return "", nil
	}
	return res.Text(), nil
}

// NewSession starts a detached session rooted at dir.
func (c *Client) NewSession(ctx context.Context, name SessionName, dir string) (shell.Result, error) {
	return c.Runner.Run(ctx, c.command("new-session", "-d", "-s", name.String(), "-c", dir))
}

// AttachOrSwitch moves the user to name: switch-client from inside tmux,
// attach-session from a plain terminal. attach-session blocks until the user
// detaches.
func (c *Client) AttachOrSwitch(ctx context.Context, name SessionName) (shell.Result, error) {
	sub := "attach-session"
	if c.InTmux() {
		sub = "switch-client"
	}
	return c.Runner.Run(ctx, c.command(sub, "-t", name.String()))
}

// ListSessions returns the running sessions. A missing server means no
// sessions, not an error.
func (c *Client) ListSessions(ctx context.Context) ([]Session, error) {
	res, err := c.Runner.Output(ctx, c.command("list-sessions", "-F", "#{session_name}"))
	if err != nil {
		return nil, err
	}
	if !res.Success() {
		stderr := string(res.Stderr)
		if strings.Contains(stderr, "no server running") || strings.Contains(stderr, "error connecting to") {
			return nil, nil
		}
		return nil, fmt.Errorf("list-sessions exited %d: %s", res.ExitCode, strings.TrimSpace(string(res.Stderr)))
	}

	var sessions []Session
	for _, line := range strings.Split(res.Text(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		sessions = append(sessions, Session{Name: NewSessionName(line)})
	}
	return sessions, nil
}
