package tmux

import (
	"context"
	"fmt"

	"github.com/runger/sdev/internal/dep"
)

// SessionExists holds when tmux has a session with the given name.
type SessionExists struct {
	dep.NoPreconditions

	Name   SessionName
	Path   string
	Client *Client
}

// Compile-time check that SessionExists implements dep.Resource.
var _ dep.Resource = (*SessionExists)(nil)

// NewSessionExists returns the resource for a session named name (sanitized)
// rooted at path.
func NewSessionExists(c *Client, name, path string) *SessionExists {
	return &SessionExists{Name: NewSessionName(name), Path: path, Client: c}
}

func (r *SessionExists) String() string {
	return fmt.Sprintf("tmux session %q exists", r.Name)
}

// Met implements dep.Resource.
func (r *SessionExists) Met(ctx context.Context) (dep.Status, error) {
	ok, err := r.Client.HasSession(ctx, r.Name)
	if err != nil {
		return dep.Unmet, err
	}
	return dep.Status(ok), nil
}

// Meet implements dep.Resource.
func (r *SessionExists) Meet(ctx context.Context) error {
	res, err := r.Client.NewSession(ctx, r.Name, r.Path)
	if err != nil {
		return err
	}
	if !res.Success() {
		r.Client.logger().Warn("new-session exited non-zero", "session", r.Name.String(), "exit", res.ExitCode)
	}
	return nil
}

// SessionAttached holds when the user is looking at the named session.
//
// Inside tmux that means the current client's session is Name. From a plain
// terminal the process never runs inside the session it attaches to, so a
// successful attach-session (which returns once the user detaches) is taken
// as the goal having held.
type SessionAttached struct {
	Name   SessionName
	Path   string
	Client *Client

	handedOff bool
}

// Compile-time check that SessionAttached implements dep.Resource.
var _ dep.Resource = (*SessionAttached)(nil)

// NewSessionAttached returns the resource for attaching to a session named
// name (sanitized), created at path when missing.
func NewSessionAttached(c *Client, name, path string) *SessionAttached {
	return &SessionAttached{Name: NewSessionName(name), Path: path, Client: c}
}

func (r *SessionAttached) String() string {
	return fmt.Sprintf("tmux session %q attached", r.Name)
}

// Met implements dep.Resource. Outside tmux it is Unmet without running tmux.
func (r *SessionAttached) Met(ctx context.Context) (dep.Status, error) {
	if r.handedOff {
		return dep.Met, nil
	}
	if !r.Client.InTmux() {
		return dep.Unmet, nil
	}
	current, err := r.Client.CurrentSession(ctx)
	if err != nil {
		return dep.Unmet, err
	}
	return dep.Status(current == r.Name.String()), nil
}

// Meet implements dep.Resource.
func (r *SessionAttached) Meet(ctx context.Context) error {
	inside := r.Client.InTmux()
	res, err := r.Client.AttachOrSwitch(ctx, r.Name)
	if err != nil {
		return err
	}
	if !res.Success() {
		r.Client.logger().Warn("attach exited non-zero", "session", r.Name.String(), "exit", res.ExitCode)
		return nil
	}
	if !inside {
		r.handedOff = true
	}
	return nil
}

// Requires implements dep.Resource.
func (r *SessionAttached) Requires() []dep.Resource {
	return nil
}

// RequiresToMeet implements dep.Resource.
func (r *SessionAttached) RequiresToMeet() []dep.Resource {
	return []dep.Resource{&SessionExists{Name: r.Name, Path: r.Path, Client: r.Client}}
}
