// Package shelltest provides a scripted shell.Runner for tests.
package shelltest

import (
	"context"
	"strings"
	"sync"

	"github.com/runger/sdev/internal/shell"
)

// Handler answers one command. It may mutate test state to simulate the
// command's external effect.
type Handler func(c shell.Command) (shell.Result, error)

// Recorder records every command it is asked to run and answers with the
// first handler whose prefix matches the command line.
type Recorder struct {
	mu       sync.Mutex
	calls    []shell.Command
	handlers []route
}

type route struct {
	prefix  string
	handler Handler
}

// Compile-time check that Recorder implements shell.Runner.
var _ shell.Runner = (*Recorder)(nil)

// On registers h for command lines starting with prefix.
// Routes are tried in registration order.
func (r *Recorder) On(prefix string, h Handler) *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers = append(r.handlers, route{prefix: prefix, handler: h})
	return r
}

// Exit is a Handler that exits with code and no output.
func Exit(code int) Handler {
	return func(shell.Command) (shell.Result, error) {
		return shell.Result{ExitCode: code}, nil
	}
}

// Stdout is a Handler that exits zero printing out.
func Stdout(out string) Handler {
	return func(shell.Command) (shell.Result, error) {
		return shell.Result{Stdout: []byte(out)}, nil
	}
}

// Fail is a Handler that reports a spawn failure.
func Fail(err error) Handler {
	return func(c shell.Command) (shell.Result, error) {
		return shell.Result{ExitCode: -1}, &shell.Error{Command: c.String(), Err: err}
	}
}

// Run implements shell.Runner.
func (r *Recorder) Run(_ context.Context, c shell.Command) (shell.Result, error) {
	return r.dispatch(c)
}

// Output implements shell.Runner.
func (r *Recorder) Output(_ context.Context, c shell.Command) (shell.Result, error) {
	return r.dispatch(c)
}

func (r *Recorder) dispatch(c shell.Command) (shell.Result, error) {
	r.mu.Lock()
	r.calls = append(r.calls, c)
	line := c.String()
	var h Handler
	for _, rt := range r.handlers {
		if strings.HasPrefix(line, rt.prefix) {
			h = rt.handler
			break
		}
	}
	r.mu.Unlock()

	if h == nil {
		return shell.Result{}, nil
	}
	return h(c)
}

// Calls returns the command lines run so far.
func (r *Recorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.calls))
	for i, c := range r.calls {
		out[i] = c.String()
	}
	return out
}

// Count returns how many recorded command lines start with prefix.
func (r *Recorder) Count(prefix string) int {
	n := 0
	for _, line := range r.Calls() {
		if strings.HasPrefix(line, prefix) {
			n++
		}
	}
	return n
}
