// Package shell runs external programs (git, tmux) on behalf of sdev.
//
// A command that cannot be started, or whose I/O fails, is reported as an
// *Error. A command that starts and exits non-zero is not an error at this
// layer: callers inspect Result.ExitCode and decide what the exit means.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// promptStyle renders echoed commands the way the terminal shows comments.
var promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

// Command is a program invocation.
type Command struct {
	Name string
	Args []string
	Dir  string

	// Echo prints "$ name args..." to the runner's Stdout before running.
	Echo bool
}

// New builds a Command.
func New(name string, args ...string) Command {
	return Command{Name: name, Args: args}
}

// Echoed returns a copy of c that is printed before it runs.
func (c Command) Echoed() Command {
	c.Echo = true
	return c
}

// String renders the command line as it would be typed.
func (c Command) String() string {
	var b strings.Builder
	b.WriteString(c.Name)
	for _, arg := range c.Args {
		b.WriteByte(' ')
		b.WriteString(arg)
	}
	return b.String()
}

// Result describes a finished command.
type Result struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// Success reports whether the command exited zero.
func (r Result) Success() bool {
	return r.ExitCode == 0
}

// Text returns stdout with surrounding whitespace removed.
func (r Result) Text() string {
	return strings.TrimSpace(string(r.Stdout))
}

// Error is a spawn or I/O failure.
type Error struct {
	Command string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("error running %q: %v", e.Command, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Runner executes commands.
type Runner interface {
	// Run executes c attached to the caller's terminal.
	Run(ctx context.Context, c Command) (Result, error)

	// Output executes c capturing stdout and stderr.
	Output(ctx context.Context, c Command) (Result, error)
}

// Exec is the Runner backed by os/exec.
type Exec struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

// Compile-time check that Exec implements Runner.
var _ Runner = (*Exec)(nil)

// NewExec returns an Exec wired to the process's standard streams.
func NewExec(logger *slog.Logger) *Exec {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exec{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Logger: logger,
	}
}

// Run implements Runner.
func (e *Exec) Run(ctx context.Context, c Command) (Result, error) {
	if c.Echo && e.Stdout != nil {
		fmt.Fprintln(e.Stdout, promptStyle.Render("$ "+c.String()))
		fmt.Fprintln(e.Stdout)
	}

	cmd := e.command(ctx, c)
	cmd.Stdin = e.Stdin
	cmd.Stdout = e.Stdout
	cmd.Stderr = e.Stderr

	return e.wait(c, cmd.Run())
}

// Output implements Runner.
func (e *Exec) Output(ctx context.Context, c Command) (Result, error) {
	var stdout, stderr bytes.Buffer

	cmd := e.command(ctx, c)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	res, err := e.wait(c, cmd.Run())
	res.Stdout = stdout.Bytes()
	res.Stderr = stderr.Bytes()
	return res, err
}

func (e *Exec) command(ctx context.Context, c Command) *exec.Cmd {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	return cmd
}

// wait converts the outcome of cmd.Run into a Result, separating a non-zero
// exit from a failure to run at all.
func (e *Exec) wait(c Command, err error) (Result, error) {
	if err == nil {
		e.logger().Debug("command finished", "cmd", c.String(), "exit", 0)
		return Result{}, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		e.logger().Debug("command finished", "cmd", c.String(), "exit", code)
		return Result{ExitCode: code}, nil
	}

	e.logger().Warn("command failed to run", "cmd", c.String(), "error", err)
	return Result{ExitCode: -1}, &Error{Command: c.String(), Err: err}
}

func (e *Exec) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}
