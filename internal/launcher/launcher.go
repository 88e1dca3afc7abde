// Package launcher ties the picker to the convergence engine: it fills the
// repository and session pickers, runs the interactive picker, and makes sure
// a tmux session for the selection exists and is attached.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/runger/sdev/internal/config"
	"github.com/runger/sdev/internal/dep"
	"github.com/runger/sdev/internal/picker"
	"github.com/runger/sdev/internal/repo"
	"github.com/runger/sdev/internal/tmux"
)

// Kind tells which candidate set a Target came from.
type Kind int

const (
	KindRepo Kind = iota
	KindSession
)

func (k Kind) String() string {
	switch k {
	case KindRepo:
		return "repo"
	case KindSession:
		return "session"
	default:
		return "unknown"
	}
}

// Target is one picker candidate: a working copy or a running session.
type Target struct {
	Kind Kind
	// Name is the tmux session name before sanitizing.
	Name string
	// Path is the working directory for a new session.
	Path string
	// Text is what the picker matches against and displays.
	Text string
}

// RepoTarget returns the Target for a working copy, matched by its path
// relative to root (github.com/rails/rails).
func RepoTarget(r repo.GitRepo, root string) Target {
	return Target{
		Kind: KindRepo,
		Name: r.Name,
		Path: r.Path,
		Text: filepath.ToSlash(r.RelativePath(root)),
	}
}

// SessionTarget returns the Target for a running session. The session
// already exists, so root only serves as a fallback directory.
func SessionTarget(s tmux.Session, root string) Target {
	return Target{
		Kind: KindSession,
		Name: s.Name.String(),
		Path: root,
		Text: s.Name.String(),
	}
}

func (t Target) String() string {
	return t.Text
}

func targetText(t Target) string {
	return t.Text
}

// Launcher runs the pick-then-converge flow.
type Launcher struct {
	// Root is the expanded directory holding working copies.
	Root string
	Tmux *tmux.Client

	FrameInterval time.Duration
	TickBudget    time.Duration
	// StartFocus is config.FocusRepos or config.FocusSessions.
	StartFocus string
	// Query pre-fills the prompt.
	Query string

	Logger *slog.Logger
}

func (l *Launcher) logger() *slog.Logger {
	if l.Logger == nil {
		return slog.Default()
	}
	return l.Logger
}

// Pickers holds the two candidate sets shown by the launcher.
type Pickers struct {
	Repos    *picker.Picker[Target]
	Sessions *picker.Picker[Target]
}

// NewPickers returns empty repository and session pickers.
func (l *Launcher) NewPickers() Pickers {
	return Pickers{
		Repos:    picker.New(targetText).WithBudget(l.TickBudget),
		Sessions: picker.New(targetText).WithBudget(l.TickBudget),
	}
}

// Ingest walks Root and lists tmux sessions concurrently, pushing every
// candidate as soon as it is found. It returns when both producers finish
// or ctx is cancelled. One failing producer does not stop the other. A
// missing tmux server yields no sessions, not an error.
func (l *Launcher) Ingest(ctx context.Context, p Pickers) error {
	var g errgroup.Group

	g.Go(func() error {
		var n int
		err := repo.Walk(ctx, l.Root, func(r repo.GitRepo) error {
			p.Repos.Push(RepoTarget(r, l.Root))
			n++
			return nil
		})
		if err != nil {
			return fmt.Errorf("walking %s: %w", l.Root, err)
		}
		l.logger().Debug("repositories ingested", "root", l.Root, "count", n)
		return nil
	})

	g.Go(func() error {
		sessions, err := l.Tmux.ListSessions(ctx)
		if err != nil {
			return fmt.Errorf("listing tmux sessions: %w", err)
		}
		for _, s := range sessions {
			p.Sessions.Push(SessionTarget(s, l.Root))
		}
		l.logger().Debug("sessions ingested", "count", len(sessions))
		return nil
	})

	return g.Wait()
}

// Model builds the picker model over p. Sessions come first so Tab order
// matches the status bar; StartFocus picks the initial tab.
func (l *Launcher) Model(p Pickers) picker.Model[Target] {
	m := picker.NewModel(
		picker.Source[Target]{Label: "sessions", Picker: p.Sessions},
		picker.Source[Target]{Label: "repos", Picker: p.Repos},
	).WithFrameInterval(l.FrameInterval)

	focus := 1
	if l.StartFocus == config.FocusSessions {
		focus = 0
	}
	m = m.WithFocus(focus)
	if l.Query != "" {
		m = m.WithQuery(l.Query)
	}
	return m
}

// Pick runs the picker program on in/out until the user completes or aborts.
// It reports false when nothing was chosen.
func (l *Launcher) Pick(ctx context.Context, m picker.Model[Target], in io.Reader, out io.Writer) (Target, bool, error) {
	opts := []tea.ProgramOption{
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
		tea.WithAltScreen(),
	}

	final, err := tea.NewProgram(m, opts...).Run()
	if err != nil {
		return Target{}, false, fmt.Errorf("running picker: %w", err)
	}

	fm, ok := final.(picker.Model[Target])
	if !ok {
		return Target{}, false, errors.New("unexpected picker model type")
	}
	if fm.IsCancelled() {
		return Target{}, false, nil
	}
	t, ok := fm.Result()
	return t, ok, nil
}

// Converge makes sure the session for t exists and the terminal is attached
// to it.
func (l *Launcher) Converge(ctx context.Context, t Target) error {
	l.logger().Info("converging", "kind", t.Kind.String(), "name", t.Name, "path", t.Path)
	res := tmux.NewSessionAttached(l.Tmux, t.Name, t.Path)
	return dep.New(l.logger()).Process(ctx, res)
}

// Run is the whole launcher flow: ingest in the background, pick, stop
// ingestion, then converge on the selection. Aborting the picker is not an
// error and runs no tmux commands.
func (l *Launcher) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	p := l.NewPickers()

	ingestCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- l.Ingest(ingestCtx, p)
	}()

	t, ok, err := l.Pick(ctx, l.Model(p), in, out)

	cancel()
	if ierr := <-done; ierr != nil && !errors.Is(ierr, context.Canceled) {
		l.logger().Warn("ingestion failed", "error", ierr)
	}

	if err != nil {
		return err
	}
	if !ok {
		l.logger().Debug("picker aborted")
		return nil
	}
	return l.Converge(ctx, t)
}
