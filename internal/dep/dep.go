// Package dep converges external state toward declared goals.
//
// A Resource describes one goal ("a tmux session named X exists") together
// with how to check it and how to bring it about. Process walks a resource's
// preconditions depth-first and runs convergence actions only for goals that
// do not already hold, so processing the same resource twice in a row with no
// external change performs no actions the second time.
package dep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Status is the result of a resource's status predicate.
type Status bool

const (
	Unmet Status = false
	Met   Status = true
)

func (s Status) String() string {
	if s {
		return "met"
	}
	return "unmet"
}

// Resource is a named external-state goal.
//
// Met must not mutate anything and must be safe to call repeatedly: Process
// evaluates it up to twice per resource. Meet is the only place external
// state changes.
type Resource interface {
	fmt.Stringer

	// Met reports whether the goal currently holds.
	Met(ctx context.Context) (Status, error)

	// Meet attempts to establish the goal.
	Meet(ctx context.Context) error

	// Requires lists resources that must already hold before Met is
	// meaningful. They are processed before Met is evaluated.
	Requires() []Resource

	// RequiresToMeet lists resources processed only when the goal is unmet,
	// before Meet runs.
	RequiresToMeet() []Resource
}

// NoPreconditions can be embedded by resources without dependencies.
type NoPreconditions struct{}

func (NoPreconditions) Requires() []Resource { return nil }

func (NoPreconditions) RequiresToMeet() []Resource { return nil }

// ErrPostcondition matches errors from resources whose convergence action ran
// without failing but did not establish the goal.
var ErrPostcondition = errors.New("postcondition violated")

// UnmetError reports a resource that is still unmet after Meet.
type UnmetError struct {
	Resource string
}

func (e *UnmetError) Error() string {
	return fmt.Sprintf("%s: still unmet after converging", e.Resource)
}

// Is makes errors.Is(err, ErrPostcondition) true for *UnmetError.
func (e *UnmetError) Is(target error) bool {
	return target == ErrPostcondition
}

// Engine processes resources, logging each decision.
type Engine struct {
	logger *slog.Logger
}

// New returns an Engine logging to logger (slog.Default when nil).
func New(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger}
}

// Process converges r using the default logger.
func Process(ctx context.Context, r Resource) error {
	return New(nil).Process(ctx, r)
}

// Process converges r. The first failing resource aborts the whole chain.
func (e *Engine) Process(ctx context.Context, r Resource) error {
	for _, req := range r.Requires() {
		if err := e.Process(ctx, req); err != nil {
			return err
		}
	}

	status, err := r.Met(ctx)
	if err != nil {
		return fmt.Errorf("%s: checking status: %w", r, err)
	}
	if status == Met {
		e.logger.Debug("resource already met", "resource", r.String())
		return nil
	}

	for _, req := range r.RequiresToMeet() {
		if err := e.Process(ctx, req); err != nil {
			return err
		}
	}

	e.logger.Info("meeting resource", "resource", r.String())
	if err := r.Meet(ctx); err != nil {
		return fmt.Errorf("%s: %w", r, err)
	}

	status, err = r.Met(ctx)
	if err != nil {
		return fmt.Errorf("%s: checking status: %w", r, err)
	}
	if status != Met {
		e.logger.Warn("resource unmet after converging", "resource", r.String())
		return &UnmetError{Resource: r.String()}
	}

	return nil
}
