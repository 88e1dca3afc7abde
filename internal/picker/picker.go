package picker

import (
	"time"

	"github.com/runger/sdev/internal/fuzzy"
)

// DefaultTickBudget bounds the ranking work done per frame.
const DefaultTickBudget = 10 * time.Millisecond

// State is the lifecycle of a Picker. Aborted and Completed are terminal.
type State int

const (
	StateRunning State = iota
	StateAborted
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateAborted:
		return "aborted"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Picker is one ranked candidate set with a selection cursor.
//
// The cursor is a rank in the current snapshot (0 is the best match) and
// always satisfies 0 <= cursor < max(1, matched).
type Picker[T any] struct {
	index  *fuzzy.Index[T]
	snap   fuzzy.Snapshot[T]
	cursor int
	budget time.Duration
	state  State
	result T
	busy   bool
}

// New returns a Picker ranking items by the text project returns.
func New[T any](project func(T) string) *Picker[T] {
	return &Picker[T]{
		index:  fuzzy.NewIndex(project),
		budget: DefaultTickBudget,
	}
}

// WithBudget sets the per-tick ranking budget.
func (p *Picker[T]) WithBudget(d time.Duration) *Picker[T] {
	if d > 0 {
		p.budget = d
	}
	return p
}

// Push adds a candidate. Safe to call from any goroutine.
func (p *Picker[T]) Push(item T) {
	p.index.Push(item)
}

// SetQuery re-parses the match pattern. See fuzzy.Index.SetQuery.
func (p *Picker[T]) SetQuery(query string, narrowing bool) {
	p.index.SetQuery(query, narrowing)
}

// Tick advances ranking by one budgeted step, refreshes the snapshot and
// re-clamps the cursor. It reports whether the visible ranking changed.
func (p *Picker[T]) Tick() bool {
	status := p.index.Advance(p.budget)
	p.busy = status.Running
	p.snap = p.index.Snapshot()
	p.clamp()
	return status.Changed
}

// Busy reports whether the last Tick left candidates untested.
func (p *Picker[T]) Busy() bool {
	return p.busy
}

// Snapshot returns the snapshot taken by the last Tick.
func (p *Picker[T]) Snapshot() fuzzy.Snapshot[T] {
	return p.snap
}

// MatchedCount returns the number of matches in the current snapshot.
func (p *Picker[T]) MatchedCount() int {
	return p.snap.MatchedCount()
}

// Cursor returns the selected rank.
func (p *Picker[T]) Cursor() int {
	return p.cursor
}

// MoveUp selects the next worse match. With the best match drawn at the
// bottom, this moves the highlight up the screen.
func (p *Picker[T]) MoveUp() {
	p.SelectAt(p.cursor + 1)
}

// MoveDown selects the next better match.
func (p *Picker[T]) MoveDown() {
	p.SelectAt(p.cursor - 1)
}

// SelectAt moves the cursor to rank i, clamped to the matched range.
func (p *Picker[T]) SelectAt(i int) {
	p.cursor = i
	p.clamp()
}

// clamp keeps the cursor inside [0, max(1, matched)).
func (p *Picker[T]) clamp() {
	n := p.snap.MatchedCount()
	if p.cursor >= n {
		p.cursor = n - 1
	}
	if p.cursor < 0 {
		p.cursor = 0
	}
}

// Selected returns the item under the cursor, or false when nothing matches.
func (p *Picker[T]) Selected() (T, bool) {
	return p.snap.Get(p.cursor)
}

// Window returns the matches visible in a list of rows rows.
func (p *Picker[T]) Window(rows int) []fuzzy.Match[T] {
	return p.snap.Range(0, min(p.snap.MatchedCount(), rows))
}

// State returns the lifecycle state.
func (p *Picker[T]) State() State {
	return p.state
}

// Abort ends the picker without a selection.
func (p *Picker[T]) Abort() {
	if p.state != StateRunning {
		return
	}
	var zero T
	p.result = zero
	p.state = StateAborted
}

// Complete ends the picker with the selected item. With no matches the
// picker keeps running and Complete returns false.
func (p *Picker[T]) Complete() bool {
	if p.state != StateRunning {
		return p.state == StateCompleted
	}
	item, ok := p.Selected()
	if !ok {
		return false
	}
	p.result = item
	p.state = StateCompleted
	return true
}

// Result returns the item chosen by Complete.
func (p *Picker[T]) Result() (T, bool) {
	return p.result, p.state == StateCompleted
}
