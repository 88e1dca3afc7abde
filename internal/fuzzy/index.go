// Package fuzzy keeps a growing set of candidates ranked against a query.
//
// Items are pushed from any goroutine and become visible on the next call to
// Advance. Ranking runs in bounded steps: each Advance tests candidates until
// its time budget is spent, so a UI loop can call it once per frame and let a
// large candidate set converge over several frames.
//
// SetQuery, Advance and Snapshot belong to a single consumer (the UI loop).
// Push may be called concurrently with all of them.
package fuzzy

import (
	"cmp"
	"slices"
	"sync"
	"time"

	sfuzzy "github.com/sahilm/fuzzy"
)

// chunkSize is how many candidates are tested between budget checks.
const chunkSize = 256

// Status is the outcome of one Advance call.
type Status struct {
	// Changed is true when the visible ranking differs from the previous
	// snapshot.
	Changed bool

	// Running is true while candidates remain untested for the current query.
	Running bool
}

type match struct {
	index int // position in the item slice
	score int
}

// Index is an append-only candidate set with an incrementally ranked view.
type Index[T any] struct {
	project func(T) string

	// itemsMu guards items and texts. Both only grow; an element is never
	// written after it is appended.
	itemsMu sync.Mutex
	items   []T
	texts   []string

	// stateMu guards the ranking pass.
	stateMu  sync.Mutex
	pattern  string
	needle   string // normalized pattern
	queue    []int // candidates carried over by a narrowing query
	queuePos int
	scanned  int // items below this index were queued or tested this pass
	matches  []match
	dirty    bool
	snap     Snapshot[T]
}

// NewIndex returns an empty Index. project maps an item to the text matched
// against the query.
func NewIndex[T any](project func(T) string) *Index[T] {
	return &Index[T]{project: project}
}

// Push adds an item. It is ranked from the next Advance on.
func (x *Index[T]) Push(item T) {
	text := Normalize(x.project(item))

	x.itemsMu.Lock()
	x.items = append(x.items, item)
	x.texts = append(x.texts, text)
	x.itemsMu.Unlock()
}

// Len returns the number of items pushed so far.
func (x *Index[T]) Len() int {
	x.itemsMu.Lock()
	defer x.itemsMu.Unlock()
	return len(x.items)
}

// Pattern returns the active query.
func (x *Index[T]) Pattern() string {
	x.stateMu.Lock()
	defer x.stateMu.Unlock()
	return x.pattern
}

// SetQuery replaces the active query and starts a new ranking pass.
//
// narrowing may only be true when text extends the previous query; the pass
// then re-tests only the items that still could match. Otherwise every item
// is tested again.
func (x *Index[T]) SetQuery(text string, narrowing bool) {
	x.stateMu.Lock()
	defer x.stateMu.Unlock()

	if text == x.pattern {
		return
	}
	if text == "" {
		narrowing = false
	}

	if narrowing {
		// Items already matched plus items still waiting in the interrupted
		// pass. Anything at or beyond scanned is picked up as new.
		carry := make([]int, 0, len(x.matches)+len(x.queue)-x.queuePos)
		for _, m := range x.matches {
			carry = append(carry, m.index)
		}
		carry = append(carry, x.queue[x.queuePos:]...)
		slices.Sort(carry)
		x.queue = carry
	} else {
		x.queue = nil
		x.scanned = 0
	}

	x.queuePos = 0
	x.pattern = text
	x.needle = Normalize(text)
	x.matches = x.matches[:0:0]
	x.dirty = true
}

// Advance tests candidates until budget is spent or none remain.
// At least one chunk is tested per call so ranking always makes progress.
func (x *Index[T]) Advance(budget time.Duration) Status {
	x.stateMu.Lock()
	defer x.stateMu.Unlock()

	x.itemsMu.Lock()
	items := x.items
	texts := x.texts
	x.itemsMu.Unlock()

	start := time.Now()
	for {
		batch := x.nextBatch(len(texts))
		if len(batch) == 0 {
			break
		}
		x.test(batch, texts)
		if time.Since(start) >= budget {
			break
		}
	}

	running := x.queuePos < len(x.queue) || x.scanned < len(texts)
	changed := x.dirty || x.snap.itemCount != len(items)
	if x.dirty {
		slices.SortStableFunc(x.matches, func(a, b match) int {
			if c := cmp.Compare(b.score, a.score); c != 0 {
				return c
			}
			return cmp.Compare(a.index, b.index)
		})
		x.dirty = false
	}
	if changed {
		x.snap = Snapshot[T]{
			items:     items,
			matches:   slices.Clone(x.matches),
			itemCount: len(items),
			pattern:   x.pattern,
		}
	}

	return Status{Changed: changed, Running: running}
}

// Snapshot returns the ranking as of the last Advance.
func (x *Index[T]) Snapshot() Snapshot[T] {
	x.stateMu.Lock()
	defer x.stateMu.Unlock()
	return x.snap
}

// nextBatch returns up to chunkSize candidate indexes, draining the carried
// queue before the items not yet seen in this pass.
func (x *Index[T]) nextBatch(total int) []int {
	if x.queuePos < len(x.queue) {
		end := min(x.queuePos+chunkSize, len(x.queue))
		batch := x.queue[x.queuePos:end]
		x.queuePos = end
		return batch
	}
	if x.scanned < total {
		end := min(x.scanned+chunkSize, total)
		batch := make([]int, 0, end-x.scanned)
		for i := x.scanned; i < end; i++ {
			batch = append(batch, i)
		}
		x.scanned = end
		return batch
	}
	return nil
}

func (x *Index[T]) test(batch []int, texts []string) {
	if x.needle == "" {
		for _, i := range batch {
			x.matches = append(x.matches, match{index: i})
		}
		x.dirty = true
		return
	}

	found := sfuzzy.FindFrom(x.needle, batchSource{batch: batch, texts: texts})
	for _, m := range found {
		x.matches = append(x.matches, match{index: batch[m.Index], score: m.Score})
	}
	if len(found) > 0 {
		x.dirty = true
	}
}

// batchSource exposes a subset of texts to the ranking engine.
type batchSource struct {
	batch []int
	texts []string
}

func (s batchSource) String(i int) string { return s.texts[s.batch[i]] }

func (s batchSource) Len() int { return len(s.batch) }
