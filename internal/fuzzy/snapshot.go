package fuzzy

// Snapshot is an immutable view of the ranking at one point in time.
// The zero Snapshot has no items and no matches.
type Snapshot[T any] struct {
	items     []T
	matches   []match
	itemCount int
	pattern   string
}

// Match is a ranked item.
type Match[T any] struct {
	Item  T
	Rank  int
	Score int
}

// MatchedCount returns how many items match the query.
func (s Snapshot[T]) MatchedCount() int {
	return len(s.matches)
}

// ItemCount returns how many items had been pushed when the snapshot was
// taken.
func (s Snapshot[T]) ItemCount() int {
	return s.itemCount
}

// Pattern returns the query the snapshot was ranked against.
func (s Snapshot[T]) Pattern() string {
	return s.pattern
}

// Get returns the item at rank (0 is the best match).
func (s Snapshot[T]) Get(rank int) (T, bool) {
	if rank < 0 || rank >= len(s.matches) {
		var zero T
		return zero, false
	}
	return s.items[s.matches[rank].index], true
}

// Range returns the matches ranked in [start, end), clamped to the matched
// count. Only the requested window is materialized.
func (s Snapshot[T]) Range(start, end int) []Match[T] {
	start = max(start, 0)
	end = min(end, len(s.matches))
	if start >= end {
		return nil
	}

	out := make([]Match[T], 0, end-start)
	for rank := start; rank < end; rank++ {
		m := s.matches[rank]
		out = append(out, Match[T]{Item: s.items[m.index], Rank: rank, Score: m.score})
	}
	return out
}
