package business

import "slices"

// boundedLog keeps the newest limit entries in insertion order, evicting
// the oldest on overflow.
type boundedLog[T any] struct {
	limit   int
	entries []T
}

func newBoundedLog[T any](limit int, seed []T) boundedLog[T] {
	l := boundedLog[T]{limit: limit}
	for _, e := range seed {
		l.add(e)
	}
	return l
}

func (l *boundedLog[T]) add(e T) {
	l.entries = append(l.entries, e)
	if over := len(l.entries) - l.limit; over > 0 {
		l.entries = slices.Clone(l.entries[over:])
	}
}

func (l *boundedLog[T]) len() int {
	return len(l.entries)
}

func (l *boundedLog[T]) last() (T, bool) {
	var zero T
	if len(l.entries) == 0 {
		return zero, false
	}
	return l.entries[len(l.entries)-1], true
}

func (l *boundedLog[T]) snapshot() []T {
	return slices.Clone(l.entries)
}
