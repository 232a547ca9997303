package search

import "github.com/connect-four/agent/internal/board"

type bound uint8

const (
	boundExact bound = iota
	boundLower
	boundUpper
)

type memoKey struct {
	cells  [2][board.Rows][board.Columns]bool
	toMove board.Side
}

type memoEntry struct {
	score int
	bound bound
}

// memo caches node scores for one decision. Entries remember whether the score
// was exact or only a bound from a pruned window, so a hit never changes the
// value a full expansion would return.
type memo struct {
	entries map[memoKey]memoEntry
}

func newMemo() *memo {
	return &memo{entries: make(map[memoKey]memoEntry)}
}

func (m *memo) lookup(key memoKey, alpha, beta int) (int, bool) {
	e, ok := m.entries[key]
	if !ok {
		return 0, false
	}
	switch e.bound {
	case boundExact:
		return e.score, true
	case boundLower:
		if e.score >= beta {
			return e.score, true
		}
	case boundUpper:
		if e.score <= alpha {
			return e.score, true
		}
	}
	return 0, false
}

func (m *memo) store(key memoKey, score, alpha, beta int) {
	b := boundExact
	switch {
	case score <= alpha:
		b = boundUpper
	case score >= beta:
		b = boundLower
	}
	m.entries[key] = memoEntry{score: score, bound: b}
}

func (m *memo) len() int {
	return len(m.entries)
}
