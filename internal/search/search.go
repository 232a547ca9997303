// Package search implements the depth- and time-bounded alpha-beta search used
// once the tactical checks have nothing to say.
package search

import (
	"math"
	"time"

	"github.com/connect-four/agent/internal/board"
	"github.com/connect-four/agent/internal/eval"
	"github.com/connect-four/agent/internal/tactics"
)

const (
	negInf = math.MinInt32
	posInf = math.MaxInt32
)

type Option func(s *Search)

// WithClock replaces time.Now, mostly for tests
func WithClock(now func() time.Time) Option {
	return func(s *Search) {
		if now != nil {
			s.now = now
		}
	}
}

// Stats counts what one search did
type Stats struct {
	Nodes        int
	MemoHits     int
	Cutoffs      int
	DeadlineHits int
}

// Search is a single-use searcher. It owns the memo table for one decision and
// must not be shared between decisions.
type Search struct {
	deadline time.Time
	now      func() time.Time
	memo     *memo
	expired  bool
	stats    Stats
}

// New creates a searcher that stops descending once deadline has passed
func New(deadline time.Time, options ...Option) *Search {
	s := &Search{
		deadline: deadline,
		now:      time.Now,
		memo:     newMemo(),
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// Stats returns the counters gathered so far
func (s *Search) Stats() Stats {
	return s.stats
}

// Expired reports whether the deadline cut any part of the search short.
// Scores returned after that are provisional.
func (s *Search) Expired() bool {
	return s.expired
}

// Value searches b to depth with toMove to play, using a full window
func (s *Search) Value(b *board.Board, depth int, toMove board.Side) int {
	return s.alphaBeta(b, depth, negInf, posInf, toMove)
}

// Best plays each candidate for board.Self, searches the reply tree with an
// adaptive depth and returns the highest scoring column. Ties keep the earlier
// candidate. ok is false when no candidate was searched.
func (s *Search) Best(b *board.Board, candidates []int, baseDepth int) (col, score int, ok bool) {
	col, score = -1, negInf
	for _, c := range candidates {
		if ok && s.now().After(s.deadline) {
			s.expired = true
			break
		}
		m := b.Apply(c, board.Self)
		depth := AdaptiveDepth(baseDepth, b.EmptyCells())
		v := s.Value(b, depth, board.Opponent)
		b.Undo(m)

		if !ok || v > score {
			col, score, ok = c, v, true
		}
	}
	return col, score, ok
}

func (s *Search) alphaBeta(b *board.Board, depth, alpha, beta int, toMove board.Side) int {
	s.stats.Nodes++
	if s.now().After(s.deadline) {
		s.stats.DeadlineHits++
		s.expired = true
		return 0
	}

	if tactics.CheckWin(b, board.Self) {
		return eval.WinScore
	}
	if tactics.CheckWin(b, board.Opponent) {
		return -eval.WinScore
	}

	moves := b.ValidColumns()
	if depth <= 0 || len(moves) == 0 {
		return eval.Evaluate(b)
	}

	key := memoKey{cells: b.Key(), toMove: toMove}
	if score, ok := s.memo.lookup(key, alpha, beta); ok {
		s.stats.MemoHits++
		return score
	}

	alphaOrig, betaOrig := alpha, beta
	var best int
	if toMove == board.Self {
		best = negInf
		for _, col := range moves {
			m := b.Apply(col, board.Self)
			score := s.alphaBeta(b, depth-1, alpha, beta, board.Opponent)
			b.Undo(m)

			best = max(best, score)
			alpha = max(alpha, best)
			if beta <= alpha {
				s.stats.Cutoffs++
				break
			}
		}
	} else {
		best = posInf
		for _, col := range moves {
			m := b.Apply(col, board.Opponent)
			score := s.alphaBeta(b, depth-1, alpha, beta, board.Self)
			b.Undo(m)

			best = min(best, score)
			beta = min(beta, best)
			if beta <= alpha {
				s.stats.Cutoffs++
				break
			}
		}
	}

	// Anything computed after the deadline may contain neutral placeholders.
	if !s.expired {
		s.memo.store(key, best, alphaOrig, betaOrig)
	}
	return best
}

// Minimax is the unpruned, unmemoized reference search. It scores exactly like
// Search.Value without a deadline.
func Minimax(b *board.Board, depth int, toMove board.Side) int {
	if tactics.CheckWin(b, board.Self) {
		return eval.WinScore
	}
	if tactics.CheckWin(b, board.Opponent) {
		return -eval.WinScore
	}
	moves := b.ValidColumns()
	if depth <= 0 || len(moves) == 0 {
		return eval.Evaluate(b)
	}

	best := posInf
	if toMove == board.Self {
		best = negInf
	}
	for _, col := range moves {
		m := b.Apply(col, toMove)
		score := Minimax(b, depth-1, toMove.Other())
		b.Undo(m)
		if toMove == board.Self {
			best = max(best, score)
		} else {
			best = min(best, score)
		}
	}
	return best
}

// AdaptiveDepth searches deeper when few cells remain and shallower in the
// opening. The result is never below 1.
func AdaptiveDepth(base, emptyCells int) int {
	var depth int
	switch {
	case emptyCells <= 8:
		depth = base + 2
	case emptyCells <= 14:
		depth = base + 1
	default:
		depth = base - 1
	}
	return max(depth, 1)
}
