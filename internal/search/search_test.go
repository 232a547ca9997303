package search

import (
	"testing"
	"time"

	"github.com/connect-four/agent/internal/board"
	"github.com/connect-four/agent/internal/eval"
	"github.com/stretchr/testify/require"
)

var positions = map[string]string{
	"empty": `
		. . . . . . .
		. . . . . . .
		. . . . . . .
		. . . . . . .
		. . . . . . .
		. . . . . . .
	`,
	"opening": `
		. . . . . . .
		. . . . . . .
		. . . . . . .
		. . . . . . .
		. . . O . . .
		. . X X O . .
	`,
	"midgame": `
		. . . . . . .
		. . . . . . .
		. . . X . . .
		. . O O X . .
		. X O X O . .
		O X X O X O .
	`,
	"threats": `
		. . . . . . .
		. . . . . . .
		. . . . . . .
		. . . . . O .
		. . . . O X X
		. . . O X X O
	`,
	"crowded": `
		. O X . O . X
		. X O . X O O
		O O X X O X X
		X X O O X O O
		O O X X O X X
		X X O O X O O
	`,
}

func future() time.Time {
	return time.Now().Add(time.Hour)
}

func TestValueMatchesMinimax(t *testing.T) {
	for name, layout := range positions {
		for depth := 1; depth <= 4; depth++ {
			for _, side := range []board.Side{board.Self, board.Opponent} {
				b := board.Parse(layout)
				want := Minimax(&b, depth, side)
				got := New(future()).Value(&b, depth, side)
				require.Equal(t, want, got, "%s depth %d %s to move", name, depth, side)
				require.Equal(t, board.Parse(layout), b, "board restored")
			}
		}
	}
}

func TestSharedMemoMatchesMinimax(t *testing.T) {
	b := board.Parse(positions["midgame"])
	s := New(future())
	for _, col := range b.ValidColumns() {
		m := b.Apply(col, board.Self)
		want := Minimax(&b, 3, board.Opponent)
		require.Equal(t, want, s.Value(&b, 3, board.Opponent), "after column %d", col)
		b.Undo(m)
	}
	require.Positive(t, s.memo.len())
	require.Positive(t, s.Stats().Nodes)
}

func TestTerminalIgnoresDepth(t *testing.T) {
	b := board.Parse(`
		. . . . . . .
		. . . . . . .
		. . . . . . .
		. . . . . . .
		. . . . . . .
		O O O O X X X
	`)
	require.Equal(t, -eval.WinScore, New(future()).Value(&b, 0, board.Self))
	require.Equal(t, -eval.WinScore, New(future()).Value(&b, 5, board.Self))
}

func TestBest(t *testing.T) {
	t.Run("takes the win", func(t *testing.T) {
		b := board.Parse(`
			. . . . . . .
			. . . . . . .
			. . . . . . .
			. . . . . . .
			. . . . O O .
			. X X X O O .
		`)
		col, score, ok := New(future()).Best(&b, b.ValidColumns(), 3)
		require.True(t, ok)
		require.Equal(t, eval.WinScore, score)

		after := b.Play(col, board.Self)
		require.Equal(t, eval.WinScore, Minimax(&after, AdaptiveDepth(3, after.EmptyCells()), board.Opponent))
	})

	t.Run("ties keep the earlier candidate", func(t *testing.T) {
		var b board.Board
		col, _, ok := New(future()).Best(&b, []int{2, 4}, 3)
		require.True(t, ok)
		require.Equal(t, 2, col)

		col, _, _ = New(future()).Best(&b, []int{4, 2}, 3)
		require.Equal(t, 4, col)
	})

	t.Run("no candidates", func(t *testing.T) {
		var b board.Board
		_, _, ok := New(future()).Best(&b, nil, 3)
		require.False(t, ok)
	})
}

func TestBestIsDeterministic(t *testing.T) {
	b := board.Parse(positions["midgame"])

	col1, score1, ok1 := New(future()).Best(&b, b.ValidColumns(), 4)
	col2, score2, ok2 := New(future()).Best(&b, b.ValidColumns(), 4)

	require.True(t, ok1)
	require.True(t, ok2)
	require.Equal(t, col1, col2)
	require.Equal(t, score1, score2)
	require.Equal(t, board.Parse(positions["midgame"]), b)
}

func TestDeadline(t *testing.T) {
	t.Run("expired before the search starts", func(t *testing.T) {
		b := board.Parse(positions["opening"])
		s := New(time.Now().Add(-time.Second))
		require.Equal(t, 0, s.Value(&b, 4, board.Self))
		require.True(t, s.Expired())
		require.Equal(t, 1, s.Stats().DeadlineHits)
		require.Zero(t, s.memo.len(), "nothing is memoized after the deadline")
	})

	t.Run("expiring mid search restores the board", func(t *testing.T) {
		start := time.Now()
		calls := 0
		clock := func() time.Time {
			calls++
			return start.Add(time.Duration(calls) * time.Millisecond)
		}
		b := board.Parse(positions["midgame"])
		s := New(start.Add(200*time.Millisecond), WithClock(clock))

		col, _, ok := s.Best(&b, b.ValidColumns(), 6)
		require.True(t, ok)
		require.Contains(t, b.ValidColumns(), col)
		require.True(t, s.Expired())
		require.Equal(t, board.Parse(positions["midgame"]), b)
	})
}

func TestAdaptiveDepth(t *testing.T) {
	require.Equal(t, 6, AdaptiveDepth(4, 8))
	require.Equal(t, 6, AdaptiveDepth(4, 1))
	require.Equal(t, 5, AdaptiveDepth(4, 14))
	require.Equal(t, 5, AdaptiveDepth(4, 9))
	require.Equal(t, 3, AdaptiveDepth(4, 15))
	require.Equal(t, 3, AdaptiveDepth(4, 42))
	require.Equal(t, 1, AdaptiveDepth(1, 42))

	for empty := 0; empty <= board.Rows*board.Columns; empty++ {
		if empty <= 14 {
			require.GreaterOrEqual(t, AdaptiveDepth(4, empty), 4)
		}
	}
}
