package tactics

import (
	"testing"
	"time"

	"github.com/connect-four/agent/internal/board"
	"github.com/stretchr/testify/require"
)

const emptyRows = `
	. . . . . . .
	. . . . . . .
	. . . . . . .
	. . . . . . .
	. . . . . . .
	. . . . . . .
`

func bottomRow(cols []int, side board.Side) board.Board {
	var b board.Board
	for _, col := range cols {
		b.Place(board.Rows-1, col, side)
	}
	return b
}

func TestCheckWin(t *testing.T) {
	t.Run("every four-in-a-row placement wins", func(t *testing.T) {
		for row := 0; row < board.Rows; row++ {
			for col := 0; col < board.Columns; col++ {
				for _, d := range Axes {
					endR, endC := row+3*d.DR, col+3*d.DC
					if !inBounds(endR, endC) {
						continue
					}
					var b board.Board
					for k := 0; k < 4; k++ {
						b.Place(row+k*d.DR, col+k*d.DC, board.Opponent)
					}
					require.True(t, CheckWin(&b, board.Opponent), "line from (%d,%d) along %v", row, col, d)
					require.False(t, CheckWin(&b, board.Self))
				}
			}
		}
	})

	t.Run("three in a row is not a win", func(t *testing.T) {
		for row := 0; row < board.Rows; row++ {
			for col := 0; col < board.Columns; col++ {
				for _, d := range Axes {
					if !inBounds(row+2*d.DR, col+2*d.DC) {
						continue
					}
					var b board.Board
					for k := 0; k < 3; k++ {
						b.Place(row+k*d.DR, col+k*d.DC, board.Self)
					}
					require.False(t, CheckWin(&b, board.Self))
				}
			}
		}
	})

	t.Run("mixed sides do not combine", func(t *testing.T) {
		b := board.Parse(`
			. . . . . . .
			. . . . . . .
			. . . . . . .
			. . . . . . .
			. . . . . . .
			X X O X X . .
		`)
		require.False(t, CheckWin(&b, board.Self))
		require.False(t, CheckWin(&b, board.Opponent))
	})
}

func TestFindWinningMove(t *testing.T) {
	t.Run("none on the empty board", func(t *testing.T) {
		b := board.Parse(emptyRows)
		_, ok := FindWinningMove(&b, board.Self)
		require.False(t, ok)
	})

	t.Run("extends three on the bottom row", func(t *testing.T) {
		b := bottomRow([]int{0, 1, 2}, board.Self)
		col, ok := FindWinningMove(&b, board.Self)
		require.True(t, ok)
		require.Equal(t, 3, col)

		next := b.Play(col, board.Self)
		require.True(t, CheckWin(&next, board.Self))
		require.Equal(t, bottomRow([]int{0, 1, 2}, board.Self), b, "board is unchanged")
	})

	t.Run("finds the opponent's win", func(t *testing.T) {
		b := bottomRow([]int{0, 1, 2}, board.Opponent)
		col, ok := FindWinningMove(&b, board.Opponent)
		require.True(t, ok)
		require.Equal(t, 3, col)
	})

	t.Run("prefers the center-first column", func(t *testing.T) {
		b := bottomRow([]int{3, 4, 5}, board.Self)
		col, ok := FindWinningMove(&b, board.Self)
		require.True(t, ok)
		require.Equal(t, 2, col, "column 2 comes before column 6")
	})

	t.Run("vertical", func(t *testing.T) {
		b := board.Parse(`
			. . . . . . .
			. . . . . . .
			. . . . . . .
			. . . . . . O
			. . . . . . O
			X X . . . . O
		`)
		col, ok := FindWinningMove(&b, board.Opponent)
		require.True(t, ok)
		require.Equal(t, 6, col)
	})
}

func TestWinningMoveAmong(t *testing.T) {
	b := bottomRow([]int{1, 2, 3}, board.Self)

	col, ok := WinningMoveAmong(&b, []int{4, 0}, board.Self)
	require.True(t, ok)
	require.Equal(t, 4, col)

	col, ok = WinningMoveAmong(&b, []int{5, 0, 6}, board.Self)
	require.True(t, ok)
	require.Equal(t, 0, col, "the second winning column is used when the first is not offered")

	_, ok = WinningMoveAmong(&b, []int{5, 6}, board.Self)
	require.False(t, ok)
}

func TestIsSuicidal(t *testing.T) {
	// The opponent's diagonal (5,3) (4,4) (3,5) needs (2,6). Column 6 lands at
	// (3,6), so a self piece there lifts the opponent onto its winning cell.
	b := board.Parse(`
		. . . . . . .
		. . . . . . .
		. . . . . . .
		. . . . . O .
		. . . . O X X
		. . . O X X O
	`)
	_, ok := FindWinningMove(&b, board.Opponent)
	require.False(t, ok, "no immediate opponent win before the move")

	require.True(t, IsSuicidal(&b, 6, board.Self))
	require.False(t, IsSuicidal(&b, 3, board.Self))
	require.False(t, IsSuicidal(&b, 5, board.Self))
}

func TestSafeColumns(t *testing.T) {
	b := board.Parse(`
		. . . . . . .
		. . . . . . .
		. . . . . . .
		. . . . . O .
		. . . . O X X
		. . . O X X O
	`)
	safe := SafeColumns(&b, b.ValidColumns(), board.Self)
	require.NotContains(t, safe, 6)
	require.Contains(t, safe, 3)

	t.Run("falls back to every column when all are suicidal", func(t *testing.T) {
		cols := []int{6}
		require.Equal(t, cols, SafeColumns(&b, cols, board.Self))
	})
}

func TestCreatesDoubleThreat(t *testing.T) {
	t.Run("open pair becomes an open three from either side", func(t *testing.T) {
		b := bottomRow([]int{3, 4}, board.Self)
		require.True(t, CreatesDoubleThreat(&b, 2, board.Self))
		require.True(t, CreatesDoubleThreat(&b, 5, board.Self))
		require.False(t, CreatesDoubleThreat(&b, 0, board.Self))
		require.Equal(t, bottomRow([]int{3, 4}, board.Self), b)
	})

	t.Run("a winning move is not a double threat", func(t *testing.T) {
		b := bottomRow([]int{1, 2, 4, 5}, board.Self)
		require.False(t, CreatesDoubleThreat(&b, 3, board.Self))
	})

	t.Run("full column", func(t *testing.T) {
		var b board.Board
		for i := 0; i < board.Rows; i++ {
			b.Apply(0, board.Side(i%2))
		}
		require.False(t, CreatesDoubleThreat(&b, 0, board.Self))
	})
}

func doubleTwoBoard() board.Board {
	return board.Parse(`
		. . . . . . .
		. . . . . . .
		. . . . . . .
		. . . . . O .
		. . . . O X .
		. O O . X X .
	`)
}

func TestIsDoubleTwoSpot(t *testing.T) {
	b := doubleTwoBoard()
	require.True(t, IsDoubleTwoSpot(&b, 5, 3, board.Opponent), "horizontal and anti-diagonal runs meet at (5,3)")
	require.False(t, IsDoubleTwoSpot(&b, 5, 0, board.Opponent), "only the horizontal run reaches (5,0)")
	require.False(t, IsDoubleTwoSpot(&b, 5, 3, board.Self))
}

func TestFindBlockingDoubleTwoSpot(t *testing.T) {
	b := doubleTwoBoard()
	col, ok := FindBlockingDoubleTwoSpot(&b, board.Self)
	require.True(t, ok)
	require.Equal(t, 3, col)

	empty := board.Parse(emptyRows)
	_, ok = FindBlockingDoubleTwoSpot(&empty, board.Self)
	require.False(t, ok)
}

func TestIsForcedWinInTwo(t *testing.T) {
	future := time.Now().Add(time.Minute)

	t.Run("open three on the bottom row", func(t *testing.T) {
		b := bottomRow([]int{2, 3}, board.Self)
		require.True(t, IsForcedWinInTwo(&b, 4, board.Self, future))
		require.True(t, IsForcedWinInTwo(&b, 1, board.Self, future))
		require.Equal(t, bottomRow([]int{2, 3}, board.Self), b)
	})

	t.Run("quiet opening move", func(t *testing.T) {
		b := board.Parse(emptyRows)
		require.False(t, IsForcedWinInTwo(&b, 3, board.Self, future))
	})

	t.Run("expired deadline never claims a win", func(t *testing.T) {
		b := bottomRow([]int{2, 3}, board.Self)
		require.False(t, IsForcedWinInTwo(&b, 4, board.Self, time.Now().Add(-time.Second)))
	})

	t.Run("deadline passing mid scan", func(t *testing.T) {
		b := bottomRow([]int{2, 3}, board.Self)
		start := time.Now()
		calls := 0
		clock := func() time.Time {
			calls++
			return start.Add(time.Duration(calls) * time.Second)
		}
		require.False(t, isForcedWinInTwo(&b, 4, board.Self, start.Add(2500*time.Millisecond), clock))
		require.Equal(t, 3, calls)
	})
}

func TestCounts(t *testing.T) {
	b := board.Parse(`
		. . . . . . .
		. . . . . . .
		. . . . . . .
		. . . . . . .
		. . . . . . .
		X X X . O O .
	`)
	require.Equal(t, 1, CountOpenThrees(&b, board.Self))
	require.Equal(t, 0, CountOpenThrees(&b, board.Opponent))
	require.Equal(t, 2, CountTwos(&b, board.Self))
	require.Equal(t, 1, CountTwos(&b, board.Opponent))

	t.Run("closed three is not open", func(t *testing.T) {
		b := board.Parse(`
			. . . . . . .
			. . . . . . .
			. . . . . . .
			. . . . . . .
			. . . . . . .
			O X X X O . .
		`)
		require.Equal(t, 0, CountOpenThrees(&b, board.Self))
	})
}
