// Package tactics holds the cheap pattern checks run before any search:
// wins, blocks, suicidal moves and the double-threat heuristics.
package tactics

import (
	"time"

	"github.com/connect-four/agent/internal/board"
)

// Direction is a (row, col) step along one of the four board axes
type Direction struct {
	DR, DC int
}

// Axes are the forward scan directions: right, down, down-right, down-left.
var Axes = [4]Direction{{0, 1}, {1, 0}, {1, 1}, {1, -1}}

func inBounds(row, col int) bool {
	return row >= 0 && row < board.Rows && col >= 0 && col < board.Columns
}

// runFrom reports whether side occupies n consecutive cells from (row, col) along d
func runFrom(b *board.Board, row, col int, d Direction, n int, side board.Side) bool {
	for k := 0; k < n; k++ {
		r, c := row+d.DR*k, col+d.DC*k
		if !inBounds(r, c) || !b.IsOccupied(r, c, side) {
			return false
		}
	}
	return true
}

// CheckWin reports whether side has four in a row anywhere on the board
func CheckWin(b *board.Board, side board.Side) bool {
	for row := 0; row < board.Rows; row++ {
		for col := 0; col < board.Columns; col++ {
			if !b.IsOccupied(row, col, side) {
				continue
			}
			for _, d := range Axes {
				if runFrom(b, row, col, d, 4, side) {
					return true
				}
			}
		}
	}
	return false
}

// FindWinningMove returns the first column, in center-first order, that wins
// immediately for side.
func FindWinningMove(b *board.Board, side board.Side) (int, bool) {
	return WinningMoveAmong(b, b.ValidColumns(), side)
}

// WinningMoveAmong returns the first of cols that wins immediately for side.
// Every column in cols must have a free row.
func WinningMoveAmong(b *board.Board, cols []int, side board.Side) (int, bool) {
	for _, col := range cols {
		won := board.Try(b, col, side, func(b *board.Board) bool {
			return CheckWin(b, side)
		})
		if won {
			return col, true
		}
	}
	return -1, false
}

// OpponentCanWinNext reports whether the side opposing side has an immediate win
func OpponentCanWinNext(b *board.Board, side board.Side) bool {
	_, ok := FindWinningMove(b, side.Other())
	return ok
}

// IsSuicidal reports whether playing col for side hands the other side an
// immediate win.
func IsSuicidal(b *board.Board, col int, side board.Side) bool {
	return board.Try(b, col, side, func(b *board.Board) bool {
		return OpponentCanWinNext(b, side)
	})
}

// SafeColumns drops suicidal columns from cols. When every column is suicidal
// the unfiltered list is returned so there is always something to play.
func SafeColumns(b *board.Board, cols []int, side board.Side) []int {
	safe := make([]int, 0, len(cols))
	for _, col := range cols {
		if !IsSuicidal(b, col, side) {
			safe = append(safe, col)
		}
	}
	if len(safe) == 0 {
		return cols
	}
	return safe
}

// CreatesDoubleThreat reports whether playing col leaves side with winning
// follow-ups in at least two distinct columns. A move that wins outright is
// not a double threat.
func CreatesDoubleThreat(b *board.Board, col int, side board.Side) bool {
	if _, ok := b.NextFreeRow(col); !ok {
		return false
	}
	return board.Try(b, col, side, func(b *board.Board) bool {
		if CheckWin(b, side) {
			return false
		}
		threats := 0
		for c := 0; c < board.Columns; c++ {
			if _, ok := b.NextFreeRow(c); !ok {
				continue
			}
			won := board.Try(b, c, side, func(b *board.Board) bool {
				return CheckWin(b, side)
			})
			if won {
				threats++
				if threats >= 2 {
					return true
				}
			}
		}
		return false
	})
}

// IsDoubleTwoSpot reports whether a side piece at (row, col) would sit on runs
// of three or more along at least two axes. The cell itself is assumed empty.
func IsDoubleTwoSpot(b *board.Board, row, col int, side board.Side) bool {
	good := 0
	for _, d := range Axes {
		count := 1
		for r, c := row+d.DR, col+d.DC; inBounds(r, c) && b.IsOccupied(r, c, side); r, c = r+d.DR, c+d.DC {
			count++
		}
		for r, c := row-d.DR, col-d.DC; inBounds(r, c) && b.IsOccupied(r, c, side); r, c = r-d.DR, c-d.DC {
			count++
		}
		if count >= 3 {
			good++
		}
	}
	return good >= 2
}

// FindBlockingDoubleTwoSpot scans columns left to right for a landing cell that
// would be a double two-spot for the side opposing side.
func FindBlockingDoubleTwoSpot(b *board.Board, side board.Side) (int, bool) {
	for col := 0; col < board.Columns; col++ {
		row, ok := b.NextFreeRow(col)
		if !ok {
			continue
		}
		if IsDoubleTwoSpot(b, row, col, side.Other()) {
			return col, true
		}
	}
	return -1, false
}

// IsForcedWinInTwo reports whether, after side plays col, every reply leaves
// side an immediate win. It gives up and returns false once deadline passes.
func IsForcedWinInTwo(b *board.Board, col int, side board.Side, deadline time.Time) bool {
	return isForcedWinInTwo(b, col, side, deadline, time.Now)
}

func isForcedWinInTwo(b *board.Board, col int, side board.Side, deadline time.Time, now func() time.Time) bool {
	if _, ok := b.NextFreeRow(col); !ok {
		return false
	}
	return board.Try(b, col, side, func(b *board.Board) bool {
		if CheckWin(b, side) {
			return true
		}
		replies := b.ValidColumns()
		if len(replies) == 0 {
			return false
		}
		opp := side.Other()
		for _, reply := range replies {
			if now().After(deadline) {
				return false
			}
			wins := board.Try(b, reply, opp, func(b *board.Board) bool {
				if CheckWin(b, opp) {
					return false
				}
				_, ok := FindWinningMove(b, side)
				return ok
			})
			if !wins {
				return false
			}
		}
		return true
	})
}

// CountOpenThrees counts three consecutive side pieces along an axis with an
// empty in-bounds cell directly before or after them. Positions holding a four
// are terminal and never reach this count.
func CountOpenThrees(b *board.Board, side board.Side) int {
	count := 0
	for row := 0; row < board.Rows; row++ {
		for col := 0; col < board.Columns; col++ {
			if !b.IsOccupied(row, col, side) {
				continue
			}
			for _, d := range Axes {
				if !runFrom(b, row, col, d, 3, side) {
					continue
				}
				pr, pc := row-d.DR, col-d.DC
				nr, nc := row+d.DR*3, col+d.DC*3
				if (inBounds(pr, pc) && b.IsEmpty(pr, pc)) || (inBounds(nr, nc) && b.IsEmpty(nr, nc)) {
					count++
				}
			}
		}
	}
	return count
}

// CountTwos counts pairs of adjacent side pieces along every axis
func CountTwos(b *board.Board, side board.Side) int {
	count := 0
	for row := 0; row < board.Rows; row++ {
		for col := 0; col < board.Columns; col++ {
			if !b.IsOccupied(row, col, side) {
				continue
			}
			for _, d := range Axes {
				if runFrom(b, row, col, d, 2, side) {
					count++
				}
			}
		}
	}
	return count
}
