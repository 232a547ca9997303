// Package eval scores a board from the point of view of board.Self.
package eval

import (
	"github.com/connect-four/agent/internal/board"
	"github.com/connect-four/agent/internal/tactics"
)

const (
	WinScore    = 100000
	DangerScore = 5000

	openThreeBonus   = 200
	openThreePenalty = 50
	twoBonus         = 20
	twoPenalty       = 10
)

// PositionWeights favors the middle columns and the lower rows.
var PositionWeights = [board.Rows][board.Columns]int{
	{10, 10, 10, 10, 10, 10, 10},
	{10, 50, 50, 50, 50, 50, 10},
	{10, 50, 100, 200, 100, 50, 10},
	{50, 50, 100, 200, 100, 50, 50},
	{75, 100, 200, 200, 200, 100, 75},
	{100, 100, 200, 200, 200, 100, 100},
}

// Evaluate returns the static score of b; larger is better for board.Self
func Evaluate(b *board.Board) int {
	if tactics.CheckWin(b, board.Self) {
		return WinScore
	}
	if tactics.CheckWin(b, board.Opponent) {
		return -WinScore
	}

	score := 0
	if tactics.OpponentCanWinNext(b, board.Self) {
		score -= DangerScore
	}

	score += openThreeBonus*tactics.CountOpenThrees(b, board.Self) -
		openThreePenalty*tactics.CountOpenThrees(b, board.Opponent)
	score += twoBonus*tactics.CountTwos(b, board.Self) -
		twoPenalty*tactics.CountTwos(b, board.Opponent)

	return score + Positional(b)
}

// Positional sums PositionWeights over self pieces minus opponent pieces
func Positional(b *board.Board) int {
	score := 0
	for row := 0; row < board.Rows; row++ {
		for col := 0; col < board.Columns; col++ {
			switch {
			case b.IsOccupied(row, col, board.Self):
				score += PositionWeights[row][col]
			case b.IsOccupied(row, col, board.Opponent):
				score -= PositionWeights[row][col]
			}
		}
	}
	return score
}
