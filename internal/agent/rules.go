package agent

import (
	"time"

	"github.com/connect-four/agent/internal/board"
	"github.com/connect-four/agent/internal/tactics"
)

// Rule names reported in a Decision
const (
	RuleTerminal     = "terminal"
	RuleWin          = "win"
	RuleBlock        = "block"
	RuleDoubleTwo    = "block-double-two"
	RuleForcedWin    = "forced-win"
	RuleDoubleThreat = "double-threat"
	RuleBlockThreat  = "block-double-threat"
	RuleCenter       = "center"
	RuleSearch       = "search"
	RuleFallback     = "fallback"
	RuleRandom       = "random"
)

// position is the per-decision working state shared by a ladder of rules.
// It is created for one call and never outlives it.
type position struct {
	board      board.Board
	legal      []int
	candidates []int
	deadline   time.Time
}

// newPosition keeps only the columns the mask allows and the board can take
func newPosition(obs Observation, deadline time.Time) *position {
	b := board.FromSnapshot(obs.Board)
	var legal []int
	for _, col := range obs.LegalColumns() {
		if _, ok := b.NextFreeRow(col); ok {
			legal = append(legal, col)
		}
	}
	return &position{
		board:      b,
		legal:      legal,
		candidates: legal,
		deadline:   deadline,
	}
}

func (p *position) isLegal(col int) bool {
	for _, c := range p.legal {
		if c == col {
			return true
		}
	}
	return false
}

// rule either picks a column or passes to the next rung. Rules may narrow
// p.candidates for the rungs below them.
type rule struct {
	name string
	pick func(p *position) (int, bool)
}

// ladder runs rules in order and returns the first pick
func ladder(p *position, rules []rule) (int, string, bool) {
	for _, r := range rules {
		if col, ok := r.pick(p); ok {
			return col, r.name, true
		}
	}
	return NoAction, "", false
}

func immediateWin(p *position) (int, bool) {
	return tactics.WinningMoveAmong(&p.board, p.legal, board.Self)
}

func immediateBlock(p *position) (int, bool) {
	return tactics.WinningMoveAmong(&p.board, p.legal, board.Opponent)
}

func blockDoubleTwo(p *position) (int, bool) {
	col, ok := tactics.FindBlockingDoubleTwoSpot(&p.board, board.Self)
	return col, ok && p.isLegal(col)
}

// avoidSuicide never picks; it drops the candidates that hand the opponent a win
func avoidSuicide(p *position) (int, bool) {
	p.candidates = tactics.SafeColumns(&p.board, p.candidates, board.Self)
	return NoAction, false
}

func forcedWinInTwo(threshold int) func(p *position) (int, bool) {
	return func(p *position) (int, bool) {
		if p.board.EmptyCells() > threshold {
			return NoAction, false
		}
		for _, col := range p.candidates {
			if tactics.IsForcedWinInTwo(&p.board, col, board.Self, p.deadline) {
				return col, true
			}
		}
		return NoAction, false
	}
}

func createDoubleThreat(p *position) (int, bool) {
	for _, col := range p.candidates {
		if tactics.CreatesDoubleThreat(&p.board, col, board.Self) {
			return col, true
		}
	}
	return NoAction, false
}

func blockDoubleThreat(p *position) (int, bool) {
	for _, col := range p.candidates {
		if tactics.CreatesDoubleThreat(&p.board, col, board.Opponent) {
			return col, true
		}
	}
	return NoAction, false
}

var centerPreference = []int{3, 2, 4, 1, 5}

func preferCenter(p *position) (int, bool) {
	for _, col := range centerPreference {
		for _, c := range p.candidates {
			if c == col {
				return col, true
			}
		}
	}
	return NoAction, false
}

func firstCandidate(p *position) (int, bool) {
	if len(p.candidates) == 0 {
		return NoAction, false
	}
	return p.candidates[0], true
}
