// Package agent holds the move-choosing strategies. Every strategy turns the
// same observation into a column, so they are interchangeable wherever a
// player is needed.
package agent

import (
	"fmt"
	"time"

	"github.com/connect-four/agent/internal/board"
)

// NoAction is returned when there is nothing to play: the game is over or no
// column is legal.
const NoAction = -1

// Observation is what a harness hands to the player whose turn it is
type Observation struct {
	Board      board.Snapshot
	Mask       board.Mask
	Terminated bool
	Truncated  bool
}

// Over reports whether the harness signalled the end of the game
func (o Observation) Over() bool {
	return o.Terminated || o.Truncated
}

// LegalColumns lists the columns the mask allows, in center-first order
func (o Observation) LegalColumns() []int {
	cols := make([]int, 0, board.Columns)
	for _, col := range board.CenterOrder {
		if o.Mask.Legal(col) {
			cols = append(cols, col)
		}
	}
	return cols
}

// Agent picks a column for the side to move, or NoAction
type Agent interface {
	Name() string
	ChooseAction(obs Observation) int
}

// Decision describes how a column was chosen
type Decision struct {
	Column  int           `json:"column"`
	Rule    string        `json:"rule"`
	Depth   int           `json:"depth,omitempty"`
	Score   int           `json:"score,omitempty"`
	Nodes   int           `json:"nodes,omitempty"`
	Elapsed time.Duration `json:"elapsed"`
}

// Decider is implemented by agents that can explain their choice
type Decider interface {
	Agent
	Decide(obs Observation) Decision
}

// Kinds accepted by New
const (
	KindRandom  = "random"
	KindRules   = "rules"
	KindMinimax = "minimax"
)

// Settings configures agents built by New
type Settings struct {
	Seed   uint64
	Depth  int
	Budget time.Duration
}

// New builds an agent by kind name
func New(kind string, settings Settings) (Agent, error) {
	switch kind {
	case KindRandom:
		return NewRandom(settings.Seed), nil
	case KindRules:
		return NewRuleBased(), nil
	case KindMinimax, "":
		var options []Option
		if settings.Depth > 0 {
			options = append(options, WithDepth(settings.Depth))
		}
		if settings.Budget > 0 {
			options = append(options, WithBudget(settings.Budget))
		}
		return NewMinimax(options...), nil
	default:
		return nil, fmt.Errorf("unknown agent kind %q", kind)
	}
}
