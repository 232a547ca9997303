package agent

import (
	"testing"

	"github.com/connect-four/agent/internal/board"
	"github.com/stretchr/testify/require"
)

func observe(layout string) Observation {
	b := board.Parse(layout)
	return Observation{Board: b.Snapshot(), Mask: b.Mask()}
}

const emptyLayout = `
	. . . . . . .
	. . . . . . .
	. . . . . . .
	. . . . . . .
	. . . . . . .
	. . . . . . .
`

func TestMinimaxLadder(t *testing.T) {
	m := NewMinimax()

	t.Run("wins before blocking", func(t *testing.T) {
		d := m.Decide(observe(`
			. . . . . . .
			. . . . . . .
			. . . . . . .
			. . . . . . .
			O O O . . . .
			X X X . . . .
		`))
		require.Equal(t, 3, d.Column)
		require.Equal(t, RuleWin, d.Rule)
	})

	t.Run("blocks the opponent's three", func(t *testing.T) {
		d := m.Decide(observe(`
			. . . . . . .
			. . . . . . .
			. . . . . . .
			. . . . . . .
			. . . . . . .
			O O O . . . .
		`))
		require.Equal(t, 3, d.Column)
		require.Equal(t, RuleBlock, d.Rule)
	})

	t.Run("blocks a double two-spot", func(t *testing.T) {
		d := m.Decide(observe(`
			. . . . . . .
			. . . . . . .
			. . . . . . .
			. . . . . O .
			. . . . O X .
			. O O . X X .
		`))
		require.Equal(t, 3, d.Column)
		require.Equal(t, RuleDoubleTwo, d.Rule)
	})

	t.Run("creates a double threat", func(t *testing.T) {
		d := m.Decide(observe(`
			. . . . . . .
			. . . . . . .
			. . . . . . .
			. . . . . . .
			. . . . . . .
			. . . X X . .
		`))
		require.Equal(t, 2, d.Column)
		require.Equal(t, RuleDoubleThreat, d.Rule)
	})

	t.Run("forced win runs before double threats in the endgame", func(t *testing.T) {
		endgame := NewMinimax(WithForcedWinThreshold(board.Rows * board.Columns))
		d := endgame.Decide(observe(`
			. . . . . . .
			. . . . . . .
			. . . . . . .
			. . . . . . .
			. . . . . . .
			. . X X . . .
		`))
		require.Equal(t, 4, d.Column)
		require.Equal(t, RuleForcedWin, d.Rule)
	})

	t.Run("falls through to search", func(t *testing.T) {
		d := m.Decide(observe(emptyLayout))
		require.Equal(t, RuleSearch, d.Rule)
		require.GreaterOrEqual(t, d.Column, 0)
		require.Less(t, d.Column, board.Columns)
		require.Positive(t, d.Nodes)
	})
}

func TestMinimaxRespectsMask(t *testing.T) {
	obs := observe(`
		. . . . . . .
		. . . . . . .
		. . . . . . .
		. . . . . . .
		. . . . . . .
		X X X . . . .
	`)
	obs.Mask[3] = 0

	col := NewMinimax().ChooseAction(obs)
	require.NotEqual(t, 3, col)
	require.True(t, obs.Mask.Legal(col))
}

func TestLadderScansLegalColumns(t *testing.T) {
	for _, a := range []Decider{NewMinimax(), NewRuleBased()} {
		t.Run(a.Name()+" win", func(t *testing.T) {
			obs := observe(`
				. . . . . . .
				. . . . . . .
				. . . . . . .
				. . . . . . .
				. . . . . . .
				. X X X . . .
			`)
			obs.Mask[4] = 0
			d := a.Decide(obs)
			require.Equal(t, 0, d.Column)
			require.Equal(t, RuleWin, d.Rule)
		})

		t.Run(a.Name()+" block", func(t *testing.T) {
			obs := observe(`
				. . . . . . .
				. . . . . . .
				. . . . . . .
				. . . . . . .
				. . . . . . .
				. O O O . . X
			`)
			obs.Mask[4] = 0
			d := a.Decide(obs)
			require.Equal(t, 0, d.Column)
			require.Equal(t, RuleBlock, d.Rule)
		})
	}
}

func TestMaskOpeningFullColumn(t *testing.T) {
	obs := observe(`
		. . . O . . .
		. . . X . . .
		. . . O . . .
		. . . X . . .
		. . . O . . .
		. . . X . . .
	`)
	obs.Mask = board.Mask{1, 1, 1, 1, 1, 1, 1}

	for _, a := range []Decider{NewMinimax(), NewRuleBased()} {
		d := a.Decide(obs)
		require.NotEqual(t, 3, d.Column, a.Name())
		require.GreaterOrEqual(t, d.Column, 0, a.Name())
	}
}

func TestMinimaxAvoidsSuicide(t *testing.T) {
	// Column 6 lands under the opponent's winning diagonal cell.
	obs := observe(`
		. . . . . . .
		. . . . . . .
		. . . . . . .
		. . . . . O .
		. . . . O X X
		. . . O X X O
	`)
	require.NotEqual(t, 6, NewMinimax().ChooseAction(obs))
}

func TestMinimaxNoAction(t *testing.T) {
	m := NewMinimax()

	obs := observe(emptyLayout)
	obs.Terminated = true
	require.Equal(t, NoAction, m.ChooseAction(obs))

	obs = observe(emptyLayout)
	obs.Truncated = true
	require.Equal(t, NoAction, m.ChooseAction(obs))

	obs = observe(emptyLayout)
	obs.Mask = board.Mask{}
	d := m.Decide(obs)
	require.Equal(t, NoAction, d.Column)
	require.Equal(t, RuleTerminal, d.Rule)
}

func TestMinimaxIsReproducible(t *testing.T) {
	obs := observe(`
		. . . . . . .
		. . . . . . .
		. . . X . . .
		. . O O X . .
		. X O X O . .
		O X X O X O .
	`)
	m := NewMinimax()
	first := m.Decide(obs)
	second := m.Decide(obs)
	require.Equal(t, first.Column, second.Column)
	require.Equal(t, first.Rule, second.Rule)
	require.Equal(t, first.Score, second.Score)
}

func TestRuleBased(t *testing.T) {
	r := NewRuleBased()

	require.Equal(t, 3, r.ChooseAction(observe(emptyLayout)), "center on an empty board")

	d := r.Decide(observe(`
		. . . . . . .
		. . . . . . .
		. . . . . . .
		. . . . . . .
		. . . . . . .
		. . . . O O O
	`))
	require.Equal(t, 3, d.Column)
	require.Equal(t, RuleBlock, d.Rule)

	obs := observe(emptyLayout)
	obs.Terminated = true
	require.Equal(t, NoAction, r.ChooseAction(obs))

	t.Run("edge columns only", func(t *testing.T) {
		obs := observe(emptyLayout)
		obs.Mask = board.Mask{1, 0, 0, 0, 0, 0, 1}
		d := r.Decide(obs)
		require.Equal(t, 0, d.Column, "center-first order puts column 0 before 6")
		require.Equal(t, RuleFallback, d.Rule)
	})
}

func TestRandom(t *testing.T) {
	obs := observe(emptyLayout)
	obs.Mask = board.Mask{0, 1, 0, 1, 0, 0, 1}

	a := NewRandom(42)
	b := NewRandom(42)
	seen := map[int]bool{}
	for i := 0; i < 200; i++ {
		col := a.ChooseAction(obs)
		require.True(t, obs.Mask.Legal(col))
		require.Equal(t, col, b.ChooseAction(obs), "same seed, same sequence")
		seen[col] = true
	}
	require.Len(t, seen, 3)

	obs.Mask = board.Mask{}
	require.Equal(t, NoAction, a.ChooseAction(obs))
}

func TestNew(t *testing.T) {
	for _, kind := range []string{KindRandom, KindRules, KindMinimax} {
		a, err := New(kind, Settings{Seed: 1, Depth: 3})
		require.NoError(t, err)
		require.NotEmpty(t, a.Name())
	}

	a, err := New(KindMinimax, Settings{Depth: 5})
	require.NoError(t, err)
	require.Equal(t, "Minimax(d=5)", a.Name())

	_, err = New("alphazero", Settings{})
	require.Error(t, err)
}
