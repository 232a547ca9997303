package agent

import (
	"fmt"
	"time"

	"github.com/connect-four/agent/internal/search"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	DefaultDepth              = 4
	DefaultBudget             = 2 * time.Second
	DefaultForcedWinThreshold = 16
)

type Option func(m *Minimax)

func WithDepth(depth int) Option {
	return func(m *Minimax) {
		if depth > 0 {
			m.depth = depth
		}
	}
}

func WithBudget(budget time.Duration) Option {
	return func(m *Minimax) {
		if budget > 0 {
			m.budget = budget
		}
	}
}

// WithForcedWinThreshold sets how few empty cells must remain before the
// forced-win-in-two probe runs
func WithForcedWinThreshold(cells int) Option {
	return func(m *Minimax) {
		if cells >= 0 {
			m.forcedWinThreshold = cells
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Minimax) {
		if now != nil {
			m.now = now
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(m *Minimax) {
		m.logger = logger
	}
}

func WithName(name string) Option {
	return func(m *Minimax) {
		if name != "" {
			m.name = name
		}
	}
}

// Minimax runs the tactical ladder and falls back to alpha-beta search. It
// holds configuration only, so one value can serve concurrent games.
type Minimax struct {
	name               string
	depth              int
	budget             time.Duration
	forcedWinThreshold int
	now                func() time.Time
	logger             zerolog.Logger
	rules              []rule
}

func NewMinimax(options ...Option) *Minimax {
	m := &Minimax{ // Default values
		depth:              DefaultDepth,
		budget:             DefaultBudget,
		forcedWinThreshold: DefaultForcedWinThreshold,
		now:                time.Now,
		logger:             log.Logger,
	}
	for _, option := range options {
		option(m)
	}
	if m.name == "" {
		m.name = fmt.Sprintf("Minimax(d=%d)", m.depth)
	}
	m.rules = []rule{
		{RuleWin, immediateWin},
		{RuleBlock, immediateBlock},
		{RuleDoubleTwo, blockDoubleTwo},
		{"", avoidSuicide},
		{RuleForcedWin, forcedWinInTwo(m.forcedWinThreshold)},
		{RuleDoubleThreat, createDoubleThreat},
	}
	return m
}

func (m *Minimax) Name() string {
	return m.name
}

func (m *Minimax) ChooseAction(obs Observation) int {
	return m.Decide(obs).Column
}

// Decide picks a column and reports which rule picked it
func (m *Minimax) Decide(obs Observation) Decision {
	if obs.Over() {
		return Decision{Column: NoAction, Rule: RuleTerminal}
	}

	start := m.now()
	deadline := start.Add(m.budget)
	p := newPosition(obs, deadline)
	if len(p.legal) == 0 {
		return Decision{Column: NoAction, Rule: RuleTerminal}
	}

	d := m.decide(p, deadline)
	d.Elapsed = m.now().Sub(start)

	m.logger.Debug().
		Str("agent", m.name).
		Int("column", d.Column).
		Str("rule", d.Rule).
		Int("depth", d.Depth).
		Int("score", d.Score).
		Int("nodes", d.Nodes).
		Dur("elapsed", d.Elapsed).
		Msg("decision")
	return d
}

func (m *Minimax) decide(p *position, deadline time.Time) Decision {
	if col, name, ok := ladder(p, m.rules); ok {
		return Decision{Column: col, Rule: name}
	}

	s := search.New(deadline, search.WithClock(m.now))
	col, score, ok := s.Best(&p.board, p.candidates, m.depth)
	stats := s.Stats()
	if s.Expired() {
		m.logger.Debug().Str("agent", m.name).Int("deadline_hits", stats.DeadlineHits).Msg("search hit the deadline")
	}
	if !ok {
		col, _ = firstCandidate(p)
		return Decision{Column: col, Rule: RuleFallback}
	}
	return Decision{
		Column: col,
		Rule:   RuleSearch,
		Depth:  search.AdaptiveDepth(m.depth, p.board.EmptyCells()-1),
		Score:  score,
		Nodes:  stats.Nodes,
	}
}
