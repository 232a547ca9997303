package agent

import "time"

// RuleBased plays the tactical ladder without any lookahead search
type RuleBased struct {
	rules []rule
}

func NewRuleBased() *RuleBased {
	return &RuleBased{
		rules: []rule{
			{RuleWin, immediateWin},
			{RuleBlock, immediateBlock},
			{"", avoidSuicide},
			{RuleDoubleThreat, createDoubleThreat},
			{RuleBlockThreat, blockDoubleThreat},
			{RuleCenter, preferCenter},
			{RuleFallback, firstCandidate},
		},
	}
}

func (r *RuleBased) Name() string {
	return "RuleBased"
}

func (r *RuleBased) ChooseAction(obs Observation) int {
	return r.Decide(obs).Column
}

func (r *RuleBased) Decide(obs Observation) Decision {
	if obs.Over() {
		return Decision{Column: NoAction, Rule: RuleTerminal}
	}
	start := time.Now()
	p := newPosition(obs, time.Time{})
	col, name, ok := ladder(p, r.rules)
	if !ok {
		return Decision{Column: NoAction, Rule: RuleTerminal}
	}
	return Decision{Column: col, Rule: name, Elapsed: time.Since(start)}
}
