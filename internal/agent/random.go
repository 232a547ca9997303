package agent

import (
	"sync"

	"golang.org/x/exp/rand"
)

// Random plays a uniformly random legal column
type Random struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandom creates a random agent with a reproducible seed
func NewRandom(seed uint64) *Random {
	return &Random{rng: rand.New(rand.NewSource(seed))}
}

func (r *Random) Name() string {
	return "Random"
}

func (r *Random) ChooseAction(obs Observation) int {
	return r.Decide(obs).Column
}

func (r *Random) Decide(obs Observation) Decision {
	if obs.Over() {
		return Decision{Column: NoAction, Rule: RuleTerminal}
	}
	var legal []int
	for col := range obs.Mask {
		if obs.Mask.Legal(col) {
			legal = append(legal, col)
		}
	}
	if len(legal) == 0 {
		return Decision{Column: NoAction, Rule: RuleTerminal}
	}

	r.mu.Lock()
	col := legal[r.rng.Intn(len(legal))]
	r.mu.Unlock()
	return Decision{Column: col, Rule: RuleRandom}
}
