package policy

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"

	"github.com/wricardo/mcp-training/antcolony/game/engine"
)

var ErrUnknownPolicy = errors.New("unknown policy")

// Policy picks the next action for an agent from its observation.
type Policy interface {
	Name() string
	Act(obs engine.Observation) engine.Action
}

var registry = map[string]func(seed uint64) Policy{
	"random":  func(seed uint64) Policy { return NewRandom(seed) },
	"forager": func(seed uint64) Policy { return NewForager(seed) },
}

// New returns the named policy seeded with seed.
func New(name string, seed uint64) (Policy, error) {
	ctor, ok := registry[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownPolicy, name, strings.Join(Names(), ", "))
	}
	return ctor(seed), nil
}

// Names lists the registered policies in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func newRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Random picks uniformly among the four actions.
type Random struct {
	rng *rand.Rand
}

func NewRandom(seed uint64) *Random {
	return &Random{rng: newRNG(seed)}
}

func (r *Random) Name() string { return "random" }

func (r *Random) Act(engine.Observation) engine.Action {
	return engine.Action(r.rng.IntN(engine.NumActions))
}

// Observation indices of the compass neighbours.
const (
	obsN = 2 + iota
	obsNE
	obsE
	obsSE
	obsS
	obsSW
	obsW
	obsNW
)

// Cell scores used by Forager. Hazards rank below the board edge: walking
// into the edge costs the same energy but no extra reward.
var cellScore = map[int]int{
	int(engine.Boundary): -3,
	int(engine.Empty):    2,
	int(engine.Food):     10,
	int(engine.Hazard):   -5,
	int(engine.Occupied): 1,
}

// diagonalFoodBonus is added to both moves that lead next to diagonal food.
const diagonalFoodBonus = 3

// Forager moves onto adjacent food when it can, drifts toward diagonal food,
// and otherwise prefers free cells over crowded ones, hazards and the board
// edge. Ties are broken at random.
type Forager struct {
	rng *rand.Rand
}

func NewForager(seed uint64) *Forager {
	return &Forager{rng: newRNG(seed)}
}

func (f *Forager) Name() string { return "forager" }

func (f *Forager) Act(obs engine.Observation) engine.Action {
	scores := Scores(obs)

	best := []engine.Action{}
	bestScore := 0
	for _, a := range engine.AllActions() {
		s := scores[a]
		switch {
		case len(best) == 0 || s > bestScore:
			best = append(best[:0], a)
			bestScore = s
		case s == bestScore:
			best = append(best, a)
		}
	}
	return best[f.rng.IntN(len(best))]
}

// Scores rates each action for the observing agent. Higher is better.
func Scores(obs engine.Observation) [engine.NumActions]int {
	var scores [engine.NumActions]int
	scores[engine.Left] = cellScore[obs[obsW]]
	scores[engine.Up] = cellScore[obs[obsN]]
	scores[engine.Right] = cellScore[obs[obsE]]
	scores[engine.Down] = cellScore[obs[obsS]]

	food := int(engine.Food)
	if obs[obsNE] == food {
		scores[engine.Up] += diagonalFoodBonus
		scores[engine.Right] += diagonalFoodBonus
	}
	if obs[obsSE] == food {
		scores[engine.Down] += diagonalFoodBonus
		scores[engine.Right] += diagonalFoodBonus
	}
	if obs[obsSW] == food {
		scores[engine.Down] += diagonalFoodBonus
		scores[engine.Left] += diagonalFoodBonus
	}
	if obs[obsNW] == food {
		scores[engine.Up] += diagonalFoodBonus
		scores[engine.Left] += diagonalFoodBonus
	}
	return scores
}
