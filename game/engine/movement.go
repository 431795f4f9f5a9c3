package engine

import "fmt"

// HazardPenalty is the reward deducted for stepping onto a hazard.
const HazardPenalty = 1

// World is the mutable simulation state shared by the resolver and the
// observation builder. The Engine owns it.
//
// With PreserveTerrain unset, an agent's presence overwrites whatever was in
// its cell and leaving restores nothing. With it set, vacated cells show
// their terrain again and hazards keep hurting.
type World struct {
	Board           *Board
	Agents          *Registry
	FoodValue       int
	PreserveTerrain bool
}

// Outcome describes what a resolved action did.
type Outcome struct {
	Reward    float64
	Done      bool
	From      Position
	To        Position
	Moved     bool
	AteFood   bool
	HitHazard bool
	Died      bool
}

// Resolve applies action for the agent and returns its reward for this turn
// and whether it is dead. The attempt costs one energy and one reward even
// when the move is rejected; a dead agent's turn only clears its reward.
func (w *World) Resolve(id string, action Action) (Outcome, error) {
	if !action.Valid() {
		return Outcome{}, fmt.Errorf("%w: %d", ErrInvalidAction, int(action))
	}
	agent, err := w.Agents.Get(id)
	if err != nil {
		return Outcome{}, err
	}

	agent.Reward = 0
	out := Outcome{From: agent.Position, To: agent.Position}

	if agent.Alive {
		agent.Energy--
		agent.Reward--

		dx, dy := action.Delta()
		dest := agent.Position.Add(dx, dy)

		if agent.Energy > 0 && w.Board.InBounds(dest) {
			w.moveAgent(agent, dest, &out)
		}

		if agent.Energy < 0 {
			agent.Alive = false
			out.Died = true
		}
		agent.CumulativeReward += agent.Reward
	}

	out.Reward = agent.Reward
	out.Done = !agent.Alive
	return out, nil
}

// moveAgent relocates a live agent whose move has already been found legal.
// The vacated cell becomes Occupied if another agent is still there and
// Empty (or its terrain, when preserved) otherwise.
func (w *World) moveAgent(agent *Agent, dest Position, out *Outcome) {
	from := agent.Position
	switch {
	case w.Agents.CountAt(from) > 1:
		w.Board.put(from, Occupied)
	case w.PreserveTerrain:
		w.Board.put(from, w.Board.terrainAt(from))
	default:
		w.Board.put(from, Empty)
	}
	agent.Position = dest

	under := w.Board.at(dest)
	if w.PreserveTerrain {
		under = w.Board.terrainAt(dest)
	}

	switch under {
	case Food:
		w.Board.paint(dest, Empty)
		agent.Reward += float64(w.FoodValue + 1)
		agent.Energy += w.FoodValue
		out.AteFood = true
	case Hazard:
		agent.Reward -= HazardPenalty
		out.HitHazard = true
	}

	w.Board.put(dest, Occupied)
	out.To = dest
	out.Moved = true
}

// compass lists the neighbour offsets in observation order:
// N, NE, E, SE, S, SW, W, NW.
var compass = [8]struct{ dx, dy int }{
	{-1, 0},
	{-1, 1},
	{0, 1},
	{1, 1},
	{1, 0},
	{1, -1},
	{0, -1},
	{-1, -1},
}

// Observe builds the local view of an agent. It never mutates the world.
func (w *World) Observe(id string) (Observation, error) {
	var obs Observation

	agent, err := w.Agents.Get(id)
	if err != nil {
		return obs, err
	}

	pos := agent.Position
	obs[0], obs[1] = pos.X, pos.Y
	for i, d := range compass {
		p := pos.Add(d.dx, d.dy)
		if w.Board.InBounds(p) {
			obs[i+2] = w.Board.at(p).Code()
		} else {
			obs[i+2] = int(Boundary)
		}
	}
	return obs, nil
}

// CanMove reports whether the agent's next attempt in the given direction
// would change its position.
func (w *World) CanMove(id string, action Action) bool {
	agent, err := w.Agents.Get(id)
	if err != nil || !agent.Alive || !action.Valid() {
		return false
	}
	dx, dy := action.Delta()
	return agent.Energy-1 > 0 && w.Board.InBounds(agent.Position.Add(dx, dy))
}
