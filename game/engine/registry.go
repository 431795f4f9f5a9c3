package engine

import (
	"fmt"
	"strconv"
)

// Registry stores agents in a dense slice with a stable id to index map.
// Iteration order is the enumeration order given at construction.
type Registry struct {
	agents []Agent
	index  map[string]int
}

// NewRegistry creates a registry for the given ids. Agents start dead with
// zero energy until ResetAll is called.
func NewRegistry(ids []string) (*Registry, error) {
	if len(ids) < MinAgents {
		return nil, fmt.Errorf("%w: at least %d agent required", ErrInvalidConfig, MinAgents)
	}

	r := &Registry{
		agents: make([]Agent, len(ids)),
		index:  make(map[string]int, len(ids)),
	}
	for i, id := range ids {
		if _, dup := r.index[id]; dup {
			return nil, fmt.Errorf("%w: duplicate agent id %q", ErrInvalidConfig, id)
		}
		r.index[id] = i
		r.agents[i] = Agent{ID: id}
	}
	return r, nil
}

// AgentIDs returns the default identities "0".."n-1".
func AgentIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = strconv.Itoa(i)
	}
	return ids
}

// ResetAll puts every agent back at the colony with the given energy.
func (r *Registry) ResetAll(startEnergy int) {
	for i := range r.agents {
		a := &r.agents[i]
		a.Position = ColonyPos
		a.Energy = startEnergy
		a.Alive = true
		a.Reward = 0
		a.CumulativeReward = 0
	}
}

// Len returns the number of agents.
func (r *Registry) Len() int { return len(r.agents) }

// CountAlive returns the number of agents still alive.
func (r *Registry) CountAlive() int {
	n := 0
	for i := range r.agents {
		if r.agents[i].Alive {
			n++
		}
	}
	return n
}

// CountAt returns the number of agents, alive or dead, located at p.
func (r *Registry) CountAt(p Position) int {
	n := 0
	for i := range r.agents {
		if r.agents[i].Position == p {
			n++
		}
	}
	return n
}

// Get returns a mutable pointer to the agent with the given id.
func (r *Registry) Get(id string) (*Agent, error) {
	i, ok := r.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAgent, id)
	}
	return &r.agents[i], nil
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	_, ok := r.index[id]
	return ok
}

// IDs returns the identities in enumeration order.
func (r *Registry) IDs() []string {
	ids := make([]string, len(r.agents))
	for i := range r.agents {
		ids[i] = r.agents[i].ID
	}
	return ids
}

// Snapshot returns a copy of every agent.
func (r *Registry) Snapshot() []Agent {
	out := make([]Agent, len(r.agents))
	copy(out, r.agents)
	return out
}
