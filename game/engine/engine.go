package engine

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// Simulation provides the main interface for episode operations
type Simulation interface {
	// Episode management
	Reset() error
	Step(action Action) (*StepResult, error)
	StepAs(agentID string, action Action) (*StepResult, error)
	IsDone() bool
	CountAlive() int
	CurrentAgent() string
	TotalTurns() int
	StepCount() int

	// Observation
	Observe(agentID string) (Observation, error)
	GetAgent(agentID string) (Agent, error)
	GetAgents() []Agent
	CellAt(x, y int) (CellState, error)
	GetState() *State
	RenderText() string

	// Configuration
	GetConfig() *SimConfig

	// History
	GetHistory() []TurnRecord
	GetLastTurn() *TurnRecord
}

// Engine is the episode controller. It owns the world and the scheduler and
// keeps the turn counters.
type Engine struct {
	config    *SimConfig
	rng       *rand.Rand
	world     *World
	scheduler *Scheduler

	totalTurns  int
	stepCount   int
	episodeDone bool
	history     []TurnRecord
}

var _ Simulation = (*Engine)(nil)

// NewEngine creates an engine from a validated copy of config and resets it.
// The random source is seeded once from config.Seed; later resets continue
// the same stream.
func NewEngine(config *SimConfig) (*Engine, error) {
	if err := ValidateConfig(config); err != nil {
		return nil, err
	}

	cfg := config.Clone()
	registry, err := NewRegistry(AgentIDs(cfg.AgentCount))
	if err != nil {
		return nil, err
	}

	e := &Engine{
		config:    cfg,
		rng:       rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
		world:     &World{Agents: registry, FoodValue: cfg.FoodValue, PreserveTerrain: cfg.PreserveTerrain},
		scheduler: NewScheduler(registry.IDs()),
	}

	if err := e.Reset(); err != nil {
		return nil, err
	}
	return e, nil
}

// NewEngineWithDefaults creates an engine with DefaultConfig.
func NewEngineWithDefaults() *Engine {
	e, err := NewEngine(DefaultConfig())
	if err != nil {
		panic(fmt.Sprintf("default config rejected: %v", err))
	}
	return e
}

// Reset regenerates the board and returns every agent to the colony. On
// error the previous episode is left untouched.
func (e *Engine) Reset() error {
	board, err := GenerateBoard(e.config.BoardWidth, e.config.BoardHeight, e.config.NumFood, e.config.NumHazards, e.rng)
	if err != nil {
		return err
	}

	e.world.Board = board
	e.world.Agents.ResetAll(e.config.StartingEnergy)
	e.scheduler.Reset()
	e.totalTurns = 0
	e.stepCount = 0
	e.episodeDone = false
	e.history = []TurnRecord{}
	return nil
}

// Step resolves action for the current agent and advances the turn.
func (e *Engine) Step(action Action) (*StepResult, error) {
	return e.StepAs(e.scheduler.Current(), action)
}

// StepAs is Step with an explicit acting agent, which must be the current one.
func (e *Engine) StepAs(agentID string, action Action) (*StepResult, error) {
	current := e.scheduler.Current()
	if agentID != current {
		if !e.world.Agents.Has(agentID) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownAgent, agentID)
		}
		return nil, fmt.Errorf("%w: %q acted on %q's turn", ErrNotCurrentAgent, agentID, current)
	}

	out, err := e.world.Resolve(agentID, action)
	if err != nil {
		return nil, err
	}

	alive := e.world.Agents.CountAlive()
	e.episodeDone = alive == 0

	obs, err := e.world.Observe(agentID)
	if err != nil {
		return nil, err
	}
	agent, _ := e.world.Agents.Get(agentID)

	e.scheduler.Advance()
	e.totalTurns++
	e.stepCount = e.totalTurns / e.scheduler.Len()

	e.history = append(e.history, TurnRecord{
		Turn:      e.totalTurns,
		AgentID:   agentID,
		Action:    action.String(),
		From:      out.From,
		To:        out.To,
		Energy:    agent.Energy,
		Reward:    out.Reward,
		Moved:     out.Moved,
		AteFood:   out.AteFood,
		HitHazard: out.HitHazard,
		Died:      out.Died,
	})

	return &StepResult{
		AgentID:     agentID,
		Action:      action,
		Observation: obs,
		Reward:      out.Reward,
		Done:        out.Done,
		Info: StepInfo{
			TotalTurns:  e.totalTurns,
			StepCount:   e.stepCount,
			EpisodeDone: e.episodeDone,
			AliveCount:  alive,
			Energy:      agent.Energy,
			From:        out.From,
			To:          out.To,
			Moved:       out.Moved,
			AteFood:     out.AteFood,
			HitHazard:   out.HitHazard,
			Died:        out.Died,
		},
	}, nil
}

// IsDone returns whether every agent is dead
func (e *Engine) IsDone() bool {
	return e.episodeDone
}

// CountAlive returns the number of live agents
func (e *Engine) CountAlive() int {
	return e.world.Agents.CountAlive()
}

// CurrentAgent returns the id of the acting agent
func (e *Engine) CurrentAgent() string {
	return e.scheduler.Current()
}

// TotalTurns returns the number of Step calls since the last reset
func (e *Engine) TotalTurns() int {
	return e.totalTurns
}

// StepCount returns TotalTurns divided by the agent count
func (e *Engine) StepCount() int {
	return e.stepCount
}

// Observe returns the local view of any agent
func (e *Engine) Observe(agentID string) (Observation, error) {
	return e.world.Observe(agentID)
}

// CanMove reports whether the agent's next attempt in that direction would
// change its position
func (e *Engine) CanMove(agentID string, action Action) bool {
	return e.world.CanMove(agentID, action)
}

// GetPossibleMoves returns the actions that would move the current agent
func (e *Engine) GetPossibleMoves() []Action {
	var possible []Action
	for _, a := range AllActions() {
		if e.CanMove(e.CurrentAgent(), a) {
			possible = append(possible, a)
		}
	}
	return possible
}

// GetAgent returns a copy of one agent
func (e *Engine) GetAgent(agentID string) (Agent, error) {
	a, err := e.world.Agents.Get(agentID)
	if err != nil {
		return Agent{}, err
	}
	return *a, nil
}

// GetAgents returns a copy of every agent in scheduling order
func (e *Engine) GetAgents() []Agent {
	return e.world.Agents.Snapshot()
}

// CellAt returns the state of one board cell
func (e *Engine) CellAt(x, y int) (CellState, error) {
	return e.world.Board.Get(x, y)
}

// GetBoard returns a copy of the board
func (e *Engine) GetBoard() *Board {
	return e.world.Board.Clone()
}

// GetConfig returns a copy of the configuration
func (e *Engine) GetConfig() *SimConfig {
	return e.config.Clone()
}

// GetHistory returns the turns resolved since the last reset
func (e *Engine) GetHistory() []TurnRecord {
	out := make([]TurnRecord, len(e.history))
	copy(out, e.history)
	return out
}

// GetLastTurn returns the last resolved turn, or nil if there is none
func (e *Engine) GetLastTurn() *TurnRecord {
	if len(e.history) == 0 {
		return nil
	}
	last := e.history[len(e.history)-1]
	return &last
}

// GetState returns a snapshot of the episode
func (e *Engine) GetState() *State {
	b := e.world.Board
	return &State{
		ConfigName:    e.config.Name,
		Width:         b.Width(),
		Height:        b.Height(),
		Grid:          b.Codes(),
		Agents:        e.world.Agents.Snapshot(),
		CurrentAgent:  e.scheduler.Current(),
		TotalTurns:    e.totalTurns,
		StepCount:     e.stepCount,
		AliveCount:    e.world.Agents.CountAlive(),
		EpisodeDone:   e.episodeDone,
		FoodRemaining: b.Count(Food),
		Hazards:       b.Count(Hazard),
		Rows:          b.Rows(),
	}
}

// RenderText dumps the board and agent table for debugging.
func (e *Engine) RenderText() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Agent %s's turn\n", e.scheduler.Current())
	fmt.Fprintf(&sb, "Turns: %d  Steps: %d  Alive: %d/%d\n",
		e.totalTurns, e.stepCount, e.world.Agents.CountAlive(), e.world.Agents.Len())

	for _, row := range e.world.Board.Rows() {
		sb.WriteString(row)
		sb.WriteByte('\n')
	}

	for _, a := range e.world.Agents.Snapshot() {
		status := "alive"
		if !a.Alive {
			status = "dead"
		}
		fmt.Fprintf(&sb, "%s: (%d,%d) energy=%d reward=%g %s\n",
			a.ID, a.Position.X, a.Position.Y, a.Energy, a.CumulativeReward, status)
	}
	return sb.String()
}
