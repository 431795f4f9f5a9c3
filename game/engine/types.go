package engine

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// CellState represents the content of a single board cell.
// The numeric values of Boundary through Occupied are the observation codes.
type CellState int

const (
	Boundary CellState = iota // outside the board, only appears in observations
	Empty
	Food
	Hazard
	Occupied
	Colony
)

// Action is one of the four directional moves.
type Action int

const (
	Left Action = iota
	Up
	Right
	Down
)

const (
	// ObservationSize is the length of an observation vector: x, y and the
	// eight compass neighbours.
	ObservationSize = 10

	// NumActions is the size of the discrete action space.
	NumActions = 4

	// Validation constants
	MinBoardSize  = 1
	MaxBoardSize  = 1000
	MinAgents     = 1
	MaxAgents     = 10000
	MaxBulkSteps  = 1000
	DefaultEnergy = 10
)

var (
	ErrOutOfRange      = errors.New("position out of range")
	ErrUnknownAgent    = errors.New("unknown agent")
	ErrNotCurrentAgent = errors.New("agent is not the current agent")
	ErrInvalidAction   = errors.New("invalid action")
	ErrInvalidConfig   = errors.New("invalid configuration")
)

// Code returns the observation encoding of the cell. The colony is reported
// as occupied.
func (c CellState) Code() int {
	if c == Colony {
		return int(Occupied)
	}
	return int(c)
}

func (c CellState) String() string {
	switch c {
	case Boundary:
		return "boundary"
	case Empty:
		return "empty"
	case Food:
		return "food"
	case Hazard:
		return "hazard"
	case Occupied:
		return "occupied"
	case Colony:
		return "colony"
	}
	return fmt.Sprintf("cell(%d)", int(c))
}

// Char returns the single character used by text renderings.
func (c CellState) Char() string {
	switch c {
	case Empty:
		return "."
	case Food:
		return "F"
	case Hazard:
		return "X"
	case Occupied:
		return "A"
	case Colony:
		return "C"
	}
	return "#"
}

func (a Action) String() string {
	switch a {
	case Left:
		return "left"
	case Up:
		return "up"
	case Right:
		return "right"
	case Down:
		return "down"
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// Valid reports whether a is one of the four actions.
func (a Action) Valid() bool {
	return a >= Left && a <= Down
}

// Delta returns the coordinate change of the move. x indexes rows and y
// indexes columns, so Up and Down change x while Left and Right change y.
func (a Action) Delta() (dx, dy int) {
	switch a {
	case Left:
		return 0, -1
	case Right:
		return 0, 1
	case Up:
		return -1, 0
	case Down:
		return 1, 0
	}
	return 0, 0
}

// ParseAction accepts a direction name ("left", "up", "right", "down") or
// its integer encoding ("0".."3").
func ParseAction(s string) (Action, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "left", "l":
		return Left, nil
	case "up", "u":
		return Up, nil
	case "right", "r":
		return Right, nil
	case "down", "d":
		return Down, nil
	}
	if n, err := strconv.Atoi(s); err == nil && Action(n).Valid() {
		return Action(n), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidAction, s)
}

// AllActions returns the actions in encoding order.
func AllActions() []Action {
	return []Action{Left, Up, Right, Down}
}

// Position represents x,y coordinates
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add returns p moved by (dx, dy).
func (p Position) Add(dx, dy int) Position {
	return Position{X: p.X + dx, Y: p.Y + dy}
}

// Observation is the local view of one agent:
// [x, y, N, NE, E, SE, S, SW, W, NW].
type Observation [ObservationSize]int

// Agent is the per-agent mutable state.
type Agent struct {
	ID               string   `json:"id"`
	Position         Position `json:"position"`
	Energy           int      `json:"energy"`
	Alive            bool     `json:"alive"`
	Reward           float64  `json:"reward"`
	CumulativeReward float64  `json:"cumulative_reward"`
}

// StepInfo carries auxiliary data about a resolved step.
type StepInfo struct {
	TotalTurns  int      `json:"total_turns"`
	StepCount   int      `json:"step_count"`
	EpisodeDone bool     `json:"episode_done"`
	AliveCount  int      `json:"alive_count"`
	Energy      int      `json:"energy"`
	From        Position `json:"from"`
	To          Position `json:"to"`
	Moved       bool     `json:"moved"`
	AteFood     bool     `json:"ate_food"`
	HitHazard   bool     `json:"hit_hazard"`
	Died        bool     `json:"died"`
}

// StepResult is returned by Engine.Step.
// Done is the acting agent's own death flag, not the episode flag.
type StepResult struct {
	AgentID     string      `json:"agent_id"`
	Action      Action      `json:"action"`
	Observation Observation `json:"observation"`
	Reward      float64     `json:"reward"`
	Done        bool        `json:"done"`
	Info        StepInfo    `json:"info"`
}

// TurnRecord represents a single resolved turn in the episode history
type TurnRecord struct {
	Turn      int      `json:"turn"`
	AgentID   string   `json:"agent_id"`
	Action    string   `json:"action"`
	From      Position `json:"from"`
	To        Position `json:"to"`
	Energy    int      `json:"energy"`
	Reward    float64  `json:"reward"`
	Moved     bool     `json:"moved"`
	AteFood   bool     `json:"ate_food,omitempty"`
	HitHazard bool     `json:"hit_hazard,omitempty"`
	Died      bool     `json:"died,omitempty"`
}

// State is a read-only snapshot of an episode.
type State struct {
	ConfigName    string   `json:"config_name"`
	Width         int      `json:"width"`
	Height        int      `json:"height"`
	Grid          [][]int  `json:"grid"`
	Agents        []Agent  `json:"agents"`
	CurrentAgent  string   `json:"current_agent"`
	TotalTurns    int      `json:"total_turns"`
	StepCount     int      `json:"step_count"`
	AliveCount    int      `json:"alive_count"`
	EpisodeDone   bool     `json:"episode_done"`
	FoodRemaining int      `json:"food_remaining"`
	Hazards       int      `json:"hazards"`
	Rows          []string `json:"rows,omitempty"`
}
