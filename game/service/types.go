package service

import (
	"time"

	"github.com/wricardo/mcp-training/antcolony/game/engine"
)

// SessionInfo provides information about a simulation session
type SessionInfo struct {
	ID             string            `json:"id"`
	ConfigName     string            `json:"config_name"`
	CreatedAt      time.Time         `json:"created_at"`
	LastAccessedAt time.Time         `json:"last_accessed_at"`
	State          *engine.State     `json:"state"`
	Config         *engine.SimConfig `json:"config"`
}

// StepResponse contains the result of a single turn plus decision aids for
// whoever acts next
type StepResponse struct {
	Step          *engine.StepResult `json:"step"`
	NextAgent     string             `json:"next_agent"`
	EnergyRisk    string             `json:"energy_risk"`
	PossibleMoves []string           `json:"possible_moves"`
	EpisodeDone   bool               `json:"episode_done"`
	Message       string             `json:"message"`
}

// BulkStepResult contains the result of several consecutive turns
type BulkStepResult struct {
	RequestedSteps int    `json:"requested_steps"`
	StepsExecuted  int    `json:"steps_executed"`
	Truncated      bool   `json:"truncated,omitempty"`
	Limit          int    `json:"limit,omitempty"`
	StoppedReason  string `json:"stopped_reason,omitempty"`
	StopReasonCode string `json:"stop_reason_code,omitempty"` // episode_done
	StoppedOnStep  int    `json:"stopped_on_step,omitempty"`  // 1-based index of the step that was not executed

	// Aggregates over the executed turns
	TotalReward float64 `json:"total_reward"`
	FoodEaten   int     `json:"food_eaten"`
	HazardsHit  int     `json:"hazards_hit"`
	Deaths      int     `json:"deaths"`

	Steps       []StepSummary `json:"steps,omitempty"`
	State       *engine.State `json:"state"`
	EpisodeDone bool          `json:"episode_done"`
	NextAgent   string        `json:"next_agent"`
}

// StepSummary is a compact record for each executed turn in a bulk call
type StepSummary struct {
	Idx     int             `json:"idx"`
	AgentID string          `json:"agent_id"`
	Action  string          `json:"action"`
	From    engine.Position `json:"from"`
	To      engine.Position `json:"to"`
	Energy  int             `json:"energy"`
	Reward  float64         `json:"reward"`
	AteFood bool            `json:"ate_food,omitempty"`
	Hazard  bool            `json:"hazard,omitempty"`
	Died    bool            `json:"died,omitempty"`
}

// ObservationInfo is an agent's local view with the neighbour codes labelled
type ObservationInfo struct {
	AgentID     string             `json:"agent_id"`
	Observation engine.Observation `json:"observation"`
	Position    engine.Position    `json:"position"`
	Neighbours  map[string]string  `json:"neighbours"`
	Energy      int                `json:"energy"`
	Alive       bool               `json:"alive"`
	EnergyRisk  string             `json:"energy_risk"`
}

// HistoryOptions configures turn history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated turn history
type HistoryResponse struct {
	Turns       []engine.TurnRecord `json:"turns"`
	TotalTurns  int                 `json:"total_turns"`
	Page        int                 `json:"page"`
	PageSize    int                 `json:"page_size"`
	TotalPages  int                 `json:"total_pages"`
	HasNext     bool                `json:"has_next"`
	HasPrevious bool                `json:"has_previous"`
}

// ConfigInfo provides information about a simulation configuration
type ConfigInfo struct {
	Filename    string `json:"filename"`
	ConfigID    string `json:"config_id"` // The identifier to use for session creation
	Name        string `json:"name"`      // Display name
	Description string `json:"description"`
	BoardWidth  int    `json:"board_width"`
	BoardHeight int    `json:"board_height"`
	AgentCount  int    `json:"agent_count"`
	NumFood     int    `json:"num_food"`
	NumHazards  int    `json:"num_hazards"`
}
