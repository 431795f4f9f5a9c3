package trace

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/wricardo/mcp-training/antcolony/game/engine"
)

// Summary describes a finished or interrupted episode. Reward statistics are
// taken over the final cumulative reward of each agent.
type Summary struct {
	RunID         string  `json:"run_id"`
	Config        string  `json:"config"`
	Turns         int     `json:"turns"`
	Steps         int     `json:"steps"`
	FoodEaten     int     `json:"food_eaten"`
	HazardsHit    int     `json:"hazards_hit"`
	Deaths        int     `json:"deaths"`
	Alive         int     `json:"alive"`
	FoodRemaining int     `json:"food_remaining"`
	EpisodeDone   bool    `json:"episode_done"`
	MeanReward    float64 `json:"mean_reward"`
	StdDevReward  float64 `json:"stddev_reward"`
	MinReward     float64 `json:"min_reward"`
	MaxReward     float64 `json:"max_reward"`
}

// Summarize combines the recorded turns with the final engine state.
func (r *Recorder) Summarize(state *engine.State) Summary {
	s := Summary{
		RunID:         r.runID,
		Config:        r.config,
		Turns:         state.TotalTurns,
		Steps:         state.StepCount,
		Alive:         state.AliveCount,
		FoodRemaining: state.FoodRemaining,
		EpisodeDone:   state.EpisodeDone,
	}

	for _, row := range r.rows {
		if row.AteFood {
			s.FoodEaten++
		}
		if row.HitHazard {
			s.HazardsHit++
		}
		if row.Died {
			s.Deaths++
		}
	}

	rewards := make([]float64, len(state.Agents))
	for i, a := range state.Agents {
		rewards[i] = a.CumulativeReward
	}
	if len(rewards) == 0 {
		return s
	}

	s.MeanReward = stat.Mean(rewards, nil)
	s.MinReward = floats.Min(rewards)
	s.MaxReward = floats.Max(rewards)
	// sample standard deviation is undefined for a single agent
	if len(rewards) > 1 {
		s.StdDevReward = stat.StdDev(rewards, nil)
	}
	return s
}
