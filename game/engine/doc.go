// Package engine provides the core simulation logic for the ant colony
// foraging simulation.
//
// The engine package implements the simulation mechanics including:
//   - Board generation with food and hazard cells around the colony origin
//   - Per-agent energy, reward and death bookkeeping
//   - Round-robin turn scheduling over a fixed agent set
//   - Movement and action resolution
//   - Local observations and episode termination
//
// Core Types:
//
// Engine is the episode controller. It owns a World (the Board and the agent
// Registry) and a Scheduler, and exposes Reset, Step, Observe, CountAlive,
// CurrentAgent and RenderText. SimConfig holds the tunable parameters and is
// loaded from YAML or JSON files.
//
// Usage:
//
//	cfg := engine.DefaultConfig()
//	cfg.Seed = 42
//
//	eng, err := engine.NewEngine(cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	for eng.CountAlive() > 0 {
//		res, err := eng.Step(engine.Right)
//		if err != nil {
//			log.Fatal(err)
//		}
//		fmt.Println(res.AgentID, res.Reward, res.Done)
//	}
//
// Simulation Rules:
//
// Every attempted move costs one unit of energy and one unit of reward, even
// when the move is rejected. Stepping onto food converts it to an empty cell
// and grants food_value energy and food_value+1 reward. Stepping onto a hazard
// costs one extra unit of reward; hazards persist. An agent dies the first
// time its energy becomes negative. The episode is over when no agent is
// alive.
//
// The Engine is not safe for concurrent use; callers serialise access.
package engine
