// Package mcp exposes the ant colony simulation as Model Context Protocol
// tools.
//
// The server wraps a service.SimService in the same process and serves it
// over stdio. Every tool except create_session, list_sessions, list_configs
// and sim_instructions takes a session_id.
//
// MCP Tools:
//   - create_session: Create a session with optional config_name and seed
//   - list_sessions: List active sessions
//   - get_session: Session details with the current board
//   - sim_state: Board, agents and turn counters
//   - step: Resolve one turn; agent_id makes the call fail unless it is that agent's turn
//   - bulk_step: Resolve several turns in sequence
//   - observe: An agent's 3x3 local view
//   - reset_sim: Start a new episode
//   - turn_history: Paginated turn history
//   - list_configs: Available configurations
//   - sim_instructions: Simulation rules
//
// Service errors are returned as tool results with IsError set, so a client
// sees the message rather than a protocol failure.
//
// Usage:
//
//	srv := mcp.NewServer(simService, logger)
//	if err := srv.ServeStdio(); err != nil {
//		log.Fatal(err)
//	}
package mcp
