package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/mcp-training/antcolony/game/engine"
	"github.com/wricardo/mcp-training/antcolony/game/service"
)

const (
	ServerName    = "Ant Colony Simulation"
	ServerVersion = "1.0.0"
)

var actionEnum = []string{"left", "up", "right", "down"}

// Server exposes a SimService as MCP tools. Calls go straight to the service
// in the same process.
type Server struct {
	svc       service.SimService
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates an MCP server backed by svc. A nil logger falls back to
// slog.Default().
func NewServer(svc service.SimService, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		svc:    svc,
		logger: logger.With("component", "mcp"),
	}

	s.initMCPServer()
	return s
}

// initMCPServer initializes the MCP server with all tools
func (s *Server) initMCPServer() {
	s.mcpServer = server.NewMCPServer(
		ServerName,
		ServerVersion,
		server.WithToolCapabilities(true),
		server.WithInstructions(`Ant Colony Simulation - MCP Interface

A turn-based foraging simulation. Agents (ants) start at the colony in the
top-left corner with a fixed energy budget and take turns in a fixed order.

AVAILABLE TOOLS:
- create_session: Start a new simulation (optional config and seed)
- list_sessions / get_session: Inspect sessions
- sim_state: Board, agents and counters
- step: Resolve one turn for the current agent (optionally checked with agent_id)
- bulk_step: Resolve several turns in a row
- observe: An agent's local 3x3 view
- reset_sim: Start a new episode in the same session
- turn_history: Past turns, paginated
- list_configs: Available configurations
- sim_instructions: Full rules`),
	)

	s.registerTools()
}

func sessionIDProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	// Session management
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new simulation session with optional config selection and seed",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_name": map[string]interface{}{
					"type":        "string",
					"description": "Name of the config to use (optional)",
				},
				"seed": map[string]interface{}{
					"type":        "integer",
					"minimum":     0,
					"description": "Random seed for board generation (optional)",
				},
			},
		},
	}, s.handleCreateSession)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active simulation sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, s.handleListSessions)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, s.handleGetSession)

	// Simulation operations
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "sim_state",
		Description: "Get the board, agents and turn counters",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, s.handleSimState)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "step",
		Description: "Resolve one turn for the current agent",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"action": map[string]interface{}{
					"type":        "string",
					"enum":        actionEnum,
					"description": "Direction to move",
				},
				"agent_id": map[string]interface{}{
					"type":        "string",
					"description": "Expected acting agent; the call fails if it is not this agent's turn (optional)",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of the intent behind this move",
				},
			},
			Required: []string{"session_id", "action"},
		},
	}, s.handleStep)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "bulk_step",
		Description: fmt.Sprintf("Resolve several turns in sequence, one action per turn (max %d). Stops when every agent is dead.", engine.MaxBulkSteps),
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"actions": map[string]interface{}{
					"type": "array",
					"items": map[string]interface{}{
						"type": "string",
						"enum": actionEnum,
					},
					"description": "Actions, applied to whichever agent is current at each turn",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of the intent behind this sequence",
				},
			},
			Required: []string{"session_id", "actions"},
		},
	}, s.handleBulkStep)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "observe",
		Description: "Get an agent's local view: its position and the eight neighbouring cells",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"agent_id": map[string]interface{}{
					"type":        "string",
					"description": "Agent to observe (defaults to the current agent)",
				},
			},
			Required: []string{"session_id"},
		},
	}, s.handleObserve)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_sim",
		Description: "Start a new episode: regenerate the board and return every agent to the colony",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, s.handleReset)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "turn_history",
		Description: "Get the turns resolved in the current episode",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number (default 1)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Turns per page (default 20, max 100)",
				},
				"order": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"asc", "desc"},
					"description": "Oldest or newest first (default desc)",
				},
			},
			Required: []string{"session_id"},
		},
	}, s.handleTurnHistory)

	// Configuration and help
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available simulation configurations",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, s.handleListConfigs)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "sim_instructions",
		Description: "Get the full simulation rules",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, s.handleInstructions)
}

// GetMCPServer returns the underlying MCP server
func (s *Server) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio serves the tools over stdin/stdout until the input closes
func (s *Server) ServeStdio() error {
	s.logger.Info("MCP stdio server ready", "name", ServerName, "version", ServerVersion)
	return server.ServeStdio(s.mcpServer)
}

// arguments returns the call arguments, or an empty map when there are none
func arguments(request mcp.CallToolRequest) map[string]interface{} {
	if args, ok := request.Params.Arguments.(map[string]interface{}); ok && args != nil {
		return args
	}
	return map[string]interface{}{}
}

func (s *Server) toolError(ctx context.Context, tool string, err error) (*mcp.CallToolResult, error) {
	s.logger.DebugContext(ctx, "tool call failed", "tool", tool, "error", err)
	return mcp.NewToolResultError(err.Error()), nil
}

// Tool handlers

func (s *Server) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	configName, _ := args["config_name"].(string)

	var seed *uint64
	if raw, ok := args["seed"].(float64); ok {
		if raw < 0 {
			return s.toolError(ctx, "create_session", fmt.Errorf("seed must be non-negative, got %v", raw))
		}
		v := uint64(raw)
		seed = &v
	}

	info, err := s.svc.CreateSession(ctx, configName, seed)
	if err != nil {
		return s.toolError(ctx, "create_session", err)
	}

	result := fmt.Sprintf("Created session: %s\nConfig: %s\nSeed: %d\n\n%s",
		info.ID, info.ConfigName, info.Config.Seed, formatState(info.State))
	return mcp.NewToolResultText(result), nil
}

func (s *Server) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessions, err := s.svc.ListSessions(ctx)
	if err != nil {
		return s.toolError(ctx, "list_sessions", err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Active Sessions (%d):\n\n", len(sessions))
	for _, info := range sessions {
		fmt.Fprintf(&sb, "- %s (Config: %s, Created: %s, Turns: %d, Alive: %d/%d)\n",
			info.ID, info.ConfigName, info.CreatedAt.Format("15:04:05"),
			info.State.TotalTurns, info.State.AliveCount, len(info.State.Agents))
	}

	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	info, err := s.svc.GetSession(ctx, sessionID)
	if err != nil {
		return s.toolError(ctx, "get_session", err)
	}

	return mcp.NewToolResultText(formatSessionInfo(info)), nil
}

func (s *Server) handleSimState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	state, err := s.svc.GetState(ctx, sessionID)
	if err != nil {
		return s.toolError(ctx, "sim_state", err)
	}

	return mcp.NewToolResultText(formatState(state)), nil
}

func (s *Server) handleStep(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	action, _ := args["action"].(string)
	agentID, _ := args["agent_id"].(string)

	var resp *service.StepResponse
	var err error
	if agentID != "" {
		resp, err = s.svc.StepAs(ctx, sessionID, agentID, action)
	} else {
		resp, err = s.svc.Step(ctx, sessionID, action)
	}
	if err != nil {
		return s.toolError(ctx, "step", err)
	}

	return mcp.NewToolResultText(formatStepResponse(resp)), nil
}

func (s *Server) handleBulkStep(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	actionsRaw, _ := args["actions"].([]interface{})

	actions := make([]string, 0, len(actionsRaw))
	for i, a := range actionsRaw {
		action, ok := a.(string)
		if !ok {
			return s.toolError(ctx, "bulk_step", fmt.Errorf("action %d is not a string", i+1))
		}
		actions = append(actions, action)
	}

	result, err := s.svc.BulkStep(ctx, sessionID, actions)
	if err != nil {
		return s.toolError(ctx, "bulk_step", err)
	}

	return mcp.NewToolResultText(formatBulkStepResult(sessionID, result)), nil
}

func (s *Server) handleObserve(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	agentID, _ := args["agent_id"].(string)

	obs, err := s.svc.Observe(ctx, sessionID, agentID)
	if err != nil {
		return s.toolError(ctx, "observe", err)
	}

	return mcp.NewToolResultText(formatObservation(obs)), nil
}

func (s *Server) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	state, err := s.svc.Reset(ctx, sessionID)
	if err != nil {
		return s.toolError(ctx, "reset_sim", err)
	}

	return mcp.NewToolResultText("Episode reset\n\n" + formatState(state)), nil
}

func (s *Server) handleTurnHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)

	var opts service.HistoryOptions
	if page, ok := args["page"].(float64); ok {
		opts.Page = int(page)
	}
	if limit, ok := args["limit"].(float64); ok {
		opts.Limit = int(limit)
	}
	opts.Order, _ = args["order"].(string)

	history, err := s.svc.GetHistory(ctx, sessionID, opts)
	if err != nil {
		return s.toolError(ctx, "turn_history", err)
	}

	return mcp.NewToolResultText(formatHistory(history)), nil
}

func (s *Server) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	configs, err := s.svc.ListConfigs(ctx)
	if err != nil {
		return s.toolError(ctx, "list_configs", err)
	}

	var sb strings.Builder
	sb.WriteString("Available Configurations:\n\n")
	for _, config := range configs {
		fmt.Fprintf(&sb, "• %s (config_id: %s)\n  %s\n  Board: %dx%d, Agents: %d, Food: %d, Hazards: %d\n\n",
			config.Name, config.ConfigID, config.Description,
			config.BoardWidth, config.BoardHeight, config.AgentCount, config.NumFood, config.NumHazards)
	}

	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) handleInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(instructions), nil
}

const instructions = `Ant Colony Simulation - Rules

BOARD:
A W x H grid. x selects the row (0 at the top), y selects the column (0 at
the left). The colony is at (0,0). Food (F) and hazards (X) are scattered at
random when an episode starts.

TURNS:
Agents act one at a time in a fixed order ("0", "1", ...). Dead agents keep
their slot in the order; their turns change nothing. One step is one full
cycle of turns.

ACTIONS:
left  = y-1    up   = x-1
right = y+1    down = x+1

COSTS AND REWARDS:
• Every action costs 1 energy and 1 reward, even when the move is rejected
• A move is rejected when it leaves the board or the agent's energy is 0 after paying
• Food: +food_value energy and +(food_value + 1) reward; the food is consumed
• Hazard: an extra -1 reward
• Several agents may share a cell

DEATH AND EPISODE END:
An agent dies the first time its energy drops below zero. The episode is
over when no agent is alive.

OBSERVATION:
[x, y, N, NE, E, SE, S, SW, W, NW] where each neighbour code is
0 boundary, 1 empty, 2 food, 3 hazard, 4 occupied (agents and the colony).

BOARD LEGEND:
C colony  A agent  F food  X hazard  . empty`

// Formatting helpers

func formatSessionInfo(info *service.SessionInfo) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Session: %s\n", info.ID)
	fmt.Fprintf(&sb, "Config: %s\n", info.ConfigName)
	fmt.Fprintf(&sb, "Created: %s\n", info.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&sb, "Last Accessed: %s\n", info.LastAccessedAt.Format("2006-01-02 15:04:05"))
	if info.Config != nil {
		fmt.Fprintf(&sb, "Seed: %d  Food value: %d  Starting energy: %d\n",
			info.Config.Seed, info.Config.FoodValue, info.Config.StartingEnergy)
	}
	sb.WriteString("\n")
	sb.WriteString(formatState(info.State))
	return sb.String()
}

func formatState(state *engine.State) string {
	if state == nil {
		return "No state available"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Board %dx%d | Turn %d | Step %d | Alive %d/%d | Food left %d | Hazards %d\n",
		state.Width, state.Height, state.TotalTurns, state.StepCount,
		state.AliveCount, len(state.Agents), state.FoodRemaining, state.Hazards)
	if state.EpisodeDone {
		sb.WriteString("EPISODE OVER: every agent is dead\n")
	} else {
		fmt.Fprintf(&sb, "Current agent: %s\n", state.CurrentAgent)
	}

	sb.WriteString("\n")
	for _, row := range state.Rows {
		sb.WriteString(row)
		sb.WriteString("\n")
	}

	sb.WriteString("\nAgents:\n")
	for _, a := range state.Agents {
		status := "alive"
		if !a.Alive {
			status = "dead"
		}
		fmt.Fprintf(&sb, "  %s: (%d,%d) energy=%d total_reward=%g %s\n",
			a.ID, a.Position.X, a.Position.Y, a.Energy, a.CumulativeReward, status)
	}
	return sb.String()
}

func formatStepResponse(resp *service.StepResponse) string {
	res := resp.Step

	var sb strings.Builder
	sb.WriteString(resp.Message)
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Reward: %g | Energy: %d | Turn: %d | Step: %d | Alive: %d\n",
		res.Reward, res.Info.Energy, res.Info.TotalTurns, res.Info.StepCount, res.Info.AliveCount)
	fmt.Fprintf(&sb, "Observation: %v\n", res.Observation)

	if resp.EpisodeDone {
		sb.WriteString("EPISODE OVER: every agent is dead. Use reset_sim to start again.\n")
		return sb.String()
	}

	fmt.Fprintf(&sb, "Next agent: %s (risk: %s)\n", resp.NextAgent, resp.EnergyRisk)
	if len(resp.PossibleMoves) > 0 {
		fmt.Fprintf(&sb, "Moves that would succeed: %s\n", strings.Join(resp.PossibleMoves, ", "))
	} else {
		sb.WriteString("Moves that would succeed: none\n")
	}
	return sb.String()
}

func formatBulkStepResult(sessionID string, result *service.BulkStepResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Session %s: executed %d of %d turns\n", sessionID, result.StepsExecuted, result.RequestedSteps)
	if result.Truncated {
		fmt.Fprintf(&sb, "Request truncated to %d turns\n", result.Limit)
	}
	if result.StopReasonCode != "" {
		fmt.Fprintf(&sb, "Stopped before turn %d: %s (%s)\n", result.StoppedOnStep, result.StoppedReason, result.StopReasonCode)
	}
	fmt.Fprintf(&sb, "Total reward: %g | Food eaten: %d | Hazards hit: %d | Deaths: %d\n",
		result.TotalReward, result.FoodEaten, result.HazardsHit, result.Deaths)

	if len(result.Steps) > 0 {
		sb.WriteString("\nTurns:\n")
		for _, st := range result.Steps {
			sb.WriteString(formatStepLine(st))
		}
	}

	sb.WriteString("\n")
	sb.WriteString(formatState(result.State))
	return sb.String()
}

func formatStepLine(st service.StepSummary) string {
	var flags []string
	if st.AteFood {
		flags = append(flags, "food")
	}
	if st.Hazard {
		flags = append(flags, "hazard")
	}
	if st.Died {
		flags = append(flags, "died")
	}
	suffix := ""
	if len(flags) > 0 {
		suffix = " [" + strings.Join(flags, ",") + "]"
	}
	return fmt.Sprintf("  %d. agent %s %s (%d,%d)->(%d,%d) energy=%d reward=%g%s\n",
		st.Idx, st.AgentID, st.Action, st.From.X, st.From.Y, st.To.X, st.To.Y, st.Energy, st.Reward, suffix)
}

func formatObservation(obs *service.ObservationInfo) string {
	var sb strings.Builder
	status := "alive"
	if !obs.Alive {
		status = "dead"
	}
	fmt.Fprintf(&sb, "Agent %s at (%d,%d), energy %d, %s (risk: %s)\n",
		obs.AgentID, obs.Position.X, obs.Position.Y, obs.Energy, status, obs.EnergyRisk)
	fmt.Fprintf(&sb, "Observation: %v\n\n", obs.Observation)

	// 3x3 view with the agent in the middle
	grid := [3][3]string{
		{obs.Neighbours["nw"], obs.Neighbours["n"], obs.Neighbours["ne"]},
		{obs.Neighbours["w"], "self", obs.Neighbours["e"]},
		{obs.Neighbours["sw"], obs.Neighbours["s"], obs.Neighbours["se"]},
	}
	for _, row := range grid {
		fmt.Fprintf(&sb, "  %-9s %-9s %-9s\n", row[0], row[1], row[2])
	}
	return sb.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Turn History (page %d/%d, %d total):\n\n", history.Page, history.TotalPages, history.TotalTurns)
	for _, rec := range history.Turns {
		fmt.Fprintf(&sb, "  #%d agent %s %s (%d,%d)->(%d,%d) energy=%d reward=%g\n",
			rec.Turn, rec.AgentID, rec.Action, rec.From.X, rec.From.Y, rec.To.X, rec.To.Y, rec.Energy, rec.Reward)
	}
	if history.HasNext {
		fmt.Fprintf(&sb, "\nMore turns on page %d\n", history.Page+1)
	}
	return sb.String()
}
