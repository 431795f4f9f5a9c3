package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/wricardo/mcp-training/antcolony/game/engine"
)

// neighbourLabels names observation slots 2..9.
var neighbourLabels = [8]string{"n", "ne", "e", "se", "s", "sw", "w", "nw"}

// simServiceImpl implements the SimService interface
type simServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	logger   *slog.Logger
	mu       sync.RWMutex
}

// NewSimService creates a new simulation service instance. A nil logger
// falls back to slog.Default().
func NewSimService(sessions SessionManager, configs ConfigManager, logger *slog.Logger) SimService {
	if logger == nil {
		logger = slog.Default()
	}
	return &simServiceImpl{
		sessions: sessions,
		configs:  configs,
		logger:   logger.With("component", "sim_service"),
	}
}

// CreateSession creates a new simulation session. An empty configName selects
// the default config; a non-nil seed overrides the config's seed.
func (s *simServiceImpl) CreateSession(ctx context.Context, configName string, seed *uint64) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var config *engine.SimConfig
	var err error
	if configName != "" {
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			if errors.Is(err, ErrConfigNotFound) {
				availableConfigs, listErr := s.configs.ListConfigs()
				if listErr == nil && len(availableConfigs) > 0 {
					var configIDs []string
					for _, cfg := range availableConfigs {
						configIDs = append(configIDs, cfg.ConfigID)
					}
					return nil, fmt.Errorf("%w: '%s'. Available configs: %v", ErrConfigNotFound, configName, configIDs)
				}
				return nil, fmt.Errorf("%w: '%s'. Use list_configs to see available configurations", ErrConfigNotFound, configName)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		config = s.configs.GetDefault()
	}

	if seed != nil {
		config = config.Clone()
		config.Seed = *seed
	}

	// Let session manager generate a proper 4-character ID
	session, err := s.sessions.Create("", config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	session.ConfigID = configName
	if session.ConfigID == "" {
		session.ConfigID = s.getConfigID(config.Name)
	}

	s.logger.InfoContext(ctx, "session created",
		"session_id", session.ID,
		"config", session.ConfigID,
		"agents", config.AgentCount,
		"seed", config.Seed,
	)

	return s.sessionInfo(session), nil
}

// getConfigID returns the config_id for a given config name, used for consistent API responses
func (s *simServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	if configName == "" {
		return "default"
	}
	return configName
}

func (s *simServiceImpl) sessionInfo(sess *Session) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     sess.ConfigID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		State:          sess.Engine.GetState(),
		Config:         sess.Engine.GetConfig(),
	}
}

// getSession looks a session up and marks it accessed
func (s *simServiceImpl) getSession(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session '%s': %w", sessionID, err)
	}
	s.sessions.UpdateLastAccessed(sessionID)
	return sess, nil
}

// GetSession retrieves session information
func (s *simServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	return s.sessionInfo(sess), nil
}

// ListSessions returns all active sessions
func (s *simServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *simServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return fmt.Errorf("session '%s': %w", sessionID, err)
	}
	s.logger.InfoContext(ctx, "session deleted", "session_id", sessionID)
	return nil
}

// Step resolves one turn for whichever agent is current
func (s *simServiceImpl) Step(ctx context.Context, sessionID, action string) (*StepResponse, error) {
	return s.step(ctx, sessionID, "", action)
}

// StepAs resolves one turn on behalf of agentID, which must be the current agent
func (s *simServiceImpl) StepAs(ctx context.Context, sessionID, agentID, action string) (*StepResponse, error) {
	if agentID == "" {
		return nil, fmt.Errorf("%w: agent id is required", engine.ErrUnknownAgent)
	}
	return s.step(ctx, sessionID, agentID, action)
}

func (s *simServiceImpl) step(ctx context.Context, sessionID, agentID, action string) (*StepResponse, error) {
	act, err := engine.ParseAction(action)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	eng := sess.Engine
	wasDone := eng.IsDone()
	if agentID == "" {
		agentID = eng.CurrentAgent()
	}

	res, err := eng.StepAs(agentID, act)
	if err != nil {
		return nil, err
	}

	s.logger.DebugContext(ctx, "turn resolved",
		"session_id", sess.ID,
		"turn", res.Info.TotalTurns,
		"agent", res.AgentID,
		"action", res.Action.String(),
		"reward", res.Reward,
		"energy", res.Info.Energy,
	)
	s.logEpisodeEnd(ctx, sess, wasDone)

	return &StepResponse{
		Step:          res,
		NextAgent:     eng.CurrentAgent(),
		EnergyRisk:    s.nextAgentRisk(eng),
		PossibleMoves: actionNames(eng.GetPossibleMoves()),
		EpisodeDone:   eng.IsDone(),
		Message:       describeStep(res),
	}, nil
}

// BulkStep resolves a sequence of turns, each for the agent current at that
// point. It stops early once the episode is over and never runs more than
// engine.MaxBulkSteps turns. Every action is parsed before any is applied.
func (s *simServiceImpl) BulkStep(ctx context.Context, sessionID string, actions []string) (*BulkStepResult, error) {
	parsed := make([]engine.Action, len(actions))
	for i, a := range actions {
		act, err := engine.ParseAction(a)
		if err != nil {
			return nil, fmt.Errorf("action %d: %w", i+1, err)
		}
		parsed[i] = act
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	eng := sess.Engine
	wasDone := eng.IsDone()

	result := &BulkStepResult{
		RequestedSteps: len(actions),
		Steps:          make([]StepSummary, 0, len(parsed)),
	}

	// Limit steps to prevent abuse
	if len(parsed) > engine.MaxBulkSteps {
		result.Truncated = true
		result.Limit = engine.MaxBulkSteps
		parsed = parsed[:engine.MaxBulkSteps]
	}

	for i, act := range parsed {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if eng.IsDone() {
			result.StoppedReason = "every agent is dead"
			result.StopReasonCode = "episode_done"
			result.StoppedOnStep = i + 1
			break
		}

		res, err := eng.Step(act)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}

		result.StepsExecuted++
		result.TotalReward += res.Reward
		if res.Info.AteFood {
			result.FoodEaten++
		}
		if res.Info.HitHazard {
			result.HazardsHit++
		}
		if res.Info.Died {
			result.Deaths++
		}
		result.Steps = append(result.Steps, StepSummary{
			Idx:     i + 1,
			AgentID: res.AgentID,
			Action:  res.Action.String(),
			From:    res.Info.From,
			To:      res.Info.To,
			Energy:  res.Info.Energy,
			Reward:  res.Reward,
			AteFood: res.Info.AteFood,
			Hazard:  res.Info.HitHazard,
			Died:    res.Info.Died,
		})
	}

	result.State = eng.GetState()
	result.EpisodeDone = eng.IsDone()
	result.NextAgent = eng.CurrentAgent()

	s.logger.DebugContext(ctx, "bulk step resolved",
		"session_id", sess.ID,
		"requested", result.RequestedSteps,
		"executed", result.StepsExecuted,
		"total_reward", result.TotalReward,
	)
	s.logEpisodeEnd(ctx, sess, wasDone)

	return result, nil
}

// Reset starts a new episode in the session
func (s *simServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	if err := sess.Engine.Reset(); err != nil {
		return nil, fmt.Errorf("failed to reset session %s: %w", sess.ID, err)
	}
	s.logger.InfoContext(ctx, "episode reset", "session_id", sess.ID)

	return sess.Engine.GetState(), nil
}

// GetState retrieves the current episode snapshot
func (s *simServiceImpl) GetState(ctx context.Context, sessionID string) (*engine.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Engine.GetState(), nil
}

// Observe returns an agent's local view. An empty agentID observes the
// current agent.
func (s *simServiceImpl) Observe(ctx context.Context, sessionID, agentID string) (*ObservationInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	eng := sess.Engine
	if agentID == "" {
		agentID = eng.CurrentAgent()
	}

	obs, err := eng.Observe(agentID)
	if err != nil {
		return nil, err
	}
	agent, err := eng.GetAgent(agentID)
	if err != nil {
		return nil, err
	}

	neighbours := make(map[string]string, len(neighbourLabels))
	for i, label := range neighbourLabels {
		neighbours[label] = codeName(obs[i+2])
	}

	return &ObservationInfo{
		AgentID:     agentID,
		Observation: obs,
		Position:    agent.Position,
		Neighbours:  neighbours,
		Energy:      agent.Energy,
		Alive:       agent.Alive,
		EnergyRisk:  riskCode(engine.AnalyzeEnergyRisk(eng.GetBoard(), agent)),
	}, nil
}

// GetHistory returns paginated turn history
func (s *simServiceImpl) GetHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	history := sess.Engine.GetHistory()
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	turns := []engine.TurnRecord{}
	if start < total {
		if opts.Order == "desc" {
			// Most recent first
			for i := total - 1 - start; i >= total-end; i-- {
				turns = append(turns, history[i])
			}
		} else {
			turns = append(turns, history[start:end]...)
		}
	}

	return &HistoryResponse{
		Turns:       turns,
		TotalTurns:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// ListConfigs returns available simulation configurations
func (s *simServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific simulation configuration
func (s *simServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.SimConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a simulation configuration to disk
func (s *simServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.SimConfig) error {
	if err := s.configs.SaveConfig(configName, config); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "config saved", "config", configName)
	return nil
}

func (s *simServiceImpl) logEpisodeEnd(ctx context.Context, sess *Session, wasDone bool) {
	eng := sess.Engine
	if wasDone || !eng.IsDone() {
		return
	}
	s.logger.InfoContext(ctx, "episode finished",
		"session_id", sess.ID,
		"total_turns", eng.TotalTurns(),
		"step_count", eng.StepCount(),
		"food_remaining", eng.GetState().FoodRemaining,
	)
}

func (s *simServiceImpl) nextAgentRisk(eng *engine.Engine) string {
	agent, err := eng.GetAgent(eng.CurrentAgent())
	if err != nil {
		return "UNKNOWN"
	}
	return riskCode(engine.AnalyzeEnergyRisk(eng.GetBoard(), agent))
}

func describeStep(res *engine.StepResult) string {
	switch {
	case res.Info.Died:
		return fmt.Sprintf("Agent %s ran out of energy and died", res.AgentID)
	case res.Done:
		return fmt.Sprintf("Agent %s is dead; turn skipped", res.AgentID)
	case res.Info.AteFood:
		return fmt.Sprintf("Agent %s moved %s and ate food at (%d,%d)", res.AgentID, res.Action, res.Info.To.X, res.Info.To.Y)
	case res.Info.HitHazard:
		return fmt.Sprintf("Agent %s moved %s onto a hazard at (%d,%d)", res.AgentID, res.Action, res.Info.To.X, res.Info.To.Y)
	case res.Info.Moved:
		return fmt.Sprintf("Agent %s moved %s to (%d,%d)", res.AgentID, res.Action, res.Info.To.X, res.Info.To.Y)
	}
	return fmt.Sprintf("Agent %s could not move %s", res.AgentID, res.Action)
}

func actionNames(actions []engine.Action) []string {
	names := make([]string, len(actions))
	for i, a := range actions {
		names[i] = a.String()
	}
	return names
}

func codeName(code int) string {
	return engine.CellState(code).String()
}

func riskCode(text string) string {
	for _, code := range []string{"DEAD", "CRITICAL", "DANGER", "CAUTION", "WARNING", "LOW", "SAFE"} {
		if len(text) >= len(code) && text[:len(code)] == code {
			return code
		}
	}
	return "UNKNOWN"
}
