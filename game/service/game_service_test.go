package service_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/wricardo/mcp-training/antcolony/game/engine"
	"github.com/wricardo/mcp-training/antcolony/game/service"
)

// MockSessionManager implements service.SessionManager for testing
type MockSessionManager struct {
	sessions map[string]*service.Session
}

func NewMockSessionManager() *MockSessionManager {
	return &MockSessionManager{
		sessions: make(map[string]*service.Session),
	}
}

func (m *MockSessionManager) Create(id string, config *engine.SimConfig) (*service.Session, error) {
	// Generate ID if empty (mimics real session manager behavior)
	if id == "" {
		id = fmt.Sprintf("test_%d", len(m.sessions)+1)
	}

	if _, exists := m.sessions[id]; exists {
		return nil, errors.New("session already exists")
	}

	eng, err := engine.NewEngine(config)
	if err != nil {
		return nil, err
	}

	session := &service.Session{
		ID:             id,
		Engine:         eng,
		Config:         config,
		CreatedAt:      time.Now(),
		LastAccessedAt: time.Now(),
	}

	m.sessions[id] = session
	return session, nil
}

func (m *MockSessionManager) Get(id string) (*service.Session, error) {
	session, exists := m.sessions[id]
	if !exists {
		return nil, service.ErrSessionNotFound
	}
	return session, nil
}

func (m *MockSessionManager) GetOrCreate(id string, config *engine.SimConfig) (*service.Session, error) {
	if session, exists := m.sessions[id]; exists {
		return session, nil
	}
	return m.Create(id, config)
}

func (m *MockSessionManager) List() []*service.Session {
	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}
	return result
}

func (m *MockSessionManager) Delete(id string) error {
	if _, exists := m.sessions[id]; !exists {
		return service.ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *MockSessionManager) UpdateLastAccessed(id string) error {
	if session, exists := m.sessions[id]; exists {
		session.LastAccessedAt = time.Now()
		return nil
	}
	return service.ErrSessionNotFound
}

// MockConfigManager implements service.ConfigManager for testing
type MockConfigManager struct {
	configs map[string]*engine.SimConfig
	saved   map[string]*engine.SimConfig
}

func NewMockConfigManager() *MockConfigManager {
	tiny := &engine.SimConfig{
		Name:           "tiny",
		Description:    "One agent on an empty 3x3 board",
		AgentCount:     1,
		BoardWidth:     3,
		BoardHeight:    3,
		FoodValue:      5,
		StartingEnergy: 10,
	}
	duo := &engine.SimConfig{
		Name:           "duo",
		Description:    "Two agents with one energy",
		AgentCount:     2,
		BoardWidth:     3,
		BoardHeight:    3,
		FoodValue:      5,
		StartingEnergy: 1,
	}
	return &MockConfigManager{
		configs: map[string]*engine.SimConfig{
			"classic": engine.DefaultConfig(),
			"tiny":    tiny,
			"duo":     duo,
		},
		saved: make(map[string]*engine.SimConfig),
	}
}

func (m *MockConfigManager) LoadConfig(name string) (*engine.SimConfig, error) {
	config, exists := m.configs[name]
	if !exists {
		return nil, service.ErrConfigNotFound
	}
	return config.Clone(), nil
}

func (m *MockConfigManager) ListConfigs() ([]*service.ConfigInfo, error) {
	var configs []*service.ConfigInfo
	for _, id := range []string{"classic", "duo", "tiny"} {
		c := m.configs[id]
		configs = append(configs, &service.ConfigInfo{
			Filename:   id + ".yaml",
			ConfigID:   id,
			Name:       c.Name,
			AgentCount: c.AgentCount,
		})
	}
	return configs, nil
}

func (m *MockConfigManager) GetDefault() *engine.SimConfig {
	return m.configs["classic"].Clone()
}

func (m *MockConfigManager) SaveConfig(name string, config *engine.SimConfig) error {
	if err := engine.ValidateConfig(config); err != nil {
		return err
	}
	m.saved[name] = config
	return nil
}

func newTestService() (service.SimService, *MockSessionManager, *MockConfigManager) {
	sessions := NewMockSessionManager()
	configs := NewMockConfigManager()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return service.NewSimService(sessions, configs, logger), sessions, configs
}

func createSession(t *testing.T, svc service.SimService, configName string) *service.SessionInfo {
	t.Helper()
	info, err := svc.CreateSession(context.Background(), configName, nil)
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	return info
}

func TestSimService_CreateSession(t *testing.T) {
	tests := []struct {
		name       string
		configName string
		wantConfig string
		wantAgents int
		wantErr    bool
	}{
		{"default config", "", "classic", 10, false},
		{"named config", "tiny", "tiny", 1, false},
		{"unknown config", "nope", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTestService()
			info, err := svc.CreateSession(context.Background(), tt.configName, nil)

			if tt.wantErr {
				if !errors.Is(err, service.ErrConfigNotFound) {
					t.Fatalf("Expected ErrConfigNotFound, got %v", err)
				}
				if !strings.Contains(err.Error(), "[classic duo tiny]") {
					t.Errorf("Expected error to list available configs, got %q", err.Error())
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}

			if info.ID == "" {
				t.Error("Expected a session ID")
			}
			if info.ConfigName != tt.wantConfig {
				t.Errorf("Expected config '%s', got '%s'", tt.wantConfig, info.ConfigName)
			}
			if len(info.State.Agents) != tt.wantAgents {
				t.Errorf("Expected %d agents, got %d", tt.wantAgents, len(info.State.Agents))
			}
			if info.State.TotalTurns != 0 || info.State.CurrentAgent != "0" {
				t.Errorf("Expected a fresh episode, got %+v", info.State)
			}
		})
	}
}

func TestSimService_CreateSessionWithSeed(t *testing.T) {
	svc, _, configs := newTestService()
	ctx := context.Background()
	seed := uint64(77)

	a, err := svc.CreateSession(ctx, "classic", &seed)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	b, err := svc.CreateSession(ctx, "classic", &seed)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	if a.Config.Seed != 77 {
		t.Errorf("Expected seed 77, got %d", a.Config.Seed)
	}
	for i := range a.State.Rows {
		if a.State.Rows[i] != b.State.Rows[i] {
			t.Errorf("Same seed should give the same board, row %d differs", i)
		}
	}
	if configs.configs["classic"].Seed != 0 {
		t.Error("Seed override should not modify the stored config")
	}
}

func TestSimService_Step(t *testing.T) {
	tests := []struct {
		name       string
		action     string
		wantErr    error
		wantPos    engine.Position
		wantEnergy int
		wantMoved  bool
	}{
		{"move right", "right", nil, engine.Position{X: 0, Y: 1}, 9, true},
		{"move down by number", "3", nil, engine.Position{X: 1, Y: 0}, 9, true},
		{"blocked left", "left", nil, engine.Position{X: 0, Y: 0}, 9, false},
		{"invalid action", "jump", engine.ErrInvalidAction, engine.Position{}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTestService()
			info := createSession(t, svc, "tiny")

			resp, err := svc.Step(context.Background(), info.ID, tt.action)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Step failed: %v", err)
			}

			if resp.Step.Info.To != tt.wantPos {
				t.Errorf("Expected position %+v, got %+v", tt.wantPos, resp.Step.Info.To)
			}
			if resp.Step.Info.Energy != tt.wantEnergy {
				t.Errorf("Expected energy %d, got %d", tt.wantEnergy, resp.Step.Info.Energy)
			}
			if resp.Step.Info.Moved != tt.wantMoved {
				t.Errorf("Expected moved=%v, got %v", tt.wantMoved, resp.Step.Info.Moved)
			}
			if resp.Step.Reward != -1 {
				t.Errorf("Expected reward -1, got %v", resp.Step.Reward)
			}
			if resp.NextAgent != "0" {
				t.Errorf("Expected agent 0 to act next, got %s", resp.NextAgent)
			}
			if resp.Message == "" {
				t.Error("Expected a message")
			}
		})
	}
}

func TestSimService_StepUnknownSession(t *testing.T) {
	svc, _, _ := newTestService()

	if _, err := svc.Step(context.Background(), "zzzz", "up"); !errors.Is(err, service.ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestSimService_StepAs(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	info := createSession(t, svc, "duo")

	if _, err := svc.StepAs(ctx, info.ID, "1", "right"); !errors.Is(err, engine.ErrNotCurrentAgent) {
		t.Errorf("Expected ErrNotCurrentAgent, got %v", err)
	}
	if _, err := svc.StepAs(ctx, info.ID, "9", "right"); !errors.Is(err, engine.ErrUnknownAgent) {
		t.Errorf("Expected ErrUnknownAgent, got %v", err)
	}
	if _, err := svc.StepAs(ctx, info.ID, "", "right"); !errors.Is(err, engine.ErrUnknownAgent) {
		t.Errorf("Expected ErrUnknownAgent for empty id, got %v", err)
	}

	resp, err := svc.StepAs(ctx, info.ID, "0", "right")
	if err != nil {
		t.Fatalf("StepAs failed: %v", err)
	}
	if resp.Step.AgentID != "0" || resp.NextAgent != "1" {
		t.Errorf("Expected agent 0 to act and 1 to follow, got %s then %s", resp.Step.AgentID, resp.NextAgent)
	}
}

func TestSimService_BulkStep(t *testing.T) {
	tests := []struct {
		name         string
		config       string
		actions      []string
		wantExecuted int
		wantStopCode string
		wantDone     bool
		wantDeaths   int
	}{
		{"all executed", "tiny", []string{"right", "right", "down"}, 3, "", false, 0},
		{"stops when everyone is dead", "duo", []string{"l", "l", "l", "l", "l", "l"}, 4, "episode_done", true, 2},
		{"empty", "tiny", []string{}, 0, "", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTestService()
			info := createSession(t, svc, tt.config)

			result, err := svc.BulkStep(context.Background(), info.ID, tt.actions)
			if err != nil {
				t.Fatalf("BulkStep failed: %v", err)
			}

			if result.RequestedSteps != len(tt.actions) {
				t.Errorf("Expected %d requested, got %d", len(tt.actions), result.RequestedSteps)
			}
			if result.StepsExecuted != tt.wantExecuted {
				t.Errorf("Expected %d executed, got %d", tt.wantExecuted, result.StepsExecuted)
			}
			if len(result.Steps) != tt.wantExecuted {
				t.Errorf("Expected %d step summaries, got %d", tt.wantExecuted, len(result.Steps))
			}
			if result.StopReasonCode != tt.wantStopCode {
				t.Errorf("Expected stop code '%s', got '%s'", tt.wantStopCode, result.StopReasonCode)
			}
			if result.EpisodeDone != tt.wantDone {
				t.Errorf("Expected episode done=%v, got %v", tt.wantDone, result.EpisodeDone)
			}
			if result.Deaths != tt.wantDeaths {
				t.Errorf("Expected %d deaths, got %d", tt.wantDeaths, result.Deaths)
			}
			if result.State.TotalTurns != tt.wantExecuted {
				t.Errorf("Expected %d total turns, got %d", tt.wantExecuted, result.State.TotalTurns)
			}
		})
	}
}

func TestSimService_BulkStepRejectsBadAction(t *testing.T) {
	svc, _, _ := newTestService()
	info := createSession(t, svc, "tiny")

	_, err := svc.BulkStep(context.Background(), info.ID, []string{"right", "sideways", "down"})
	if !errors.Is(err, engine.ErrInvalidAction) {
		t.Fatalf("Expected ErrInvalidAction, got %v", err)
	}

	state, _ := svc.GetState(context.Background(), info.ID)
	if state.TotalTurns != 0 {
		t.Errorf("No action should be applied when one is invalid, got %d turns", state.TotalTurns)
	}
}

func TestSimService_BulkStepTruncates(t *testing.T) {
	svc, _, _ := newTestService()
	info := createSession(t, svc, "classic")

	actions := make([]string, engine.MaxBulkSteps+5)
	for i := range actions {
		actions[i] = "up"
	}

	result, err := svc.BulkStep(context.Background(), info.ID, actions)
	if err != nil {
		t.Fatalf("BulkStep failed: %v", err)
	}
	if !result.Truncated || result.Limit != engine.MaxBulkSteps {
		t.Errorf("Expected truncation at %d, got truncated=%v limit=%d", engine.MaxBulkSteps, result.Truncated, result.Limit)
	}
	if result.StepsExecuted > engine.MaxBulkSteps {
		t.Errorf("Executed %d steps, more than the limit", result.StepsExecuted)
	}
}

func TestSimService_Observe(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	info := createSession(t, svc, "tiny")

	obs, err := svc.Observe(ctx, info.ID, "")
	if err != nil {
		t.Fatalf("Observe failed: %v", err)
	}
	if obs.AgentID != "0" {
		t.Errorf("Expected current agent 0, got %s", obs.AgentID)
	}
	if obs.Neighbours["n"] != "boundary" || obs.Neighbours["e"] != "empty" {
		t.Errorf("Unexpected neighbours: %v", obs.Neighbours)
	}
	if obs.Energy != 10 || !obs.Alive {
		t.Errorf("Unexpected agent state: energy %d alive %v", obs.Energy, obs.Alive)
	}
	if obs.EnergyRisk != "WARNING" {
		t.Errorf("Expected WARNING risk on a board without food, got %s", obs.EnergyRisk)
	}

	if _, err := svc.Observe(ctx, info.ID, "5"); !errors.Is(err, engine.ErrUnknownAgent) {
		t.Errorf("Expected ErrUnknownAgent, got %v", err)
	}
}

func TestSimService_GetHistory(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	info := createSession(t, svc, "classic")

	actions := make([]string, 25)
	for i := range actions {
		actions[i] = []string{"right", "down"}[i%2]
	}
	if _, err := svc.BulkStep(ctx, info.ID, actions); err != nil {
		t.Fatalf("BulkStep failed: %v", err)
	}

	tests := []struct {
		name      string
		opts      service.HistoryOptions
		wantLen   int
		wantFirst int
		wantPages int
		wantNext  bool
		wantPrev  bool
	}{
		{"defaults are desc page 1", service.HistoryOptions{}, 20, 25, 2, true, false},
		{"asc page 2", service.HistoryOptions{Page: 2, Limit: 10, Order: "asc"}, 10, 11, 3, true, true},
		{"desc last page", service.HistoryOptions{Page: 3, Limit: 10, Order: "desc"}, 5, 5, 3, false, true},
		{"past the end", service.HistoryOptions{Page: 9, Limit: 10, Order: "asc"}, 0, 0, 3, false, true},
		{"limit capped", service.HistoryOptions{Limit: 500, Order: "asc"}, 25, 1, 1, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.GetHistory(ctx, info.ID, tt.opts)
			if err != nil {
				t.Fatalf("GetHistory failed: %v", err)
			}
			if resp.TotalTurns != 25 {
				t.Errorf("Expected 25 total turns, got %d", resp.TotalTurns)
			}
			if len(resp.Turns) != tt.wantLen {
				t.Fatalf("Expected %d turns, got %d", tt.wantLen, len(resp.Turns))
			}
			if tt.wantLen > 0 && resp.Turns[0].Turn != tt.wantFirst {
				t.Errorf("Expected first turn %d, got %d", tt.wantFirst, resp.Turns[0].Turn)
			}
			if resp.TotalPages != tt.wantPages {
				t.Errorf("Expected %d pages, got %d", tt.wantPages, resp.TotalPages)
			}
			if resp.HasNext != tt.wantNext || resp.HasPrevious != tt.wantPrev {
				t.Errorf("Expected next=%v prev=%v, got next=%v prev=%v", tt.wantNext, tt.wantPrev, resp.HasNext, resp.HasPrevious)
			}
		})
	}
}

func TestSimService_ListAndDeleteSessions(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	createSession(t, svc, "tiny")
	second := createSession(t, svc, "duo")

	sessions, err := svc.ListSessions(ctx)
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("Expected 2 sessions, got %d", len(sessions))
	}

	if err := svc.DeleteSession(ctx, second.ID); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	if _, err := svc.GetSession(ctx, second.ID); !errors.Is(err, service.ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound after delete, got %v", err)
	}
	if err := svc.DeleteSession(ctx, second.ID); !errors.Is(err, service.ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound on second delete, got %v", err)
	}

	sessions, _ = svc.ListSessions(ctx)
	if len(sessions) != 1 {
		t.Errorf("Expected 1 session, got %d", len(sessions))
	}
}

func TestSimService_Reset(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	info := createSession(t, svc, "tiny")

	svc.BulkStep(ctx, info.ID, []string{"right", "down", "down"})

	state, err := svc.Reset(ctx, info.ID)
	if err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if state.TotalTurns != 0 || state.StepCount != 0 {
		t.Errorf("Expected counters reset, got %d turns %d steps", state.TotalTurns, state.StepCount)
	}
	if state.Agents[0].Position != engine.ColonyPos || state.Agents[0].Energy != 10 {
		t.Errorf("Expected agent back at colony with full energy, got %+v", state.Agents[0])
	}

	history, _ := svc.GetHistory(ctx, info.ID, service.HistoryOptions{})
	if history.TotalTurns != 0 {
		t.Errorf("Expected history cleared, got %d", history.TotalTurns)
	}

	if _, err := svc.Reset(ctx, "nope"); !errors.Is(err, service.ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestSimService_Configs(t *testing.T) {
	svc, _, configs := newTestService()
	ctx := context.Background()

	list, err := svc.ListConfigs(ctx)
	if err != nil {
		t.Fatalf("ListConfigs failed: %v", err)
	}
	if len(list) != 3 {
		t.Errorf("Expected 3 configs, got %d", len(list))
	}

	cfg, err := svc.LoadConfig(ctx, "tiny")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	cfg.Name = "tiny-copy"
	if err := svc.SaveConfig(ctx, "tiny-copy", cfg); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}
	if configs.saved["tiny-copy"] == nil {
		t.Error("Expected config to reach the config manager")
	}

	cfg.BoardWidth = 0
	if err := svc.SaveConfig(ctx, "broken", cfg); !errors.Is(err, engine.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}
