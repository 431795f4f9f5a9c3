package service

import (
	"context"
	"errors"
	"time"

	"github.com/wricardo/mcp-training/antcolony/game/engine"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrConfigNotFound  = errors.New("configuration not found")
)

// SimService defines all simulation operations
type SimService interface {
	// Session Management
	CreateSession(ctx context.Context, configName string, seed *uint64) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Simulation Operations
	Step(ctx context.Context, sessionID, action string) (*StepResponse, error)
	StepAs(ctx context.Context, sessionID, agentID, action string) (*StepResponse, error)
	BulkStep(ctx context.Context, sessionID string, actions []string) (*BulkStepResult, error)
	Reset(ctx context.Context, sessionID string) (*engine.State, error)

	// Simulation State
	GetState(ctx context.Context, sessionID string) (*engine.State, error)
	Observe(ctx context.Context, sessionID, agentID string) (*ObservationInfo, error)
	GetHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*engine.SimConfig, error)
	SaveConfig(ctx context.Context, configName string, config *engine.SimConfig) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, config *engine.SimConfig) (*Session, error)
	Get(id string) (*Session, error)
	GetOrCreate(id string, config *engine.SimConfig) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
}

// ConfigManager handles simulation configuration loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.SimConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.SimConfig
	SaveConfig(name string, config *engine.SimConfig) error
}

// Session represents an active simulation session
type Session struct {
	ID             string
	ConfigID       string
	Engine         *engine.Engine
	Config         *engine.SimConfig
	CreatedAt      time.Time
	LastAccessedAt time.Time
}
