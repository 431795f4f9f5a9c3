// Package service provides the business logic layer for the ant colony
// simulation.
//
// The service package implements:
//   - Multi-session simulation management
//   - Configuration lookup with helpful not-found errors
//   - Action parsing and turn resolution
//   - Bulk stepping with early stop at episode end
//   - Paginated turn history
//
// Core Interfaces:
//
// SimService is the main service interface providing high-level operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager manages configuration loading and validation.
//
// Architecture:
//
// The service layer sits between the transports (the MCP tool server and the
// CLI) and the engine. Each session owns its own engine; a service-wide lock
// serialises every call that touches an engine, so an engine is never driven
// by two callers at once.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("configs")
//	simService := service.NewSimService(sessionMgr, configMgr, slog.Default())
//
//	// Create a new session with a fixed seed
//	seed := uint64(42)
//	info, err := simService.CreateSession(ctx, "classic", &seed)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Resolve the current agent's turn
//	resp, err := simService.Step(ctx, info.ID, "right")
package service
