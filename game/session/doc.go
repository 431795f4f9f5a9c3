// Package session provides session management for the ant colony
// simulation.
//
// The session package implements:
//   - Thread-safe in-memory session storage and retrieval
//   - Unique session ID generation
//   - Session lifecycle management
//   - Session cleanup and expiration
//
// Core Types:
//
// Manager is the session manager that handles all session operations. Each
// service.Session owns its own engine instance together with the config it
// was built from and its creation and last access times.
//
// Session Identifiers:
//
// Sessions use 4-character hex IDs drawn from crypto/rand. Lookups are
// case-insensitive. A generated ID that collides with a live session is
// redrawn.
//
// Usage:
//
//	manager := session.NewManager()
//
//	// Create a new session
//	sess, err := manager.Create("", config)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Retrieve existing session
//	sess, err = manager.Get(sessionID)
//
//	// Drop sessions idle for more than an hour
//	removed := manager.CleanupExpiredSessions(time.Hour)
//
// Sessions are not persisted; they end with the process.
package session
