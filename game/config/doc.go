// Package config provides configuration management for the ant colony
// simulation.
//
// The config package handles:
//   - Loading simulation configurations from YAML or JSON files
//   - Configuration validation before caching
//   - Default configuration management
//   - Configuration discovery and listing
//
// Configuration Format:
//
// Configurations live in a directory as .yaml, .yml or .json files. Each one
// sets the board dimensions, food and hazard counts, agent count, food value,
// starting energy and an optional seed. Keys missing from a file keep the
// values of engine.DefaultConfig. A config is identified by its file name
// without extension.
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Load specific configuration
//	simConfig, err := manager.LoadConfig("crowded")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Get default configuration
//	defaultConfig := manager.GetDefault()
//
//	// List available configurations
//	configs, err := manager.ListConfigs()
//
// The default configuration is "classic" when present, otherwise the first
// valid file in the directory, otherwise a built-in one.
package config
