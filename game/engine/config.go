package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// SimConfig represents the simulation parameters loaded from YAML or JSON
type SimConfig struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	NumFood          int `json:"num_food" yaml:"num_food"`
	NumHazards       int `json:"num_hazards" yaml:"num_hazards"`
	HazardPunishment int `json:"hazard_punishment" yaml:"hazard_punishment"`
	AgentCount       int `json:"agent_count" yaml:"agent_count"`
	BoardWidth       int `json:"board_width" yaml:"board_width"`
	BoardHeight      int `json:"board_height" yaml:"board_height"`
	FoodValue        int `json:"food_value" yaml:"food_value"`
	StartingEnergy   int `json:"starting_energy" yaml:"starting_energy"`

	// PreserveTerrain keeps food, hazard and colony cells underneath agents
	// instead of overwriting them.
	PreserveTerrain bool `json:"preserve_terrain,omitempty" yaml:"preserve_terrain,omitempty"`

	Seed uint64 `json:"seed" yaml:"seed"`
}

// DefaultConfig returns the stock parameters: a 10x10 board with 25 food,
// 5 hazards and 10 agents.
func DefaultConfig() *SimConfig {
	return &SimConfig{
		Name:             "classic",
		Description:      "Ten agents foraging on a 10x10 board",
		NumFood:          25,
		NumHazards:       5,
		HazardPunishment: 1,
		AgentCount:       10,
		BoardWidth:       10,
		BoardHeight:      10,
		FoodValue:        5,
		StartingEnergy:   DefaultEnergy,
	}
}

// Clone returns a copy of the config.
func (c *SimConfig) Clone() *SimConfig {
	cp := *c
	return &cp
}

// PlaceableCells is the number of cells that can hold food or hazards.
func (c *SimConfig) PlaceableCells() int {
	return c.BoardWidth*c.BoardHeight - 1
}

// ValidateConfig checks a configuration before anything is built from it.
func ValidateConfig(config *SimConfig) error {
	if config == nil {
		return fmt.Errorf("%w: config is nil", ErrInvalidConfig)
	}
	if config.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidConfig)
	}

	if config.BoardWidth < MinBoardSize || config.BoardWidth > MaxBoardSize {
		return fmt.Errorf("%w: board_width must be between %d and %d, got %d", ErrInvalidConfig, MinBoardSize, MaxBoardSize, config.BoardWidth)
	}
	if config.BoardHeight < MinBoardSize || config.BoardHeight > MaxBoardSize {
		return fmt.Errorf("%w: board_height must be between %d and %d, got %d", ErrInvalidConfig, MinBoardSize, MaxBoardSize, config.BoardHeight)
	}
	if config.AgentCount < MinAgents || config.AgentCount > MaxAgents {
		return fmt.Errorf("%w: agent_count must be between %d and %d, got %d", ErrInvalidConfig, MinAgents, MaxAgents, config.AgentCount)
	}

	if config.NumFood < 0 {
		return fmt.Errorf("%w: num_food must be non-negative, got %d", ErrInvalidConfig, config.NumFood)
	}
	if config.NumHazards < 0 {
		return fmt.Errorf("%w: num_hazards must be non-negative, got %d", ErrInvalidConfig, config.NumHazards)
	}
	if config.NumFood+config.NumHazards > config.PlaceableCells() {
		return fmt.Errorf("%w: num_food + num_hazards (%d) exceeds the %d placeable cells",
			ErrInvalidConfig, config.NumFood+config.NumHazards, config.PlaceableCells())
	}

	if config.FoodValue < 0 {
		return fmt.Errorf("%w: food_value must be non-negative, got %d", ErrInvalidConfig, config.FoodValue)
	}
	if config.HazardPunishment < 0 {
		return fmt.Errorf("%w: hazard_punishment must be non-negative, got %d", ErrInvalidConfig, config.HazardPunishment)
	}
	if config.StartingEnergy < 1 {
		return fmt.Errorf("%w: starting_energy must be positive, got %d", ErrInvalidConfig, config.StartingEnergy)
	}

	return nil
}

// DecodeConfig parses data as YAML or JSON on top of DefaultConfig, so keys
// missing from the file keep their default values. format is a file
// extension such as ".yaml" or ".json".
func DecodeConfig(data []byte, format string) (*SimConfig, error) {
	config := DefaultConfig()
	config.Name = ""
	config.Description = ""

	switch strings.ToLower(format) {
	case ".json", "json":
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	case ".yaml", ".yml", "yaml", "yml":
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", format)
	}
	return config, nil
}

// EncodeConfig serialises a config as YAML or JSON.
func EncodeConfig(config *SimConfig, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case ".json", "json":
		return json.MarshalIndent(config, "", "  ")
	case ".yaml", ".yml", "yaml", "yml":
		return yaml.Marshal(config)
	}
	return nil, fmt.Errorf("unsupported config format %q", format)
}

// LoadConfigFile loads and validates a configuration file. The format is
// chosen by extension.
func LoadConfigFile(filename string) (*SimConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	config, err := DecodeConfig(data, filepath.Ext(filename))
	if err != nil {
		return nil, fmt.Errorf("config file '%s': %w", filename, err)
	}

	if config.Name == "" {
		config.Name = strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	}

	if err := ValidateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config '%s': %w", filename, err)
	}

	return config, nil
}
