// Command validate checks simulation configuration files (YAML or JSON) in a
// directory, ./configs by default. It checks:
//   - File structure, with unknown keys reported as errors
//   - Presence of a name
//   - Engine constraints: dimensions, agent count, food and hazard counts
//   - Playability: agents can make at least one move and food restores energy
//   - Generation: a board can actually be built from the config
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wricardo/mcp-training/antcolony/game/engine"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...any) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// validateConfig loads and validates a single configuration file. It
// performs structural checks, the engine's own validation, playability
// checks and a trial board generation.
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	ext := strings.ToLower(filepath.Ext(filePath))
	if err := checkKnownFields(data, ext); err != nil {
		result.fail("Invalid structure: %v", err)
		return result
	}

	config, err := engine.DecodeConfig(data, ext)
	if err != nil {
		result.fail("Failed to parse: %v", err)
		return result
	}

	if strings.TrimSpace(config.Name) == "" {
		result.fail("Missing required field: name")
	} else if err := engine.ValidateConfig(config); err != nil {
		result.fail("%v", err)
	}

	// Playability
	if config.StartingEnergy == 1 {
		result.fail("starting_energy must be at least 2 for any move to succeed, got 1")
	}
	if config.NumFood > 0 && config.FoodValue == 0 {
		result.fail("food_value is 0, so food never restores energy")
	}

	if !result.Valid {
		return result
	}

	// Generation
	eng, err := engine.NewEngine(config)
	if err != nil {
		result.fail("Board generation failed: %v", err)
		return result
	}
	board := eng.GetBoard()
	if got := board.Count(engine.Food); got != config.NumFood {
		result.fail("Generated %d food cells, want %d", got, config.NumFood)
	}
	if got := board.Count(engine.Hazard); got != config.NumHazards {
		result.fail("Generated %d hazard cells, want %d", got, config.NumHazards)
	}

	// Add informational data
	if result.Valid {
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Name: %s", config.Name))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Board: %dx%d", config.BoardWidth, config.BoardHeight))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Agents: %d", config.AgentCount))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Food: %d (value %d)", config.NumFood, config.FoodValue))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Hazards: %d", config.NumHazards))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Energy: %d", config.StartingEnergy))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Seed: %d", config.Seed))
	}

	return result
}

// checkKnownFields rejects keys that do not map onto engine.SimConfig.
func checkKnownFields(data []byte, ext string) error {
	var target engine.SimConfig
	switch ext {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		return dec.Decode(&target)
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&target); err != nil && err != io.EOF {
			return err
		}
		return nil
	}
	return fmt.Errorf("unsupported extension %q", ext)
}

// configFiles returns the YAML and JSON files in dir, sorted by name.
func configFiles(dir string) ([]string, error) {
	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml", "*.json"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}

// run validates every config file in dir, prints a concise report to out and
// reports whether all of them are valid.
func run(dir string, out io.Writer) (bool, error) {
	files, err := configFiles(dir)
	if err != nil {
		return false, fmt.Errorf("finding config files: %w", err)
	}
	if len(files) == 0 {
		return false, fmt.Errorf("no config files found in %s", dir)
	}

	allValid := true
	for _, file := range files {
		result := validateConfig(file)

		fmt.Fprintf(out, "\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Fprintln(out, "✅ VALID")
			for _, info := range result.Errors {
				fmt.Fprintln(out, "  "+info)
			}
		} else {
			fmt.Fprintln(out, "❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Fprintln(out, "  ❌ "+err)
				}
			}
		}
	}

	fmt.Fprintf(out, "\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Fprintln(out, "✅ All configurations are valid!")
	} else {
		fmt.Fprintln(out, "❌ Some configurations have errors")
	}
	return allValid, nil
}

// main validates the directory given as the first argument, or ./configs,
// exiting with non-zero status if any file is invalid.
func main() {
	configDir := "configs"
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}

	allValid, err := run(configDir, os.Stdout)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if !allValid {
		os.Exit(1)
	}
}
