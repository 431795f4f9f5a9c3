// Command analyze prints quick, human-readable heuristics about simulation
// configuration files. For each config it summarizes board density and the
// energy budget, counts cells an agent cannot reach on its starting energy,
// and plays a few episodes with each scripted policy to give a baseline.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/urfave/cli/v3"
	"gonum.org/v1/gonum/stat"

	"github.com/wricardo/mcp-training/antcolony/game/engine"
	"github.com/wricardo/mcp-training/antcolony/game/policy"
)

// maxEpisodeTurns guards baseline runs against configs that never end.
const maxEpisodeTurns = 1_000_000

func main() {
	if err := newApp(os.Stdout).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Usage:     "Analyze simulation configurations",
		ArgsUsage: "[config-dir]",
		Writer:    out,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "episodes",
				Value: 10,
				Usage: "Baseline episodes per policy (0 skips the baseline)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			dir := "configs"
			if cmd.Args().Len() > 0 {
				dir = cmd.Args().First()
			}

			files, err := configFiles(dir)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return fmt.Errorf("no config files in %s", dir)
			}

			for _, path := range files {
				fmt.Fprintf(out, "\n=== Analyzing %s ===\n", filepath.Base(path))
				if err := analyzeConfig(out, path, int(cmd.Int("episodes"))); err != nil {
					fmt.Fprintf(out, "Error: %v\n", err)
				}
			}
			return nil
		},
	}
}

// configFiles lists the YAML and JSON files in dir, sorted by name.
func configFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml", ".json":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func analyzeConfig(out io.Writer, path string, episodes int) error {
	config, err := engine.LoadConfigFile(path)
	if err != nil {
		return err
	}

	cells := config.BoardWidth * config.BoardHeight
	fmt.Fprintf(out, "Name: %s\n", config.Name)
	fmt.Fprintf(out, "Board: %d x %d (%d cells)\n", config.BoardWidth, config.BoardHeight, cells)
	fmt.Fprintf(out, "Agents: %d  Starting energy: %d  Food value: %d\n",
		config.AgentCount, config.StartingEnergy, config.FoodValue)
	fmt.Fprintf(out, "Food: %d  Hazards: %d  Density: %.1f%% of placeable cells\n",
		config.NumFood, config.NumHazards,
		100*float64(config.NumFood+config.NumHazards)/float64(config.PlaceableCells()))

	colonyEnergy := config.AgentCount * config.StartingEnergy
	foodEnergy := config.NumFood * config.FoodValue
	fmt.Fprintf(out, "Energy budget: colony %d + food %d\n", colonyEnergy, foodEnergy)
	fmt.Fprintf(out, "Turn bound: at most %d turns while any agent lives\n", turnBound(config))

	if unreachable := unreachableCells(config); unreachable > 0 {
		fmt.Fprintf(out, "⚠️  WARNING: %d cells are out of reach without eating (max %d moves from the colony)\n",
			unreachable, maxMoves(config))
	} else {
		fmt.Fprintf(out, "✅ Every cell is within reach of the colony on starting energy\n")
	}

	if config.HazardPunishment != 1 {
		fmt.Fprintf(out, "Note: hazard_punishment is %d but the hazard penalty is always 1\n", config.HazardPunishment)
	}

	if episodes <= 0 {
		return nil
	}

	fmt.Fprintf(out, "Baseline over %d episodes:\n", episodes)
	for _, name := range policy.Names() {
		b, err := simulate(config, name, episodes)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "  %-8s turns %.1f ± %.1f  food eaten %.1f ± %.1f\n",
			name, b.MeanTurns, b.StdDevTurns, b.MeanFood, b.StdDevFood)
	}
	return nil
}

// maxMoves is how many successful moves an agent can make before its energy
// no longer allows one.
func maxMoves(config *engine.SimConfig) int {
	if config.StartingEnergy < 1 {
		return 0
	}
	return config.StartingEnergy - 1
}

// turnBound is an upper bound on episode length. The last agent alive acts at
// most once per unit of energy it can ever hold plus its dying turn, and every
// slot in the turn cycle counts.
func turnBound(config *engine.SimConfig) int {
	lastAgent := config.StartingEnergy + config.NumFood*config.FoodValue + 1
	if lastAgent < 1 {
		lastAgent = 1
	}
	return config.AgentCount * lastAgent
}

// unreachableCells counts cells farther from the colony than an agent can
// walk on its starting energy.
func unreachableCells(config *engine.SimConfig) int {
	limit := maxMoves(config)
	colony := engine.Position{}
	count := 0
	for x := 0; x < config.BoardWidth; x++ {
		for y := 0; y < config.BoardHeight; y++ {
			if engine.ManhattanDistance(colony, engine.Position{X: x, Y: y}) > limit {
				count++
			}
		}
	}
	return count
}

// baseline holds episode statistics for one policy.
type baseline struct {
	MeanTurns   float64
	StdDevTurns float64
	MeanFood    float64
	StdDevFood  float64
}

// simulate plays episodes with seeds 1..episodes, every agent driven by the
// named policy.
func simulate(config *engine.SimConfig, policyName string, episodes int) (baseline, error) {
	turns := make([]float64, 0, episodes)
	food := make([]float64, 0, episodes)

	for i := 1; i <= episodes; i++ {
		cfg := config.Clone()
		cfg.Seed = uint64(i)

		eng, err := engine.NewEngine(cfg)
		if err != nil {
			return baseline{}, err
		}
		pol, err := policy.New(policyName, cfg.Seed)
		if err != nil {
			return baseline{}, err
		}

		for !eng.IsDone() && eng.TotalTurns() < maxEpisodeTurns {
			obs, err := eng.Observe(eng.CurrentAgent())
			if err != nil {
				return baseline{}, err
			}
			if _, err := eng.Step(pol.Act(obs)); err != nil {
				return baseline{}, err
			}
		}

		turns = append(turns, float64(eng.TotalTurns()))
		food = append(food, float64(cfg.NumFood-eng.GetBoard().Count(engine.Food)))
	}

	b := baseline{
		MeanTurns: stat.Mean(turns, nil),
		MeanFood:  stat.Mean(food, nil),
	}
	if episodes > 1 {
		b.StdDevTurns = stat.StdDev(turns, nil)
		b.StdDevFood = stat.StdDev(food, nil)
	}
	return b, nil
}
