// Command antcolony runs the ant colony foraging simulation.
//
// It supports three commands:
//  1. "run" plays one episode with a scripted policy and can write a per-turn trace
//  2. "mcp" serves the simulation as MCP tools over stdio
//  3. "configs" lists the configurations in the config directory
//
// Global flags select the config directory and logging. Every flag can also
// be set from the environment, and a .env file in the working directory is
// loaded first.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/mcp-training/antcolony/game/config"
	"github.com/wricardo/mcp-training/antcolony/game/engine"
	"github.com/wricardo/mcp-training/antcolony/game/policy"
	"github.com/wricardo/mcp-training/antcolony/game/service"
	"github.com/wricardo/mcp-training/antcolony/game/session"
	"github.com/wricardo/mcp-training/antcolony/game/trace"
	"github.com/wricardo/mcp-training/antcolony/transport/mcp"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Ant Colony Simulation"
)

// Session retention for the MCP server
const (
	sessionCleanupInterval = time.Hour
	sessionMaxAge          = 24 * time.Hour
)

func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: Error loading .env file: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdout, os.Stderr).Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app carries the writers and the logger built from the global flags.
type app struct {
	stdout io.Writer
	stderr io.Writer
	logger *slog.Logger
}

func newApp(stdout, stderr io.Writer) *cli.Command {
	a := &app{
		stdout: stdout,
		stderr: stderr,
		logger: slog.New(slog.NewTextHandler(stderr, nil)),
	}

	return &cli.Command{
		Name:      "antcolony",
		Usage:     AppName,
		Version:   Version,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config-dir",
				Value:   "configs",
				Usage:   "Directory containing simulation configurations",
				Sources: cli.EnvVars("ANTCOLONY_CONFIG_DIR", "CONFIG_DIR"),
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "Enable debug logging",
				Sources: cli.EnvVars("ANTCOLONY_DEBUG"),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Value:   "text",
				Usage:   "Log format: text or json",
				Sources: cli.EnvVars("ANTCOLONY_LOG_FORMAT"),
			},
		},
		Before: a.before,
		Commands: []*cli.Command{
			a.runCommand(),
			a.mcpCommand(),
			a.configsCommand(),
		},
	}
}

func (a *app) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	logger, err := newLogger(a.stderr, cmd.String("log-format"), cmd.Bool("debug"))
	if err != nil {
		return ctx, err
	}
	a.logger = logger
	return ctx, nil
}

// newLogger builds the process logger. Logs always go to w, never stdout,
// so the MCP stdio stream stays clean.
func newLogger(w io.Writer, format string, debug bool) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if debug {
		opts.Level = slog.LevelDebug
		opts.AddSource = true
	}

	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return nil, fmt.Errorf("unknown log format %q (want text or json)", format)
}

func (a *app) runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Play one episode with a scripted policy",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "Config name (defaults to the directory default)",
				Sources: cli.EnvVars("ANTCOLONY_CONFIG"),
			},
			&cli.Uint64Flag{
				Name:  "seed",
				Usage: "Override the config seed",
			},
			&cli.StringFlag{
				Name:  "policy",
				Value: "forager",
				Usage: "Policy driving every agent: " + strings.Join(policy.Names(), ", "),
			},
			&cli.IntFlag{
				Name:  "max-turns",
				Usage: "Stop after this many turns (0 runs until every agent is dead)",
			},
			&cli.IntFlag{
				Name:  "render-every",
				Usage: "Print the board every N steps (0 disables)",
			},
			&cli.StringFlag{
				Name:  "trace-out",
				Usage: "Write a per-turn trace to this .csv or .parquet file",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			svcs, err := initializeServices(cmd.String("config-dir"), a.logger)
			if err != nil {
				return err
			}

			opts := runOptions{
				ConfigName:  cmd.String("config"),
				Policy:      cmd.String("policy"),
				MaxTurns:    int(cmd.Int("max-turns")),
				RenderEvery: int(cmd.Int("render-every")),
				TraceOut:    cmd.String("trace-out"),
			}
			if cmd.IsSet("seed") {
				seed := cmd.Uint64("seed")
				opts.Seed = &seed
			}

			summary, err := runEpisode(ctx, svcs.configs, opts, a.stdout, a.logger)
			if err != nil {
				return err
			}
			printSummary(a.stdout, summary)
			return nil
		},
	}
}

func (a *app) mcpCommand() *cli.Command {
	return &cli.Command{
		Name:    "mcp",
		Aliases: []string{"stdio-mcp", "mcp-stdio"},
		Usage:   "Serve the simulation as MCP tools over stdio",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			svcs, err := initializeServices(cmd.String("config-dir"), a.logger)
			if err != nil {
				return err
			}

			go sessionCleanupRoutine(ctx, svcs.sessions, a.logger, sessionCleanupInterval, sessionMaxAge)

			a.logger.Info("starting", "app", AppName, "version", Version, "mode", "mcp")
			return mcp.NewServer(svcs.sim, a.logger).ServeStdio()
		},
	}
}

func (a *app) configsCommand() *cli.Command {
	return &cli.Command{
		Name:  "configs",
		Usage: "List available configurations",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			svcs, err := initializeServices(cmd.String("config-dir"), a.logger)
			if err != nil {
				return err
			}

			configs, err := svcs.sim.ListConfigs(ctx)
			if err != nil {
				return err
			}
			defaultName := svcs.configs.GetDefault().Name

			tw := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "CONFIG\tNAME\tBOARD\tAGENTS\tFOOD\tHAZARDS\tDESCRIPTION")
			for _, c := range configs {
				id := c.ConfigID
				if c.Name == defaultName {
					id += " *"
				}
				fmt.Fprintf(tw, "%s\t%s\t%dx%d\t%d\t%d\t%d\t%s\n",
					id, c.Name, c.BoardWidth, c.BoardHeight, c.AgentCount, c.NumFood, c.NumHazards, c.Description)
			}
			return tw.Flush()
		},
	}
}

// services groups the managers shared by the commands.
type services struct {
	configs  *config.Manager
	sessions *session.Manager
	sim      service.SimService
}

// initializeServices wires the session and config managers and the
// simulation service.
func initializeServices(configDir string, logger *slog.Logger) (*services, error) {
	configManager, err := config.NewManager(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	sessionManager := session.NewManager()

	return &services{
		configs:  configManager,
		sessions: sessionManager,
		sim:      service.NewSimService(sessionManager, configManager, logger),
	}, nil
}

// sessionCleanupRoutine periodically removes sessions that have not been
// accessed within maxAge. It returns when ctx is done.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, logger *slog.Logger, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(maxAge); removed > 0 {
				logger.Info("cleaned up expired sessions", "removed", removed)
			}
		}
	}
}

// runOptions configures a single scripted episode.
type runOptions struct {
	ConfigName  string
	Seed        *uint64
	Policy      string
	MaxTurns    int
	RenderEvery int
	TraceOut    string
}

// runEpisode plays one episode with every agent driven by the same policy.
func runEpisode(ctx context.Context, configs *config.Manager, opts runOptions, out io.Writer, logger *slog.Logger) (trace.Summary, error) {
	cfg := configs.GetDefault()
	if opts.ConfigName != "" {
		loaded, err := configs.LoadConfig(opts.ConfigName)
		if err != nil {
			return trace.Summary{}, err
		}
		cfg = loaded
	}
	if opts.Seed != nil {
		cfg.Seed = *opts.Seed
	}

	eng, err := engine.NewEngine(cfg)
	if err != nil {
		return trace.Summary{}, err
	}
	pol, err := policy.New(opts.Policy, cfg.Seed)
	if err != nil {
		return trace.Summary{}, err
	}

	rec := trace.NewRecorder(cfg.Name)
	logger.Info("episode started",
		"run_id", rec.RunID(),
		"config", cfg.Name,
		"seed", cfg.Seed,
		"policy", pol.Name(),
		"agents", cfg.AgentCount,
	)

	cycle := cfg.AgentCount
	for !eng.IsDone() {
		if opts.MaxTurns > 0 && eng.TotalTurns() >= opts.MaxTurns {
			logger.Info("turn limit reached", "max_turns", opts.MaxTurns)
			break
		}
		if err := ctx.Err(); err != nil {
			return trace.Summary{}, err
		}

		obs, err := eng.Observe(eng.CurrentAgent())
		if err != nil {
			return trace.Summary{}, err
		}
		res, err := eng.Step(pol.Act(obs))
		if err != nil {
			return trace.Summary{}, err
		}
		if err := rec.Record(eng, res); err != nil {
			return trace.Summary{}, err
		}

		if res.Info.Died {
			logger.Debug("agent died", "agent", res.AgentID, "turn", res.Info.TotalTurns)
		}
		if opts.RenderEvery > 0 && eng.TotalTurns()%(opts.RenderEvery*cycle) == 0 {
			fmt.Fprintf(out, "Step %d\n%s\n", eng.StepCount(), eng.RenderText())
		}
	}

	if opts.TraceOut != "" {
		if err := rec.WriteFile(opts.TraceOut); err != nil {
			return trace.Summary{}, err
		}
		logger.Info("trace written", "path", opts.TraceOut, "rows", rec.Len())
	}

	summary := rec.Summarize(eng.GetState())
	logger.Info("episode finished",
		"run_id", summary.RunID,
		"turns", summary.Turns,
		"steps", summary.Steps,
		"food_eaten", summary.FoodEaten,
		"mean_reward", summary.MeanReward,
	)
	return summary, nil
}

func printSummary(w io.Writer, s trace.Summary) {
	status := "stopped"
	if s.EpisodeDone {
		status = "every agent is dead"
	}
	fmt.Fprintf(w, "Run %s (%s): %s\n", s.RunID, s.Config, status)
	fmt.Fprintf(w, "Turns: %d  Steps: %d  Alive: %d\n", s.Turns, s.Steps, s.Alive)
	fmt.Fprintf(w, "Food eaten: %d  Food left: %d  Hazards hit: %d  Deaths: %d\n",
		s.FoodEaten, s.FoodRemaining, s.HazardsHit, s.Deaths)
	fmt.Fprintf(w, "Reward per agent: mean %.2f  stddev %.2f  min %.0f  max %.0f\n",
		s.MeanReward, s.StdDevReward, s.MinReward, s.MaxReward)
}
