package trace

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"
	"github.com/wricardo/mcp-training/antcolony/game/engine"
)

// ErrUnsupportedFormat is returned by WriteFile for unknown extensions.
var ErrUnsupportedFormat = errors.New("unsupported trace format")

// schemaVersion is stored in Parquet key/value metadata.
const schemaVersion = "turn_trace_v1"

// Row is one resolved turn. Positions and energy are taken after the turn.
type Row struct {
	RunID            string  `csv:"run_id" parquet:"run_id,dict"`
	Config           string  `csv:"config" parquet:"config,dict"`
	Turn             int32   `csv:"turn" parquet:"turn"`
	Step             int32   `csv:"step" parquet:"step"`
	AgentID          string  `csv:"agent_id" parquet:"agent_id,dict"`
	Action           string  `csv:"action" parquet:"action,dict"`
	FromX            int32   `csv:"from_x" parquet:"from_x"`
	FromY            int32   `csv:"from_y" parquet:"from_y"`
	ToX              int32   `csv:"to_x" parquet:"to_x"`
	ToY              int32   `csv:"to_y" parquet:"to_y"`
	Energy           int32   `csv:"energy" parquet:"energy"`
	Reward           float64 `csv:"reward" parquet:"reward"`
	CumulativeReward float64 `csv:"cumulative_reward" parquet:"cumulative_reward"`
	Alive            bool    `csv:"alive" parquet:"alive"`
	AteFood          bool    `csv:"ate_food" parquet:"ate_food"`
	HitHazard        bool    `csv:"hit_hazard" parquet:"hit_hazard"`
	Died             bool    `csv:"died" parquet:"died"`
	FoodRemaining    int32   `csv:"food_remaining" parquet:"food_remaining"`
	AliveCount       int32   `csv:"alive_count" parquet:"alive_count"`
}

// Recorder collects the turns of one episode. It is not safe for concurrent
// use.
type Recorder struct {
	runID  string
	config string
	rows   []Row
}

// NewRecorder starts a new run with a random run ID.
func NewRecorder(configName string) *Recorder {
	return &Recorder{
		runID:  uuid.NewString(),
		config: configName,
	}
}

// RunID returns the identifier stamped on every row.
func (r *Recorder) RunID() string { return r.runID }

// Len returns the number of recorded turns.
func (r *Recorder) Len() int { return len(r.rows) }

// Rows returns a copy of the recorded rows.
func (r *Recorder) Rows() []Row {
	out := make([]Row, len(r.rows))
	copy(out, r.rows)
	return out
}

// Record appends the turn described by res. eng must be the engine that
// produced res, with no turns resolved since.
func (r *Recorder) Record(eng *engine.Engine, res *engine.StepResult) error {
	agent, err := eng.GetAgent(res.AgentID)
	if err != nil {
		return fmt.Errorf("record turn %d: %w", res.Info.TotalTurns, err)
	}

	r.rows = append(r.rows, Row{
		RunID:            r.runID,
		Config:           r.config,
		Turn:             int32(res.Info.TotalTurns),
		Step:             int32(res.Info.StepCount),
		AgentID:          res.AgentID,
		Action:           res.Action.String(),
		FromX:            int32(res.Info.From.X),
		FromY:            int32(res.Info.From.Y),
		ToX:              int32(res.Info.To.X),
		ToY:              int32(res.Info.To.Y),
		Energy:           int32(res.Info.Energy),
		Reward:           res.Reward,
		CumulativeReward: agent.CumulativeReward,
		Alive:            agent.Alive,
		AteFood:          res.Info.AteFood,
		HitHazard:        res.Info.HitHazard,
		Died:             res.Info.Died,
		FoodRemaining:    int32(eng.GetBoard().Count(engine.Food)),
		AliveCount:       int32(res.Info.AliveCount),
	})
	return nil
}

// WriteCSV writes the rows with a header line.
func (r *Recorder) WriteCSV(w io.Writer) error {
	if err := gocsv.Marshal(r.rows, w); err != nil {
		return fmt.Errorf("writing trace csv: %w", err)
	}
	return nil
}

// WriteParquet writes the rows to outPath with zstd compression. The file is
// written to a temporary path first and renamed into place.
func (r *Recorder) WriteParquet(outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmpPath := outPath + ".tmp"
	_ = os.Remove(tmpPath)

	if err := parquet.WriteFile(tmpPath, r.rows,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata("schema", schemaVersion),
		parquet.KeyValueMetadata("run_id", r.runID),
		parquet.KeyValueMetadata("config", r.config),
	); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write parquet: %w", err)
	}

	if err := os.Rename(tmpPath, outPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename parquet: %w", err)
	}
	return nil
}

// WriteFile writes the trace to path, choosing CSV or Parquet by extension.
func (r *Recorder) WriteFile(path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		return r.WriteParquet(path)
	case ".csv":
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
		if err := r.WriteCSV(f); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}
	return fmt.Errorf("%w: %q (want .csv or .parquet)", ErrUnsupportedFormat, filepath.Ext(path))
}

// ReadParquet loads rows written by WriteParquet.
func ReadParquet(path string) ([]Row, error) {
	rows, err := parquet.ReadFile[Row](path)
	if err != nil {
		return nil, fmt.Errorf("read parquet: %w", err)
	}
	return rows, nil
}
