package trace

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gocarina/gocsv"
	"github.com/wricardo/mcp-training/antcolony/game/engine"
)

func createTestEngine(t *testing.T, agents, energy int) *engine.Engine {
	t.Helper()
	eng, err := engine.NewEngine(&engine.SimConfig{
		Name:             "trace-test",
		NumFood:          0,
		NumHazards:       0,
		HazardPunishment: 1,
		AgentCount:       agents,
		BoardWidth:       3,
		BoardHeight:      3,
		FoodValue:        5,
		StartingEnergy:   energy,
		Seed:             1,
	})
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	return eng
}

// recordRun steps the engine through actions, recording every turn
func recordRun(t *testing.T, eng *engine.Engine, actions ...engine.Action) *Recorder {
	t.Helper()
	rec := NewRecorder("trace-test")
	for _, a := range actions {
		res, err := eng.Step(a)
		if err != nil {
			t.Fatalf("Step failed: %v", err)
		}
		if err := rec.Record(eng, res); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}
	return rec
}

func TestNewRecorder(t *testing.T) {
	a := NewRecorder("x")
	b := NewRecorder("x")

	if a.RunID() == "" {
		t.Fatal("Expected a run ID")
	}
	if a.RunID() == b.RunID() {
		t.Error("Expected distinct run IDs")
	}
	if a.Len() != 0 {
		t.Errorf("Expected empty recorder, got %d rows", a.Len())
	}
}

func TestRecorder_Record(t *testing.T) {
	eng := createTestEngine(t, 1, 2)
	rec := recordRun(t, eng, engine.Right, engine.Up, engine.Down)

	rows := rec.Rows()
	if len(rows) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(rows))
	}

	tests := []struct {
		idx        int
		action     string
		to         engine.Position
		energy     int32
		cumulative float64
		alive      bool
		died       bool
	}{
		{0, "right", engine.Position{X: 0, Y: 1}, 1, -1, true, false},
		{1, "up", engine.Position{X: 0, Y: 1}, 0, -2, true, false},
		{2, "down", engine.Position{X: 0, Y: 1}, -1, -3, false, true},
	}

	for _, tt := range tests {
		row := rows[tt.idx]
		if row.RunID != rec.RunID() || row.Config != "trace-test" {
			t.Errorf("Row %d: unexpected run stamp %s/%s", tt.idx, row.RunID, row.Config)
		}
		if row.Turn != int32(tt.idx+1) {
			t.Errorf("Row %d: expected turn %d, got %d", tt.idx, tt.idx+1, row.Turn)
		}
		if row.Action != tt.action {
			t.Errorf("Row %d: expected action %s, got %s", tt.idx, tt.action, row.Action)
		}
		if row.ToX != int32(tt.to.X) || row.ToY != int32(tt.to.Y) {
			t.Errorf("Row %d: expected to (%d,%d), got (%d,%d)", tt.idx, tt.to.X, tt.to.Y, row.ToX, row.ToY)
		}
		if row.Energy != tt.energy {
			t.Errorf("Row %d: expected energy %d, got %d", tt.idx, tt.energy, row.Energy)
		}
		if row.Reward != -1 {
			t.Errorf("Row %d: expected reward -1, got %v", tt.idx, row.Reward)
		}
		if row.CumulativeReward != tt.cumulative {
			t.Errorf("Row %d: expected cumulative %v, got %v", tt.idx, tt.cumulative, row.CumulativeReward)
		}
		if row.Alive != tt.alive || row.Died != tt.died {
			t.Errorf("Row %d: expected alive=%v died=%v, got alive=%v died=%v", tt.idx, tt.alive, tt.died, row.Alive, row.Died)
		}
	}
}

func TestRecorder_RowsIsCopy(t *testing.T) {
	eng := createTestEngine(t, 1, 5)
	rec := recordRun(t, eng, engine.Right)

	rows := rec.Rows()
	rows[0].Action = "changed"

	if rec.Rows()[0].Action != "right" {
		t.Error("Rows should return a copy")
	}
}

func TestRecorder_WriteCSV(t *testing.T) {
	eng := createTestEngine(t, 2, 5)
	rec := recordRun(t, eng, engine.Right, engine.Down, engine.Right)

	var buf bytes.Buffer
	if err := rec.WriteCSV(&buf); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("Expected header plus 3 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "run_id,config,turn,step,agent_id,action") {
		t.Errorf("Unexpected header: %s", lines[0])
	}

	var decoded []Row
	if err := gocsv.UnmarshalBytes(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Failed to read CSV back: %v", err)
	}
	if decoded[1].AgentID != "1" || decoded[1].Action != "down" {
		t.Errorf("Expected agent 1 moving down, got %s %s", decoded[1].AgentID, decoded[1].Action)
	}
	if decoded[2].Step != 1 {
		t.Errorf("Expected step 1 after a full cycle, got %d", decoded[2].Step)
	}
}

func TestRecorder_WriteParquet(t *testing.T) {
	eng := createTestEngine(t, 2, 5)
	rec := recordRun(t, eng, engine.Right, engine.Down, engine.Right, engine.Down)

	path := filepath.Join(t.TempDir(), "nested", "run.parquet")
	if err := rec.WriteFile(path); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("Temporary file should be gone after the rename")
	}

	rows, err := ReadParquet(path)
	if err != nil {
		t.Fatalf("ReadParquet failed: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("Expected 4 rows, got %d", len(rows))
	}
	want := rec.Rows()
	for i := range rows {
		if rows[i] != want[i] {
			t.Errorf("Row %d: expected %+v, got %+v", i, want[i], rows[i])
		}
	}
}

func TestRecorder_WriteFile(t *testing.T) {
	eng := createTestEngine(t, 1, 5)
	rec := recordRun(t, eng, engine.Down)
	dir := t.TempDir()

	t.Run("csv", func(t *testing.T) {
		path := filepath.Join(dir, "run.CSV")
		if err := rec.WriteFile(path); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("Failed to read file: %v", err)
		}
		if !strings.Contains(string(data), rec.RunID()) {
			t.Error("Expected run ID in CSV")
		}
	})

	t.Run("unsupported", func(t *testing.T) {
		err := rec.WriteFile(filepath.Join(dir, "run.xlsx"))
		if !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
		}
	})
}

func TestRecorder_Summarize(t *testing.T) {
	eng := createTestEngine(t, 2, 5)
	// agent 0 acts twice, agent 1 once
	rec := recordRun(t, eng, engine.Right, engine.Down, engine.Right)

	s := rec.Summarize(eng.GetState())

	if s.Turns != 3 || s.Steps != 1 {
		t.Errorf("Expected 3 turns and 1 step, got %d and %d", s.Turns, s.Steps)
	}
	if s.Alive != 2 || s.Deaths != 0 || s.EpisodeDone {
		t.Errorf("Expected everyone alive, got alive=%d deaths=%d done=%v", s.Alive, s.Deaths, s.EpisodeDone)
	}
	if s.MeanReward != -1.5 {
		t.Errorf("Expected mean reward -1.5, got %v", s.MeanReward)
	}
	if s.MinReward != -2 || s.MaxReward != -1 {
		t.Errorf("Expected min -2 and max -1, got %v and %v", s.MinReward, s.MaxReward)
	}
	if math.Abs(s.StdDevReward-math.Sqrt(0.5)) > 1e-9 {
		t.Errorf("Expected sample stddev %v, got %v", math.Sqrt(0.5), s.StdDevReward)
	}
}

func TestRecorder_SummarizeSingleAgent(t *testing.T) {
	eng := createTestEngine(t, 1, 1)
	rec := recordRun(t, eng, engine.Right, engine.Right)

	s := rec.Summarize(eng.GetState())

	if !s.EpisodeDone || s.Deaths != 1 {
		t.Errorf("Expected the only agent to be dead, got done=%v deaths=%d", s.EpisodeDone, s.Deaths)
	}
	if s.StdDevReward != 0 {
		t.Errorf("Expected zero stddev for one agent, got %v", s.StdDevReward)
	}
	if s.MeanReward != -2 {
		t.Errorf("Expected mean reward -2, got %v", s.MeanReward)
	}
}
