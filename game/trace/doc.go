// Package trace records per-turn episode traces and exports them for
// offline analysis.
//
// A Recorder is created per episode and stamped with a random run ID. After
// each engine step the caller passes the StepResult to Record. The collected
// rows can be written as CSV or as zstd-compressed Parquet:
//
//	rec := trace.NewRecorder(cfg.Name)
//	for !eng.IsDone() {
//		res, _ := eng.Step(action)
//		rec.Record(eng, res)
//	}
//	rec.WriteFile("out/run.parquet")
//	summary := rec.Summarize(eng.GetState())
package trace
