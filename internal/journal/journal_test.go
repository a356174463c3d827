package journal

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"framemill/internal/predictor"
)

func mustOpen(t *testing.T) *Store {
	t.Helper()
	store, err := OpenPath(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRunLifecycle(t *testing.T) {
	store := mustOpen(t)
	ctx := context.Background()

	if err := store.StartRun(ctx, "run-1", "acme", "vid42", "/videos/vid42.mp4"); err != nil {
		t.Fatalf("StartRun failed: %v", err)
	}

	run, err := store.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if run == nil {
		t.Fatal("expected run")
	}
	if run.Finished() {
		t.Fatal("run should not be finished yet")
	}
	if run.Tenant != "acme" || run.Video != "vid42" {
		t.Fatalf("unexpected identity: %+v", run)
	}

	run.TotalFrames = 100
	run.TotalPairs = 99
	run.ChunksSubmitted = 8
	run.ChunksCompleted = 7
	run.ChunksFailed = 1
	run.ProductionRate = 30.5
	run.InferenceRate = 28.0
	run.EncodeRate = 12.25
	run.EncodingBottleneck = true
	if err := store.FinishRun(ctx, run); err != nil {
		t.Fatalf("FinishRun failed: %v", err)
	}

	got, err := store.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun after finish failed: %v", err)
	}
	if !got.Finished() {
		t.Fatal("run should be finished")
	}
	if got.TotalFrames != 100 || got.ChunksFailed != 1 {
		t.Fatalf("counters not persisted: %+v", got)
	}
	if !got.EncodingBottleneck {
		t.Fatal("bottleneck flag not persisted")
	}
	if got.Error != "" {
		t.Fatalf("unexpected error string %q", got.Error)
	}

	missing, err := store.GetRun(ctx, "nope")
	if err != nil {
		t.Fatalf("GetRun(missing) errored: %v", err)
	}
	if missing != nil {
		t.Fatal("expected nil for missing run")
	}
}

func TestLatestRunAndList(t *testing.T) {
	store := mustOpen(t)
	ctx := context.Background()

	if latest, err := store.LatestRun(ctx); err != nil || latest != nil {
		t.Fatalf("empty journal: latest=%v err=%v", latest, err)
	}

	if err := store.StartRun(ctx, "run-a", "t", "v", "a.mp4"); err != nil {
		t.Fatalf("StartRun a: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	if err := store.StartRun(ctx, "run-b", "t", "v", "b.mp4"); err != nil {
		t.Fatalf("StartRun b: %v", err)
	}

	latest, err := store.LatestRun(ctx)
	if err != nil {
		t.Fatalf("LatestRun failed: %v", err)
	}
	if latest.ID != "run-b" {
		t.Fatalf("latest = %q, want run-b", latest.ID)
	}

	runs, err := store.ListRuns(ctx, 10)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "run-b" {
		t.Fatalf("unexpected run list: %+v", runs)
	}
}

func TestRecordPairAndHistogram(t *testing.T) {
	store := mustOpen(t)
	ctx := context.Background()
	if err := store.StartRun(ctx, "run-1", "t", "v", "in.mp4"); err != nil {
		t.Fatalf("StartRun: %v", err)
	}

	pairs := []predictor.PairResult{
		{
			Frame1:   0,
			Frame2:   1,
			Forward:  predictor.Prediction{Label: "same", Confidence: 0.9, Probabilities: predictor.Probabilities{Same: 0.9, Different: 0.1}},
			Backward: predictor.Prediction{Label: "same", Confidence: 0.8, Probabilities: predictor.Probabilities{Same: 0.8, Different: 0.2}},
		},
		{
			Frame1:   1,
			Frame2:   2,
			Forward:  predictor.Prediction{Label: "different", Confidence: 0.7},
			Backward: predictor.Prediction{Label: "empty_valid", Confidence: 0.6},
		},
	}
	for _, pair := range pairs {
		if err := store.RecordPair(ctx, "run-1", pair); err != nil {
			t.Fatalf("RecordPair failed: %v", err)
		}
	}

	histogram, err := store.LabelHistogram(ctx, "run-1")
	if err != nil {
		t.Fatalf("LabelHistogram failed: %v", err)
	}
	want := map[string]int64{"same": 2, "different": 1, "empty_valid": 1}
	for label, count := range want {
		if histogram[label] != count {
			t.Fatalf("histogram[%s] = %d, want %d (full: %v)", label, histogram[label], count, histogram)
		}
	}
}

func TestRecordPairIsAtomic(t *testing.T) {
	store := mustOpen(t)
	ctx := context.Background()
	if err := store.StartRun(ctx, "run-1", "t", "v", "in.mp4"); err != nil {
		t.Fatalf("StartRun: %v", err)
	}

	// Reject backward rows so the second insert of the pair fails.
	if _, err := store.db.Exec(`CREATE TRIGGER reject_backward BEFORE INSERT ON pairs
        WHEN NEW.direction = 'backward' BEGIN SELECT RAISE(ABORT, 'rejected'); END`); err != nil {
		t.Fatalf("create trigger: %v", err)
	}

	pair := predictor.PairResult{
		Frame1:   0,
		Frame2:   1,
		Forward:  predictor.Prediction{Label: "same", Confidence: 0.9},
		Backward: predictor.Prediction{Label: "same", Confidence: 0.8},
	}
	if err := store.RecordPair(ctx, "run-1", pair); err == nil {
		t.Fatal("expected RecordPair to fail")
	}

	var count int64
	if err := store.db.QueryRow(`SELECT COUNT(1) FROM pairs`).Scan(&count); err != nil {
		t.Fatalf("count pairs: %v", err)
	}
	if count != 0 {
		t.Fatalf("found %d pair rows after a failed insert, want none", count)
	}
}

func TestRecordChunkAndOutcomes(t *testing.T) {
	store := mustOpen(t)
	ctx := context.Background()
	if err := store.StartRun(ctx, "run-1", "t", "v", "in.mp4"); err != nil {
		t.Fatalf("StartRun: %v", err)
	}

	if err := store.RecordChunk(ctx, "run-1", 4, 64, "/out/chunk_0064.webm", 1500*time.Millisecond, ""); err != nil {
		t.Fatalf("RecordChunk ok: %v", err)
	}
	if err := store.RecordChunk(ctx, "run-1", 16, 0, "", 90*time.Millisecond, "encoder exited 1"); err != nil {
		t.Fatalf("RecordChunk failed-chunk: %v", err)
	}

	outcomes, err := store.ChunkOutcomes(ctx, "run-1")
	if err != nil {
		t.Fatalf("ChunkOutcomes failed: %v", err)
	}
	if len(outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(outcomes))
	}
	if outcomes[0].ModuloLevel != 16 || outcomes[0].Error == "" {
		t.Fatalf("expected failed level-16 chunk first, got %+v", outcomes[0])
	}
	if outcomes[1].ModuloLevel != 4 || outcomes[1].ArtifactPath != "/out/chunk_0064.webm" {
		t.Fatalf("unexpected second outcome: %+v", outcomes[1])
	}
	if outcomes[1].EncodeTime != 1500*time.Millisecond {
		t.Fatalf("encode time not persisted: %v", outcomes[1].EncodeTime)
	}
}

func TestSchemaVersionMismatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "journal.db")

	store, err := OpenPath(path)
	if err != nil {
		t.Fatalf("initial open: %v", err)
	}
	if _, err := store.db.Exec("UPDATE schema_version SET version = 999"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if _, err := OpenPath(path); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}
