package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"framemill/internal/config"
	"framemill/internal/framestore"
	"framemill/internal/journal"
	"framemill/internal/modlevel"
	"framemill/internal/predictor"
	"framemill/internal/producer"
	"framemill/internal/services"
	"framemill/internal/testsupport"
)

// sliceProducer serves a fixed number of synthetic frames, then optionally
// fails instead of reporting end of stream.
type sliceProducer struct {
	frames  int64
	next    int64
	failErr error
}

func (p *sliceProducer) Next(ctx context.Context) (producer.Frame, error) {
	if p.next >= p.frames {
		if p.failErr != nil {
			return producer.Frame{}, p.failErr
		}
		return producer.Frame{}, producer.ErrEndOfStream
	}
	frame := producer.Frame{Index: p.next, Pixels: []byte{byte(p.next)}}
	p.next++
	return frame, nil
}

// stubPredictor labels every directed pair "same" and records batch sizes.
type stubPredictor struct {
	mu      sync.Mutex
	batches []int
	failErr error
}

func (s *stubPredictor) PredictBatch(ctx context.Context, pairs []predictor.FramePair) ([]predictor.Prediction, error) {
	if s.failErr != nil {
		return nil, s.failErr
	}
	s.mu.Lock()
	s.batches = append(s.batches, len(pairs))
	s.mu.Unlock()
	out := make([]predictor.Prediction, len(pairs))
	for i := range out {
		out[i] = predictor.Prediction{Label: "same", Confidence: 0.9}
	}
	return out, nil
}

func (s *stubPredictor) Close() error { return nil }

// fakeBackend records encoded chunks without running a process.
type fakeBackend struct {
	mu      sync.Mutex
	outputs []string
	failErr error
}

func (b *fakeBackend) Encode(ctx context.Context, framePaths []string, frameDuration float64, outputPath string) (string, error) {
	if b.failErr != nil {
		return "", b.failErr
	}
	b.mu.Lock()
	b.outputs = append(b.outputs, outputPath)
	b.mu.Unlock()
	return outputPath, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return testsupport.NewConfig(t, testsupport.WithPipeline(4, 32, 2))
}

func newTestDriver(t *testing.T, cfg *config.Config, prod producer.Producer, pred predictor.Predictor, backend *fakeBackend, store *journal.Store) *Driver {
	t.Helper()
	frames, err := framestore.New(filepath.Join(cfg.Paths.StagingDir, "frames"), "png")
	if err != nil {
		t.Fatalf("frame store: %v", err)
	}
	driver, err := New(Deps{
		Config:    cfg,
		Producer:  prod,
		Predictor: pred,
		Frames:    frames,
		Backend:   backend,
		Journal:   store,
		RunID:     "run-test",
		Tenant:    "acme",
		Video:     "vid42",
	})
	if err != nil {
		t.Fatalf("new driver: %v", err)
	}
	return driver
}

// 49 frames with a 32-entry inference batch: exactly three full batches of
// 16 pairs flush at frames 17, 33, and 49, and nothing is left to drain.
func TestRunBatchCadence(t *testing.T) {
	cfg := testConfig(t)
	pred := &stubPredictor{}
	backend := &fakeBackend{}
	store := testsupport.MustOpenJournal(t, cfg)
	ctx := context.Background()
	if err := store.StartRun(ctx, "run-test", "acme", "vid42", "in.mp4"); err != nil {
		t.Fatalf("start run: %v", err)
	}

	driver := newTestDriver(t, cfg, &sliceProducer{frames: 49}, pred, backend, store)
	if driver.State() != StateIdle {
		t.Fatalf("initial state = %s", driver.State())
	}

	summary, err := driver.Run(ctx)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if driver.State() != StateDone {
		t.Fatalf("final state = %s", driver.State())
	}

	if summary.TotalFrames != 49 || summary.TotalPairs != 48 {
		t.Fatalf("frames=%d pairs=%d, want 49/48", summary.TotalFrames, summary.TotalPairs)
	}
	if len(pred.batches) != 3 {
		t.Fatalf("batches = %v, want exactly 3", pred.batches)
	}
	for i, size := range pred.batches {
		if size != 32 {
			t.Fatalf("batch %d had %d directed pairs, want 32", i, size)
		}
	}

	// Frames 0..48 with 4-frame chunks: one level-16 chunk, two level-4
	// chunks, nine level-1 chunks.
	if summary.ChunksSubmitted != 12 {
		t.Fatalf("chunks submitted = %d, want 12", summary.ChunksSubmitted)
	}
	if summary.ChunksCompleted != 12 || summary.ChunksFailed != 0 {
		t.Fatalf("completed=%d failed=%d", summary.ChunksCompleted, summary.ChunksFailed)
	}
	if summary.LabelHistogram["same"] != 96 {
		t.Fatalf("histogram = %v, want 96 'same'", summary.LabelHistogram)
	}
	if summary.UnclaimedByLevel[modlevel.Level4] != 1 {
		t.Fatalf("unclaimed = %v, want one trailing level-4 frame", summary.UnclaimedByLevel)
	}

	for _, output := range backend.outputs {
		if !filepath.IsAbs(output) {
			t.Fatalf("relative chunk output %q", output)
		}
	}

	run, err := store.GetRun(ctx, "run-test")
	if err != nil || run == nil {
		t.Fatalf("journal run: %v %v", run, err)
	}
	if !run.Finished() || run.TotalFrames != 49 || run.ChunksCompleted != 12 {
		t.Fatalf("journal run not persisted: %+v", run)
	}
	histogram, err := store.LabelHistogram(ctx, "run-test")
	if err != nil {
		t.Fatalf("journal histogram: %v", err)
	}
	if histogram["same"] != 96 {
		t.Fatalf("journal histogram = %v", histogram)
	}
	outcomes, err := store.ChunkOutcomes(ctx, "run-test")
	if err != nil {
		t.Fatalf("journal outcomes: %v", err)
	}
	if len(outcomes) != 12 {
		t.Fatalf("journal recorded %d chunks, want 12", len(outcomes))
	}
}

// A trailing partial batch still gets inferred during the drain.
func TestRunDrainsPartialBatch(t *testing.T) {
	cfg := testConfig(t)
	pred := &stubPredictor{}
	driver := newTestDriver(t, cfg, &sliceProducer{frames: 50}, pred, &fakeBackend{}, nil)

	summary, err := driver.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.TotalPairs != 49 {
		t.Fatalf("pairs = %d, want 49", summary.TotalPairs)
	}
	if len(pred.batches) != 4 {
		t.Fatalf("batches = %v, want 3 full + 1 partial", pred.batches)
	}
	if pred.batches[3] != 2 {
		t.Fatalf("final batch = %d directed pairs, want 2", pred.batches[3])
	}
}

// Encode failures are isolated: every chunk fails yet the run completes.
func TestRunToleratesEncodeFailures(t *testing.T) {
	cfg := testConfig(t)
	backend := &fakeBackend{failErr: errors.New("encoder exited 1")}
	driver := newTestDriver(t, cfg, &sliceProducer{frames: 49}, &stubPredictor{}, backend, nil)

	summary, err := driver.Run(context.Background())
	if err != nil {
		t.Fatalf("Run should tolerate chunk failures, got %v", err)
	}
	if driver.State() != StateDone {
		t.Fatalf("state = %s", driver.State())
	}
	if summary.ChunksFailed != summary.ChunksSubmitted || summary.ChunksFailed != 12 {
		t.Fatalf("failed=%d submitted=%d, want all 12 failed", summary.ChunksFailed, summary.ChunksSubmitted)
	}
	if summary.ChunksCompleted != 0 {
		t.Fatalf("completed = %d, want 0", summary.ChunksCompleted)
	}
}

// Chunks from different levels completing close together each get submitted
// exactly once.
func TestRunSubmitsEachChunkOnce(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithPipeline(2, 32, 2))
	backend := &fakeBackend{}
	driver := newTestDriver(t, cfg, &sliceProducer{frames: 18}, &stubPredictor{}, backend, nil)

	summary, err := driver.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	// Frames 0..17 with 2-frame chunks: one level-16 chunk, one level-4
	// chunk, six level-1 chunks.
	if summary.ChunksSubmitted != 8 {
		t.Fatalf("chunks submitted = %d, want 8", summary.ChunksSubmitted)
	}
	seen := make(map[string]bool)
	for _, output := range backend.outputs {
		if seen[output] {
			t.Fatalf("chunk %q encoded twice", output)
		}
		seen[output] = true
	}
	if len(seen) != 8 {
		t.Fatalf("distinct outputs = %d, want 8", len(seen))
	}
}

func TestRunProducerFailureIsFatal(t *testing.T) {
	cfg := testConfig(t)
	prod := &sliceProducer{frames: 3, failErr: fmt.Errorf("decoder crashed")}
	driver := newTestDriver(t, cfg, prod, &stubPredictor{}, &fakeBackend{}, nil)

	summary, err := driver.Run(context.Background())
	if err == nil {
		t.Fatal("expected fatal error")
	}
	if !services.IsFatal(err) {
		t.Fatalf("error not marked fatal: %v", err)
	}
	if driver.State() != StateDone {
		t.Fatalf("state = %s, the driver must still settle", driver.State())
	}
	if summary == nil || summary.TotalFrames != 3 {
		t.Fatalf("partial summary missing: %+v", summary)
	}
}

func TestRunInferenceFailureIsFatal(t *testing.T) {
	cfg := testConfig(t)
	pred := &stubPredictor{failErr: errors.New("worker died")}
	backend := &fakeBackend{}
	driver := newTestDriver(t, cfg, &sliceProducer{frames: 49}, pred, backend, nil)

	_, err := driver.Run(context.Background())
	if !services.IsFatal(err) {
		t.Fatalf("expected fatal inference error, got %v", err)
	}
	// Chunk readiness depends only on persisted frames: the 18 frames
	// produced before the failing flush complete three level-1 chunks.
	if len(backend.outputs) != 3 {
		t.Fatalf("encoded %d chunks before the failure, want 3", len(backend.outputs))
	}
}

// A run too short to form a pair still accounts for its persisted frame.
func TestRunMarksFramesOnPersist(t *testing.T) {
	cfg := testConfig(t)
	driver := newTestDriver(t, cfg, &sliceProducer{frames: 1}, &stubPredictor{}, &fakeBackend{}, nil)

	summary, err := driver.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.TotalFrames != 1 || summary.TotalPairs != 0 {
		t.Fatalf("frames=%d pairs=%d, want 1/0", summary.TotalFrames, summary.TotalPairs)
	}
	if summary.UnclaimedByLevel[modlevel.Level16] != 1 {
		t.Fatalf("unclaimed = %v, want the lone frame visible at level 16", summary.UnclaimedByLevel)
	}
}

func TestNewValidatesDeps(t *testing.T) {
	cfg := testConfig(t)
	frames, err := framestore.New(filepath.Join(cfg.Paths.StagingDir, "frames"), "png")
	if err != nil {
		t.Fatalf("frame store: %v", err)
	}
	deps := Deps{
		Config:    cfg,
		Producer:  &sliceProducer{},
		Predictor: &stubPredictor{},
		Frames:    frames,
		Backend:   &fakeBackend{},
	}

	if _, err := New(deps); err != nil {
		t.Fatalf("valid deps rejected: %v", err)
	}

	broken := deps
	broken.Producer = nil
	if _, err := New(broken); err == nil {
		t.Fatal("expected error for missing producer")
	}
	broken = deps
	broken.Config = nil
	if _, err := New(broken); err == nil {
		t.Fatal("expected error for missing config")
	}
}
