package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"framemill/internal/config"
	"framemill/internal/encodepool"
	"framemill/internal/encoder"
	"framemill/internal/framestore"
	"framemill/internal/journal"
	"framemill/internal/logging"
	"framemill/internal/modlevel"
	"framemill/internal/predictor"
	"framemill/internal/producer"
	"framemill/internal/services"
	"framemill/internal/tracker"
)

// State is the driver's lifecycle phase.
type State int32

const (
	StateIdle State = iota
	StateProducing
	StateDraining
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateProducing:
		return "producing"
	case StateDraining:
		return "draining"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Deps are the collaborators a Driver needs. Journal may be nil; the run
// then leaves no persistent record.
type Deps struct {
	Config    *config.Config
	Logger    *slog.Logger
	Producer  producer.Producer
	Predictor predictor.Predictor
	Frames    *framestore.Store
	Backend   encoder.Backend
	Journal   *journal.Store

	RunID  string
	Tenant string
	Video  string
}

// Driver runs one pipeline execution. A Driver is single-use; construct a
// new one per run.
type Driver struct {
	cfg       *config.Config
	log       *slog.Logger
	producer  producer.Producer
	predictor predictor.Predictor
	frames    *framestore.Store
	backend   encoder.Backend
	journal   *journal.Store

	runID  string
	tenant string
	video  string

	state     atomic.Int32
	metrics   Collector
	tracker   *tracker.Tracker
	histogram map[string]int64

	pending []pendingPair
}

// pendingPair is a produced consecutive pair waiting for its inference
// batch to fill.
type pendingPair struct {
	frame1 int64
	frame2 int64
	path1  string
	path2  string
}

// New validates the dependency set and returns an idle driver.
func New(deps Deps) (*Driver, error) {
	switch {
	case deps.Config == nil:
		return nil, errors.New("pipeline: config required")
	case deps.Producer == nil:
		return nil, errors.New("pipeline: producer required")
	case deps.Predictor == nil:
		return nil, errors.New("pipeline: predictor required")
	case deps.Frames == nil:
		return nil, errors.New("pipeline: frame store required")
	case deps.Backend == nil:
		return nil, errors.New("pipeline: encode backend required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Driver{
		cfg:       deps.Config,
		log:       logging.NewComponentLogger(logger, "pipeline"),
		producer:  deps.Producer,
		predictor: deps.Predictor,
		frames:    deps.Frames,
		backend:   deps.Backend,
		journal:   deps.Journal,
		runID:     deps.RunID,
		tenant:    deps.Tenant,
		video:     deps.Video,
		tracker:   tracker.New(deps.Config.Pipeline.FramesPerChunk),
		histogram: make(map[string]int64),
	}, nil
}

// State reports the current lifecycle phase.
func (d *Driver) State() State {
	return State(d.state.Load())
}

func (d *Driver) setState(s State) {
	d.state.Store(int32(s))
	d.log.Debug("state transition", logging.Args(logging.String("state", s.String()))...)
}

// Run executes the pipeline to completion. The returned Summary is valid
// even when err is non-nil; it covers whatever work finished before the
// failure. Individual chunk encode failures do not fail the run.
func (d *Driver) Run(ctx context.Context) (*Summary, error) {
	d.setState(StateProducing)
	d.log.Info("run starting", logging.Args(
		logging.String("run_id", d.runID),
		logging.String("tenant", d.tenant),
		logging.String("video", d.video),
		logging.Int("encode_workers", d.cfg.Pipeline.EncodeWorkers),
		logging.Int("pairs_per_batch", d.cfg.PairsPerBatch()),
	)...)

	pool := encodepool.New(ctx, d.backend, d.log, d.cfg.Pipeline.EncodeWorkers, d.cfg.FrameDurationSeconds())

	runErr := d.produce(ctx, pool)

	d.setState(StateDraining)
	if runErr == nil {
		// Trailing pairs that never filled a batch still get inferred.
		runErr = d.flushPending(ctx)
	}

	results := pool.AwaitAll()
	stats := pool.Stats()
	d.recordChunks(ctx, results)

	summary := d.buildSummary(stats)
	d.persistRun(ctx, summary, runErr)
	d.setState(StateDone)

	d.log.Info("run finished", logging.Args(
		logging.String("run_id", d.runID),
		logging.Int64("frames", summary.TotalFrames),
		logging.Int64("pairs", summary.TotalPairs),
		logging.Int("chunks_completed", summary.ChunksCompleted),
		logging.Int("chunks_failed", summary.ChunksFailed),
		logging.Bool("encoding_bottleneck", summary.EncodingBottleneck),
	)...)

	return summary, runErr
}

func (d *Driver) produce(ctx context.Context, pool *encodepool.Pool) error {
	var (
		havePrev  bool
		prevIndex int64
		prevPath  string
	)
	pairsPerBatch := d.cfg.PairsPerBatch()

	for {
		frame, err := d.producer.Next(ctx)
		if errors.Is(err, producer.ErrEndOfStream) {
			return nil
		}
		if err != nil {
			return services.Wrap(services.ErrFatal, "producer", "next", "frame production failed", err)
		}

		path, err := d.frames.Save(frame.Index, frame.Pixels)
		if err != nil {
			return services.Wrap(services.ErrFatal, "producer", "save", "frame persistence failed", err)
		}
		d.metrics.FrameProduced()

		// A persisted frame is immediately chunkable; encoding a completed
		// chunk does not wait for the frame's inference results.
		for _, chunk := range d.tracker.MarkAvailable(frame.Index) {
			if err := d.dispatch(ctx, pool, chunk); err != nil {
				return err
			}
		}

		if havePrev {
			d.pending = append(d.pending, pendingPair{
				frame1: prevIndex,
				frame2: frame.Index,
				path1:  prevPath,
				path2:  path,
			})
			if len(d.pending) >= pairsPerBatch {
				if err := d.flushPending(ctx); err != nil {
					return err
				}
			}
		}
		havePrev, prevIndex, prevPath = true, frame.Index, path
	}
}

// flushPending sends the buffered pairs through inference in both
// directions and folds the labels into the histogram and the journal.
func (d *Driver) flushPending(ctx context.Context) error {
	if len(d.pending) == 0 {
		return nil
	}
	pairs := d.pending
	d.pending = nil

	batch := make([]predictor.FramePair, 0, 2*len(pairs))
	for _, p := range pairs {
		batch = append(batch,
			predictor.FramePair{FirstPath: p.path1, SecondPath: p.path2, Direction: predictor.Forward},
			predictor.FramePair{FirstPath: p.path2, SecondPath: p.path1, Direction: predictor.Backward},
		)
	}

	start := time.Now()
	predictions, err := d.predictor.PredictBatch(ctx, batch)
	if err != nil {
		return services.Wrap(services.ErrFatal, "inference", "predict_batch", "batch inference failed", err)
	}
	if len(predictions) != len(batch) {
		return services.Wrap(services.ErrFatal, "inference", "predict_batch",
			fmt.Sprintf("predictor returned %d results for %d pairs", len(predictions), len(batch)), nil)
	}
	d.metrics.BatchInferred(start, len(pairs))
	d.log.Debug("batch inferred", logging.Args(
		logging.Int("pairs", len(pairs)),
		logging.Duration("elapsed", time.Since(start)),
	)...)

	for i, p := range pairs {
		result := predictor.PairResult{
			Frame1:   p.frame1,
			Frame2:   p.frame2,
			Forward:  predictions[2*i],
			Backward: predictions[2*i+1],
		}
		d.histogram[result.Forward.Label]++
		d.histogram[result.Backward.Label]++
		if d.journal != nil {
			if err := d.journal.RecordPair(ctx, d.runID, result); err != nil {
				d.log.Warn("journal pair record failed", logging.Args(logging.Error(err))...)
			}
		}
	}
	return nil
}

// dispatch submits one completed chunk to the encode pool using the chunk's
// canonical storage key under the staging chunk root.
func (d *Driver) dispatch(ctx context.Context, pool *encodepool.Pool, chunk tracker.Chunk) error {
	key := modlevel.StorageKey(
		d.tenant, d.video,
		d.cfg.Encoding.ChunkType, d.cfg.Encoding.ChunkVersion,
		chunk.ID, d.cfg.Encoding.Format,
	)
	outputPath := filepath.Join(d.cfg.Paths.StagingDir, "chunks", filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return services.Wrap(services.ErrFatal, "encode", "prepare", "chunk directory creation failed", err)
	}

	paths := make([]string, len(chunk.Frames))
	for i, frame := range chunk.Frames {
		paths[i] = d.frames.Path(frame)
	}

	if err := pool.Submit(ctx, encodepool.Task{
		Chunk:      chunk.ID,
		FramePaths: paths,
		OutputPath: outputPath,
	}); err != nil {
		return services.Wrap(services.ErrFatal, "encode", "submit", "chunk submission failed", err)
	}
	d.metrics.ChunkSubmitted()
	d.log.Debug("chunk submitted", logging.Args(
		logging.String("chunk", chunk.ID.String()),
		logging.Int("frames", len(chunk.Frames)),
	)...)
	return nil
}

func (d *Driver) recordChunks(ctx context.Context, results []encodepool.Result) {
	if d.journal == nil {
		return
	}
	for _, res := range results {
		errText := ""
		if res.Err != nil {
			errText = res.Err.Error()
		}
		err := d.journal.RecordChunk(ctx, d.runID,
			int(res.Chunk.Level), res.Chunk.Start,
			res.ArtifactPath, res.Duration, errText)
		if err != nil {
			d.log.Warn("journal chunk record failed", logging.Args(logging.Error(err))...)
		}
	}
}

func (d *Driver) buildSummary(stats encodepool.Stats) *Summary {
	frames, pairs, submitted, productionWall, inferenceWall := d.metrics.Windows()

	var encodeWall time.Duration
	if !stats.FirstSubmit.IsZero() && !stats.LastFinish.IsZero() {
		encodeWall = stats.LastFinish.Sub(stats.FirstSubmit)
	}

	return &Summary{
		RunID:              d.runID,
		Tenant:             d.tenant,
		Video:              d.video,
		TotalFrames:        frames,
		TotalPairs:         pairs,
		ChunksSubmitted:    submitted,
		ChunksCompleted:    stats.Completed - stats.Failed,
		ChunksFailed:       stats.Failed,
		LabelHistogram:     d.histogram,
		ProductionWall:     productionWall,
		InferenceWall:      inferenceWall,
		EncodeWall:         encodeWall,
		ProductionRate:     rate(frames, productionWall),
		InferenceRate:      rate(pairs, inferenceWall),
		EncodeRate:         rate(int64(stats.Completed-stats.Failed), encodeWall),
		EncodingBottleneck: encodingIsBottleneck(productionWall, inferenceWall, encodeWall, submitted),
		UnclaimedByLevel:   d.tracker.UnclaimedByLevel(),
	}
}

func (d *Driver) persistRun(ctx context.Context, summary *Summary, runErr error) {
	if d.journal == nil {
		return
	}
	errText := ""
	if runErr != nil {
		errText = runErr.Error()
	}
	run := &journal.Run{
		ID:                 d.runID,
		TotalFrames:        summary.TotalFrames,
		TotalPairs:         summary.TotalPairs,
		ChunksSubmitted:    int64(summary.ChunksSubmitted),
		ChunksCompleted:    int64(summary.ChunksCompleted),
		ChunksFailed:       int64(summary.ChunksFailed),
		ProductionRate:     summary.ProductionRate,
		InferenceRate:      summary.InferenceRate,
		EncodeRate:         summary.EncodeRate,
		EncodingBottleneck: summary.EncodingBottleneck,
		Error:              errText,
	}
	if err := d.journal.FinishRun(ctx, run); err != nil {
		d.log.Warn("journal run record failed", logging.Args(logging.Error(err))...)
	}
}
