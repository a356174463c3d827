package encodepool

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"framemill/internal/encoder"
	"framemill/internal/logging"
	"framemill/internal/modlevel"
)

// Task is one chunk encode request. FramePaths are ascending by position
// within the chunk (not by absolute frame index; level 4 and level 1 chunks
// skip indices).
type Task struct {
	Chunk      modlevel.ChunkID
	FramePaths []string
	OutputPath string
}

// Result records the outcome of one submitted task.
type Result struct {
	Chunk        modlevel.ChunkID
	ArtifactPath string
	Duration     time.Duration
	Err          error
}

// Stats summarizes pool activity for the metrics collector.
type Stats struct {
	Submitted   int
	Completed   int
	Failed      int
	FirstSubmit time.Time
	LastFinish  time.Time
}

// ErrClosed is returned by Submit after AwaitAll sealed the queue.
var ErrClosed = errors.New("encode pool closed")

// Pool is a bounded group of encode workers.
type Pool struct {
	backend       encoder.Backend
	logger        *slog.Logger
	frameDuration float64
	ctx           context.Context

	tasks chan Task
	wg    sync.WaitGroup

	// sending counts Submit calls admitted before the seal; AwaitAll must
	// not close the task channel while any of them may still be sending.
	sending sync.WaitGroup

	mu        sync.Mutex
	results   []Result
	stats     Stats
	closed    bool
	awaitOnce sync.Once
}

// New starts a pool with the given number of workers. The task queue is
// bounded at twice the worker count, so Submit applies backpressure to the
// producer when encoding falls behind. ctx cancellation aborts in-flight
// backend invocations; AwaitAll still returns a result per submitted task.
func New(ctx context.Context, backend encoder.Backend, logger *slog.Logger, workers int, frameDuration float64) *Pool {
	if workers < 1 {
		workers = 1
	}
	if ctx == nil {
		ctx = context.Background()
	}
	p := &Pool{
		backend:       backend,
		logger:        logging.NewComponentLogger(logger, "encodepool"),
		frameDuration: frameDuration,
		ctx:           ctx,
		tasks:         make(chan Task, workers*2),
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker(i)
	}
	return p
}

// Submit enqueues a chunk for encoding. It blocks while the queue is full
// and fails with the context error if the caller is cancelled first. Once
// AwaitAll has sealed the queue, Submit returns ErrClosed.
func (p *Pool) Submit(ctx context.Context, task Task) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	p.sending.Add(1)
	p.stats.Submitted++
	if p.stats.FirstSubmit.IsZero() {
		p.stats.FirstSubmit = time.Now()
	}
	p.mu.Unlock()
	defer p.sending.Done()

	select {
	case p.tasks <- task:
		return nil
	case <-ctx.Done():
		p.mu.Lock()
		p.stats.Submitted--
		p.mu.Unlock()
		return ctx.Err()
	}
}

// AwaitAll seals the task queue, waits for every admitted Submit and every
// submitted task to finish, and returns all results. Subsequent calls return
// the same completed set without re-running any task.
func (p *Pool) AwaitAll() []Result {
	p.awaitOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()
		// Submits admitted before the seal may still be parked on a full
		// queue; the workers keep draining until they hand over.
		p.sending.Wait()
		close(p.tasks)
		p.wg.Wait()
	})

	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Result, len(p.results))
	copy(out, p.results)
	return out
}

// Stats returns a snapshot of pool counters and the encode wall-clock window.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	for task := range p.tasks {
		p.run(id, task)
	}
}

func (p *Pool) run(worker int, task Task) {
	// Paths are zero-padded, so lexical order is chunk position order. Sorting
	// here keeps the backend contract honest even for hand-built tasks.
	paths := make([]string, len(task.FramePaths))
	copy(paths, task.FramePaths)
	sort.Strings(paths)

	started := time.Now()
	artifact, err := p.backend.Encode(p.ctx, paths, p.frameDuration, task.OutputPath)
	elapsed := time.Since(started)

	result := Result{Chunk: task.Chunk, ArtifactPath: artifact, Duration: elapsed, Err: err}

	p.mu.Lock()
	p.results = append(p.results, result)
	p.stats.Completed++
	if err != nil {
		p.stats.Failed++
	}
	now := time.Now()
	if now.After(p.stats.LastFinish) {
		p.stats.LastFinish = now
	}
	p.mu.Unlock()

	if err != nil {
		p.logger.Error("chunk encode failed",
			logging.String("chunk", task.Chunk.String()),
			logging.Int("worker", worker),
			logging.Duration("elapsed", elapsed),
			logging.Error(err),
		)
		return
	}
	p.logger.Info("chunk encoded",
		logging.String("chunk", task.Chunk.String()),
		logging.String("artifact", artifact),
		logging.Int("frames", len(paths)),
		logging.Int("worker", worker),
		logging.Duration("elapsed", elapsed),
	)
}
