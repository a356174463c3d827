package pipeline

import (
	"sync"
	"time"
)

// Collector accumulates per-stage wall-clock windows during a run. The
// production window spans the first to the last produced frame; the
// inference window spans the first batch start to the last batch end. The
// encode window comes from the pool's stats and is not tracked here.
type Collector struct {
	mu sync.Mutex

	frames          int64
	firstFrame      time.Time
	lastFrame       time.Time
	pairs           int64
	firstInference  time.Time
	lastInference   time.Time
	chunksSubmitted int
}

// FrameProduced records one produced frame.
func (c *Collector) FrameProduced() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	if c.frames == 0 {
		c.firstFrame = now
	}
	c.frames++
	c.lastFrame = now
}

// BatchInferred records one completed inference batch of n pairs that
// started at the given time.
func (c *Collector) BatchInferred(start time.Time, n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pairs == 0 {
		c.firstInference = start
	}
	c.pairs += int64(n)
	c.lastInference = time.Now()
}

// ChunkSubmitted records one chunk handed to the encode pool.
func (c *Collector) ChunkSubmitted() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.chunksSubmitted++
}

// Windows reports the accumulated counters and stage windows.
func (c *Collector) Windows() (frames, pairs int64, submitted int, productionWall, inferenceWall time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.frames > 0 {
		productionWall = c.lastFrame.Sub(c.firstFrame)
	}
	if c.pairs > 0 {
		inferenceWall = c.lastInference.Sub(c.firstInference)
	}
	return c.frames, c.pairs, c.chunksSubmitted, productionWall, inferenceWall
}

// rate converts a count over a wall-clock window into a per-second rate.
// A zero window with a non-zero count reports the count itself rather than
// infinity; sub-resolution runs happen in tests.
func rate(count int64, wall time.Duration) float64 {
	if count == 0 {
		return 0
	}
	if wall <= 0 {
		return float64(count)
	}
	return float64(count) / wall.Seconds()
}
