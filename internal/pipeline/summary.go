package pipeline

import (
	"time"

	"framemill/internal/modlevel"
)

// bottleneckFactor is how much longer the encode window must run than the
// slower of production and inference before encoding is flagged as the
// bottleneck.
const bottleneckFactor = 1.5

// Summary is the final accounting of one run.
type Summary struct {
	RunID  string
	Tenant string
	Video  string

	TotalFrames     int64
	TotalPairs      int64
	ChunksSubmitted int
	ChunksCompleted int
	ChunksFailed    int

	// LabelHistogram counts predictions per label across both directions
	// of every pair.
	LabelHistogram map[string]int64

	ProductionWall time.Duration
	InferenceWall  time.Duration
	EncodeWall     time.Duration

	ProductionRate float64
	InferenceRate  float64
	EncodeRate     float64

	EncodingBottleneck bool

	// UnclaimedByLevel counts available frames per level that never formed
	// a complete chunk, trailing partials included.
	UnclaimedByLevel map[modlevel.Level]int
}

// encodingIsBottleneck applies the flag rule: the encode window must exceed
// the slower of the other two stages by bottleneckFactor, and at least one
// chunk must have been encoded.
func encodingIsBottleneck(productionWall, inferenceWall, encodeWall time.Duration, submitted int) bool {
	if submitted == 0 {
		return false
	}
	slowest := productionWall
	if inferenceWall > slowest {
		slowest = inferenceWall
	}
	return float64(encodeWall) > bottleneckFactor*float64(slowest)
}
