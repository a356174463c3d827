package journal

import "time"

// Run is one pipeline execution as recorded in the journal.
type Run struct {
	ID                 string
	Tenant             string
	Video              string
	InputPath          string
	StartedAt          time.Time
	FinishedAt         time.Time
	TotalFrames        int64
	TotalPairs         int64
	ChunksSubmitted    int64
	ChunksCompleted    int64
	ChunksFailed       int64
	ProductionRate     float64
	InferenceRate      float64
	EncodeRate         float64
	EncodingBottleneck bool
	Error              string
}

// Finished reports whether the run recorded a completion timestamp.
func (r *Run) Finished() bool { return !r.FinishedAt.IsZero() }

// ChunkRecord is one encode outcome as recorded in the journal.
type ChunkRecord struct {
	ModuloLevel  int
	StartFrame   int64
	ArtifactPath string
	EncodeTime   time.Duration
	Error        string
}
