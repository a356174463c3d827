package predictor

import "context"

// Direction distinguishes the two evaluation orders of a consecutive pair.
type Direction string

const (
	Forward  Direction = "forward"
	Backward Direction = "backward"
)

// FramePair is one directed inference input: two frame image paths plus the
// evaluation direction. Pairs are ephemeral; the driver builds them per batch.
type FramePair struct {
	FirstPath  string    `json:"first"`
	SecondPath string    `json:"second"`
	Direction  Direction `json:"direction"`
}

// Probabilities holds the per-class scores of one prediction.
type Probabilities struct {
	Same       float64 `json:"same"`
	Different  float64 `json:"different"`
	EmptyEmpty float64 `json:"empty_empty"`
	EmptyValid float64 `json:"empty_valid"`
	ValidEmpty float64 `json:"valid_empty"`
}

// Prediction is the inference output for one directed pair.
type Prediction struct {
	Label         string        `json:"label"`
	Confidence    float64       `json:"confidence"`
	Probabilities Probabilities `json:"probabilities"`
}

// PairResult combines both directions of one consecutive frame pair. It is
// produced once per pair and never mutated afterwards.
type PairResult struct {
	Frame1   int64
	Frame2   int64
	Forward  Prediction
	Backward Prediction
}

// Predictor evaluates directed frame pairs in batches. Output is positionally
// aligned with input and has the same length.
type Predictor interface {
	PredictBatch(ctx context.Context, pairs []FramePair) ([]Prediction, error)
	Close() error
}
