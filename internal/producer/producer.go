package producer

import (
	"context"
	"errors"
)

// ErrEndOfStream signals that the source video is exhausted. It is the
// normal termination of a producer, not a failure.
var ErrEndOfStream = errors.New("end of stream")

// Frame is one produced frame: its index in the output sequence and the
// encoded image bytes.
type Frame struct {
	Index  int64
	Pixels []byte
}

// Producer delivers frames in strictly increasing index order starting at 0.
// Next blocks until a frame is available, the stream ends (ErrEndOfStream),
// or ctx is cancelled.
type Producer interface {
	Next(ctx context.Context) (Frame, error)
}
