package encoder

import "context"

// Backend encodes one chunk of ordered frame files into a compressed
// artifact at outputPath. framePaths are ascending by position within the
// chunk; frameDuration is the display time of each frame in seconds. It
// returns the artifact path (normally outputPath) or an error.
type Backend interface {
	Encode(ctx context.Context, framePaths []string, frameDuration float64, outputPath string) (string, error)
}
