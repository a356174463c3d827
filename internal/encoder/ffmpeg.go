package encoder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"framemill/internal/textutil"
)

var commandContext = exec.CommandContext

// Option configures the ffmpeg backend.
type Option func(*FFmpeg)

// WithBinary overrides the default ffmpeg binary name.
func WithBinary(binary string) Option {
	return func(f *FFmpeg) {
		if binary != "" {
			f.binary = binary
		}
	}
}

// FFmpeg encodes chunks with the ffmpeg concat demuxer.
type FFmpeg struct {
	binary string
}

// NewFFmpeg constructs an ffmpeg backend using defaults.
func NewFFmpeg(opts ...Option) *FFmpeg {
	f := &FFmpeg{binary: "ffmpeg"}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Encode writes a concat script for the chunk's frames and invokes ffmpeg.
func (f *FFmpeg) Encode(ctx context.Context, framePaths []string, frameDuration float64, outputPath string) (string, error) {
	if len(framePaths) == 0 {
		return "", errors.New("no frames to encode")
	}
	if frameDuration <= 0 {
		return "", fmt.Errorf("frame duration must be positive, got %v", frameDuration)
	}
	outputPath = strings.TrimSpace(outputPath)
	if outputPath == "" {
		return "", errors.New("output path required")
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return "", fmt.Errorf("ensure output directory: %w", err)
	}

	script, err := os.CreateTemp(filepath.Dir(outputPath), "concat-*.ffconcat")
	if err != nil {
		return "", fmt.Errorf("create concat script: %w", err)
	}
	scriptPath := script.Name()
	defer os.Remove(scriptPath)

	if _, err := script.WriteString(concatScript(framePaths, frameDuration)); err != nil {
		script.Close()
		return "", fmt.Errorf("write concat script: %w", err)
	}
	if err := script.Close(); err != nil {
		return "", fmt.Errorf("close concat script: %w", err)
	}

	args := encodeArgs(scriptPath, outputPath)
	cmd := commandContext(ctx, f.binary, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		// A partial artifact is worse than none; downstream addresses chunks
		// by key and would fetch the truncated file.
		_ = os.Remove(outputPath)
		return "", fmt.Errorf("ffmpeg encode failed: %w: %s", err, textutil.Tail(stderr.String(), 512))
	}
	return outputPath, nil
}

// concatScript renders an ffconcat listing with a fixed duration per frame.
func concatScript(framePaths []string, frameDuration float64) string {
	var b strings.Builder
	b.WriteString("ffconcat version 1.0\n")
	duration := strconv.FormatFloat(frameDuration, 'f', -1, 64)
	for _, path := range framePaths {
		b.WriteString("file '")
		b.WriteString(strings.ReplaceAll(path, "'", `'\''`))
		b.WriteString("'\nduration ")
		b.WriteString(duration)
		b.WriteByte('\n')
	}
	// The concat demuxer drops the last duration directive without a trailing
	// entry, so repeat the final frame.
	last := framePaths[len(framePaths)-1]
	b.WriteString("file '")
	b.WriteString(strings.ReplaceAll(last, "'", `'\''`))
	b.WriteString("'\n")
	return b.String()
}

func encodeArgs(scriptPath, outputPath string) []string {
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", scriptPath,
		"-c:v", "libvpx-vp9",
		"-pix_fmt", "yuv420p",
		"-an",
		outputPath,
	}
}

var _ Backend = (*FFmpeg)(nil)
