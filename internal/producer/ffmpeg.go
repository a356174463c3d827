package producer

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"framemill/internal/textutil"
)

var commandContext = exec.CommandContext

// pollInterval paces the wait for the next sequence file while ffmpeg runs.
const pollInterval = 25 * time.Millisecond

// FFmpegOptions configure the extractor.
type FFmpegOptions struct {
	Binary    string
	InputPath string
	// Crop is an ffmpeg crop expression "w:h:x:y"; empty disables cropping.
	Crop string
	// RateFPS is the output frame rate.
	RateFPS float64
	// WorkDir receives the extracted image sequence.
	WorkDir string
	// FrameFormat is the image extension (png, jpg, ...).
	FrameFormat string
}

// FFmpeg extracts frames by running ffmpeg into an image sequence and
// streaming the files back in index order.
type FFmpeg struct {
	opts FFmpegOptions

	mu      sync.Mutex
	started bool
	next    int64
	stderr  bytes.Buffer
	done    chan struct{}
	waitErr error
}

// NewFFmpeg constructs the extractor. The process starts on the first Next
// call.
func NewFFmpeg(opts FFmpegOptions) *FFmpeg {
	if opts.Binary == "" {
		opts.Binary = "ffmpeg"
	}
	if opts.FrameFormat == "" {
		opts.FrameFormat = "png"
	}
	return &FFmpeg{opts: opts}
}

// Next returns the next frame of the sequence. A sequence file is treated as
// complete once its successor exists or the extractor process has exited;
// ffmpeg writes files in order, so the successor's appearance proves the
// predecessor is fully flushed.
func (f *FFmpeg) Next(ctx context.Context) (Frame, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.started {
		if err := f.startLocked(ctx); err != nil {
			return Frame{}, err
		}
	}

	current := f.framePath(f.next)
	successor := f.framePath(f.next + 1)
	for {
		exited := f.exited()
		if fileExists(successor) || exited {
			if fileExists(current) {
				pixels, err := os.ReadFile(current)
				if err != nil {
					return Frame{}, fmt.Errorf("read frame %d: %w", f.next, err)
				}
				frame := Frame{Index: f.next, Pixels: pixels}
				f.next++
				return frame, nil
			}
			if exited {
				if f.waitErr != nil {
					return Frame{}, fmt.Errorf("ffmpeg extraction failed: %w: %s", f.waitErr, textutil.Tail(f.stderr.String(), 512))
				}
				return Frame{}, ErrEndOfStream
			}
		}
		select {
		case <-ctx.Done():
			return Frame{}, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

func (f *FFmpeg) startLocked(ctx context.Context) error {
	if f.opts.InputPath == "" {
		return fmt.Errorf("input path required")
	}
	if f.opts.RateFPS <= 0 {
		return fmt.Errorf("output rate must be positive, got %v", f.opts.RateFPS)
	}
	if err := os.MkdirAll(f.opts.WorkDir, 0o755); err != nil {
		return fmt.Errorf("ensure extraction dir: %w", err)
	}

	args := extractArgs(f.opts, f.framePattern())
	cmd := commandContext(ctx, f.opts.Binary, args...) //nolint:gosec
	cmd.Stderr = &f.stderr
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffmpeg: %w", err)
	}

	f.done = make(chan struct{})
	go func() {
		f.waitErr = cmd.Wait()
		close(f.done)
	}()
	f.started = true
	return nil
}

func (f *FFmpeg) exited() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

func (f *FFmpeg) framePattern() string {
	return filepath.Join(f.opts.WorkDir, "frame_%08d."+f.opts.FrameFormat)
}

func (f *FFmpeg) framePath(index int64) string {
	return filepath.Join(f.opts.WorkDir, fmt.Sprintf("frame_%08d.%s", index, f.opts.FrameFormat))
}

// extractArgs builds the ffmpeg invocation for cropped fixed-rate extraction.
func extractArgs(opts FFmpegOptions, pattern string) []string {
	filters := make([]string, 0, 2)
	if opts.Crop != "" {
		filters = append(filters, "crop="+opts.Crop)
	}
	filters = append(filters, "fps="+strconv.FormatFloat(opts.RateFPS, 'f', -1, 64))

	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-i", opts.InputPath,
		"-vf", strings.Join(filters, ","),
		"-start_number", "0",
		pattern,
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

var _ Producer = (*FFmpeg)(nil)
