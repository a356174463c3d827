package predictor

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
)

var commandContext = exec.CommandContext

// requests and responses are one JSON document per line.
type batchRequest struct {
	Pairs []FramePair `json:"pairs"`
}

type batchResponse struct {
	Predictions []Prediction `json:"predictions"`
	Error       string       `json:"error,omitempty"`
}

// Subprocess runs an external inference worker and exchanges JSON lines with
// it. The process is started on first use and reused for every batch.
type Subprocess struct {
	command string
	args    []string

	mu      sync.Mutex
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	scanner *bufio.Scanner
	started bool
}

// NewSubprocess constructs a subprocess predictor for the given command.
func NewSubprocess(command string, args ...string) *Subprocess {
	return &Subprocess{command: command, args: args}
}

// PredictBatch sends one batch to the worker and reads the aligned response.
// Requests are serialized; the worker sees one batch at a time.
func (s *Subprocess) PredictBatch(ctx context.Context, pairs []FramePair) ([]Prediction, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.startLocked(ctx); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(batchRequest{Pairs: pairs})
	if err != nil {
		return nil, fmt.Errorf("marshal batch request: %w", err)
	}
	payload = append(payload, '\n')
	if _, err := s.stdin.Write(payload); err != nil {
		return nil, fmt.Errorf("write batch to predictor: %w", err)
	}

	if !s.scanner.Scan() {
		if err := s.scanner.Err(); err != nil {
			return nil, fmt.Errorf("read predictor response: %w", err)
		}
		return nil, errors.New("predictor closed its output stream")
	}

	var resp batchResponse
	if err := json.Unmarshal(s.scanner.Bytes(), &resp); err != nil {
		return nil, fmt.Errorf("decode predictor response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("predictor reported: %s", resp.Error)
	}
	if len(resp.Predictions) != len(pairs) {
		return nil, fmt.Errorf("predictor returned %d predictions for %d pairs", len(resp.Predictions), len(pairs))
	}
	return resp.Predictions, nil
}

// Close terminates the worker process.
func (s *Subprocess) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return nil
	}
	s.started = false
	if s.stdin != nil {
		_ = s.stdin.Close()
	}
	if s.cmd != nil && s.cmd.Process != nil {
		return s.cmd.Wait()
	}
	return nil
}

func (s *Subprocess) startLocked(ctx context.Context) error {
	if s.started {
		return nil
	}
	if s.command == "" {
		return errors.New("predictor command not configured")
	}

	cmd := commandContext(ctx, s.command, s.args...) //nolint:gosec
	cmd.Stderr = os.Stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start predictor %q: %w", s.command, err)
	}

	scanner := bufio.NewScanner(stdout)
	// Batches of dozens of pairs with five probabilities each can exceed the
	// default token size.
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)

	s.cmd = cmd
	s.stdin = stdin
	s.scanner = scanner
	s.started = true
	return nil
}

var _ Predictor = (*Subprocess)(nil)
