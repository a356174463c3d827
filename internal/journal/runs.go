package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const runColumns = `id, tenant, video, input_path, started_at, finished_at,
    total_frames, total_pairs, chunks_submitted, chunks_completed, chunks_failed,
    production_rate, inference_rate, encode_rate, encoding_bottleneck, error`

// StartRun inserts a new run record with its start timestamp.
func (s *Store) StartRun(ctx context.Context, id, tenant, video, inputPath string) error {
	return s.execWithRetry(
		ctx,
		`INSERT INTO runs (id, tenant, video, input_path, started_at) VALUES (?, ?, ?, ?, ?)`,
		id, tenant, video, inputPath,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
}

// FinishRun records the run's final counters. An empty runErr marks success.
func (s *Store) FinishRun(ctx context.Context, run *Run) error {
	if run == nil {
		return errors.New("run is nil")
	}
	return s.execWithRetry(
		ctx,
		`UPDATE runs SET
            finished_at = ?, total_frames = ?, total_pairs = ?,
            chunks_submitted = ?, chunks_completed = ?, chunks_failed = ?,
            production_rate = ?, inference_rate = ?, encode_rate = ?,
            encoding_bottleneck = ?, error = ?
        WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano),
		run.TotalFrames,
		run.TotalPairs,
		run.ChunksSubmitted,
		run.ChunksCompleted,
		run.ChunksFailed,
		run.ProductionRate,
		run.InferenceRate,
		run.EncodeRate,
		boolToInt(run.EncodingBottleneck),
		nullableString(run.Error),
		run.ID,
	)
}

// GetRun fetches a run by identifier. Returns nil when none exists.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// LatestRun returns the most recently started run, or nil when the journal
// is empty.
func (s *Store) LatestRun(ctx context.Context) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY started_at DESC LIMIT 1`)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest run: %w", err)
	}
	return run, nil
}

// ListRuns returns runs newest first, capped at limit.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		run        Run
		startedAt  string
		finishedAt sql.NullString
		bottleneck int
		runErr     sql.NullString
	)
	err := row.Scan(
		&run.ID, &run.Tenant, &run.Video, &run.InputPath,
		&startedAt, &finishedAt,
		&run.TotalFrames, &run.TotalPairs,
		&run.ChunksSubmitted, &run.ChunksCompleted, &run.ChunksFailed,
		&run.ProductionRate, &run.InferenceRate, &run.EncodeRate,
		&bottleneck, &runErr,
	)
	if err != nil {
		return nil, err
	}
	run.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}
	if finishedAt.Valid {
		run.FinishedAt, err = time.Parse(time.RFC3339Nano, finishedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse finished_at: %w", err)
		}
	}
	run.EncodingBottleneck = bottleneck != 0
	run.Error = runErr.String
	return &run, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
