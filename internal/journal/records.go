package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"framemill/internal/predictor"
)

// RecordPair persists both directed predictions of one consecutive frame
// pair in a single transaction, so a failure never leaves a lone direction.
func (s *Store) RecordPair(ctx context.Context, runID string, pair predictor.PairResult) error {
	ctx = ensureContext(ctx)
	directions := []struct {
		name       predictor.Direction
		prediction predictor.Prediction
	}{
		{predictor.Forward, pair.Forward},
		{predictor.Backward, pair.Backward},
	}
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin pair transaction: %w", err)
		}
		defer func() { _ = tx.Rollback() }()
		for _, d := range directions {
			p := d.prediction.Probabilities
			_, err := tx.ExecContext(
				ctx,
				`INSERT INTO pairs (
                    run_id, frame1, frame2, direction, label, confidence,
                    p_same, p_different, p_empty_empty, p_empty_valid, p_valid_empty
                ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				runID, pair.Frame1, pair.Frame2, string(d.name),
				d.prediction.Label, d.prediction.Confidence,
				p.Same, p.Different, p.EmptyEmpty, p.EmptyValid, p.ValidEmpty,
			)
			if err != nil {
				return fmt.Errorf("record pair (%d,%d) %s: %w", pair.Frame1, pair.Frame2, d.name, err)
			}
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit pair (%d,%d): %w", pair.Frame1, pair.Frame2, err)
		}
		return nil
	})
}

// RecordChunk persists one encode outcome. A non-empty encodeErr marks the
// chunk failed; its artifact path is stored empty.
func (s *Store) RecordChunk(ctx context.Context, runID string, level int, startFrame int64, artifactPath string, encodeTime time.Duration, encodeErr string) error {
	err := s.execWithRetry(
		ctx,
		`INSERT INTO chunks (run_id, modulo_level, start_frame, artifact_path, encode_ms, error)
         VALUES (?, ?, ?, ?, ?, ?)`,
		runID, level, startFrame,
		nullableString(artifactPath),
		encodeTime.Milliseconds(),
		nullableString(encodeErr),
	)
	if err != nil {
		return fmt.Errorf("record chunk modulo_%d/%d: %w", level, startFrame, err)
	}
	return nil
}

// LabelHistogram counts recorded predictions per label for a run, both
// directions included.
func (s *Store) LabelHistogram(ctx context.Context, runID string) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT label, COUNT(1) FROM pairs WHERE run_id = ? GROUP BY label`, runID)
	if err != nil {
		return nil, fmt.Errorf("label histogram: %w", err)
	}
	defer rows.Close()

	histogram := make(map[string]int64)
	for rows.Next() {
		var (
			label string
			count int64
		)
		if err := rows.Scan(&label, &count); err != nil {
			return nil, fmt.Errorf("scan label count: %w", err)
		}
		histogram[label] = count
	}
	return histogram, rows.Err()
}

// ChunkOutcomes lists a run's encoded chunks ordered by level then start
// frame.
func (s *Store) ChunkOutcomes(ctx context.Context, runID string) ([]ChunkRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT modulo_level, start_frame, artifact_path, encode_ms, error
         FROM chunks WHERE run_id = ? ORDER BY modulo_level DESC, start_frame`, runID)
	if err != nil {
		return nil, fmt.Errorf("chunk outcomes: %w", err)
	}
	defer rows.Close()

	var records []ChunkRecord
	for rows.Next() {
		var (
			rec      ChunkRecord
			artifact sql.NullString
			encodeMS int64
			chunkErr sql.NullString
		)
		if err := rows.Scan(&rec.ModuloLevel, &rec.StartFrame, &artifact, &encodeMS, &chunkErr); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		rec.ArtifactPath = artifact.String
		rec.EncodeTime = time.Duration(encodeMS) * time.Millisecond
		rec.Error = chunkErr.String
		records = append(records, rec)
	}
	return records, rows.Err()
}
