package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonathan/onepage/internal/fitting"
	"github.com/jonathan/onepage/internal/types"
)

// SaveIteration upserts one iteration record of a run.
func (db *DB) SaveIteration(ctx context.Context, runID uuid.UUID, rec fitting.IterationRecord) error {
	var fallbacksJSON, evalJSON []byte
	var err error
	if len(rec.Fallbacks) > 0 {
		if fallbacksJSON, err = json.Marshal(rec.Fallbacks); err != nil {
			return fmt.Errorf("failed to marshal fallbacks: %w", err)
		}
	}

	var pages, score *int
	if rec.Evaluation != nil {
		if evalJSON, err = json.Marshal(rec.Evaluation); err != nil {
			return fmt.Errorf("failed to marshal evaluation: %w", err)
		}
		pages, score = &rec.Evaluation.PageCount, &rec.Evaluation.Total
	}

	var errorMsg *string
	if rec.Error != "" {
		errorMsg = &rec.Error
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO fit_iterations (run_id, iteration, pressure, level, state, mode, page_count,
		                             score, accepted, error_message, fallbacks, evaluation, duration_ms)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 ON CONFLICT (run_id, iteration) DO UPDATE
		 SET pressure = EXCLUDED.pressure, level = EXCLUDED.level, state = EXCLUDED.state,
		     mode = EXCLUDED.mode, page_count = EXCLUDED.page_count, score = EXCLUDED.score,
		     accepted = EXCLUDED.accepted, error_message = EXCLUDED.error_message,
		     fallbacks = EXCLUDED.fallbacks, evaluation = EXCLUDED.evaluation,
		     duration_ms = EXCLUDED.duration_ms`,
		runID, rec.Iteration, rec.Pressure, rec.Level.String(), rec.State, string(rec.Mode), pages,
		score, rec.Accepted, errorMsg, nullableJSON(fallbacksJSON), nullableJSON(evalJSON),
		rec.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to save iteration %d: %w", rec.Iteration, err)
	}
	return nil
}

// ListIterations retrieves all iterations of a run in order
func (db *DB) ListIterations(ctx context.Context, runID uuid.UUID) ([]Iteration, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT run_id, iteration, pressure, level, state, mode, page_count, score, accepted,
		        error_message, fallbacks, evaluation, duration_ms, created_at
		 FROM fit_iterations
		 WHERE run_id = $1
		 ORDER BY iteration`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list iterations: %w", err)
	}
	defer rows.Close()

	var iterations []Iteration
	for rows.Next() {
		var it Iteration
		var fallbacksJSON, evalJSON []byte

		if err := rows.Scan(&it.RunID, &it.Iteration, &it.Pressure, &it.Level, &it.State, &it.Mode,
			&it.PageCount, &it.Score, &it.Accepted, &it.ErrorMessage, &fallbacksJSON, &evalJSON,
			&it.DurationMs, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan iteration: %w", err)
		}

		if len(fallbacksJSON) > 0 {
			_ = json.Unmarshal(fallbacksJSON, &it.Fallbacks)
		}
		if len(evalJSON) > 0 {
			var eval types.EvaluationResult
			if err := json.Unmarshal(evalJSON, &eval); err != nil {
				return nil, fmt.Errorf("failed to decode evaluation: %w", err)
			}
			it.Evaluation = &eval
		}

		iterations = append(iterations, it)
	}

	return iterations, rows.Err()
}

func nullableJSON(b []byte) any {
	if b == nil {
		return nil
	}
	return string(b)
}
