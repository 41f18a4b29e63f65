package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonathan/onepage/internal/fitting"
	"github.com/jonathan/onepage/internal/types"
)

const runColumns = `id, role, source, status, pressure, state, stop_reason, converged,
		        page_count, score, evaluation, model, error_message, created_at, completed_at`

// CreateRun creates a new fit run record and returns its ID
func (db *DB) CreateRun(ctx context.Context, input *RunInput) (uuid.UUID, error) {
	modelJSON, err := json.Marshal(input.Model)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal input model: %w", err)
	}

	id := uuid.New()
	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO fit_runs (id, role, source, status, input_model)
		 VALUES ($1, $2, $3, $4, $5)`,
		id, input.Role, input.Source, RunStatusRunning, string(modelJSON),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create run: %w", err)
	}
	return id, nil
}

// CompleteRun stores the loop result and marks the run completed
func (db *DB) CompleteRun(ctx context.Context, runID uuid.UUID, res *fitting.Result) error {
	evalJSON, err := json.Marshal(res.Evaluation)
	if err != nil {
		return fmt.Errorf("failed to marshal evaluation: %w", err)
	}
	modelJSON, err := json.Marshal(res.Model)
	if err != nil {
		return fmt.Errorf("failed to marshal model: %w", err)
	}
	reportJSON, err := json.Marshal(res.Report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	result, err := db.conn.ExecContext(ctx,
		`UPDATE fit_runs
		 SET status = $1, pressure = $2, state = $3, stop_reason = $4, converged = $5,
		     page_count = $6, score = $7, evaluation = $8, model = $9, report = $10,
		     latex = $11, pdf = $12, completed_at = NOW()
		 WHERE id = $13`,
		RunStatusCompleted, res.Pressure, res.State, string(res.StopReason), res.Converged,
		res.PageCount, res.Evaluation.Total, string(evalJSON), string(modelJSON), string(reportJSON),
		res.LaTeX, res.PDF, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return expectOneRow(result, runID)
}

// FailRun marks a run failed or cancelled with a message.
func (db *DB) FailRun(ctx context.Context, runID uuid.UUID, status, message string) error {
	if status != RunStatusFailed && status != RunStatusCancelled {
		return fmt.Errorf("invalid terminal status %q", status)
	}
	result, err := db.conn.ExecContext(ctx,
		`UPDATE fit_runs SET status = $1, error_message = $2, completed_at = NOW() WHERE id = $3`,
		status, message, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return expectOneRow(result, runID)
}

// GetRun retrieves a fit run by ID. A missing run returns nil without error.
func (db *DB) GetRun(ctx context.Context, runID uuid.UUID) (*Run, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+runColumns+`
		 FROM fit_runs WHERE id = $1`,
		runID,
	)
	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns retrieves recent fit runs
func (db *DB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+runColumns+`
		 FROM fit_runs ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// GetRunPDF returns the stored PDF of a completed run. A missing run or PDF returns nil.
func (db *DB) GetRunPDF(ctx context.Context, runID uuid.UUID) ([]byte, error) {
	var pdf []byte
	err := db.conn.QueryRowContext(ctx,
		`SELECT pdf FROM fit_runs WHERE id = $1`,
		runID,
	).Scan(&pdf)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run pdf: %w", err)
	}
	return pdf, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	var run Run
	var evalJSON, modelJSON []byte
	if err := s.Scan(&run.ID, &run.Role, &run.Source, &run.Status, &run.Pressure, &run.State,
		&run.StopReason, &run.Converged, &run.PageCount, &run.Score, &evalJSON, &modelJSON,
		&run.ErrorMessage, &run.CreatedAt, &run.CompletedAt); err != nil {
		return nil, err
	}
	if len(evalJSON) > 0 {
		var eval types.EvaluationResult
		if err := json.Unmarshal(evalJSON, &eval); err != nil {
			return nil, fmt.Errorf("failed to decode evaluation: %w", err)
		}
		run.Evaluation = &eval
	}
	if len(modelJSON) > 0 {
		var model types.ContentModel
		if err := json.Unmarshal(modelJSON, &model); err != nil {
			return nil, fmt.Errorf("failed to decode model: %w", err)
		}
		run.Model = &model
	}
	return &run, nil
}

func expectOneRow(result sql.Result, runID uuid.UUID) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("run not found: %s", runID)
	}
	return nil
}
