package db

import (
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/onepage/internal/types"
)

// RunStatus constants
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
	RunStatusCancelled = "cancelled"
)

// RunInput describes a fit run being started.
type RunInput struct {
	Role   string
	Source string
	Model  types.ContentModel
}

// Run represents a fit run record
type Run struct {
	ID           uuid.UUID               `json:"id"`
	Role         string                  `json:"role"`
	Source       string                  `json:"source,omitempty"`
	Status       string                  `json:"status"`
	Pressure     *float64                `json:"pressure,omitempty"`
	State        *string                 `json:"state,omitempty"`
	StopReason   *string                 `json:"stop_reason,omitempty"`
	Converged    bool                    `json:"converged"`
	PageCount    *int                    `json:"page_count,omitempty"`
	Score        *int                    `json:"score,omitempty"`
	Evaluation   *types.EvaluationResult `json:"evaluation,omitempty"`
	Model        *types.ContentModel     `json:"model,omitempty"`
	ErrorMessage *string                 `json:"error_message,omitempty"`
	CreatedAt    time.Time               `json:"created_at"`
	CompletedAt  *time.Time              `json:"completed_at,omitempty"`
}

// Iteration represents one persisted loop iteration
type Iteration struct {
	RunID        uuid.UUID               `json:"run_id"`
	Iteration    int                     `json:"iteration"`
	Pressure     float64                 `json:"pressure"`
	Level        string                  `json:"level"`
	State        string                  `json:"state"`
	Mode         string                  `json:"mode,omitempty"`
	PageCount    *int                    `json:"page_count,omitempty"`
	Score        *int                    `json:"score,omitempty"`
	Accepted     bool                    `json:"accepted"`
	ErrorMessage *string                 `json:"error_message,omitempty"`
	Fallbacks    []string                `json:"fallbacks,omitempty"`
	Evaluation   *types.EvaluationResult `json:"evaluation,omitempty"`
	DurationMs   int64                   `json:"duration_ms"`
	CreatedAt    time.Time               `json:"created_at"`
}
