// Package server provides the HTTP API for fitting resumes onto one page.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/jonathan/onepage/internal/fitting"
	"github.com/jonathan/onepage/internal/ingestion"
	"github.com/jonathan/onepage/internal/types"
)

// ErrRunNotFound indicates a run ID with no stored run
type ErrRunNotFound struct {
	RunID uuid.UUID
}

func (e *ErrRunNotFound) Error() string {
	return fmt.Sprintf("run not found: %s", e.RunID)
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrBusy indicates every fit slot is taken
type ErrBusy struct {
	Limit int
}

func (e *ErrBusy) Error() string {
	return fmt.Sprintf("server busy: %d fits already running", e.Limit)
}

// ErrStorageDisabled indicates a request that needs the database on a server without one
type ErrStorageDisabled struct{}

func (e *ErrStorageDisabled) Error() string {
	return "run storage is not configured"
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		notFound   *ErrRunNotFound
		validation *ErrValidation
		busy       *ErrBusy
		disabled   *ErrStorageDisabled
		extraction *ingestion.ExtractionError
		invalid    *types.InvalidModelError
	)
	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &busy):
		return http.StatusServiceUnavailable
	case errors.As(err, &disabled):
		return http.StatusNotImplemented
	case errors.As(err, &extraction), errors.As(err, &invalid):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, fitting.ErrNoAcceptedCandidate):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
