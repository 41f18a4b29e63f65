package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/jonathan/onepage/internal/fitting"
	"github.com/jonathan/onepage/internal/ingestion"
	"github.com/jonathan/onepage/internal/types"
)

func TestErrRunNotFound(t *testing.T) {
	runID := uuid.New()
	err := &ErrRunNotFound{RunID: runID}
	assert.Equal(t, "run not found: "+runID.String(), err.Error())
	assert.Equal(t, http.StatusNotFound, HTTPStatus(err))
}

func TestErrValidation(t *testing.T) {
	err := &ErrValidation{Field: "role", Message: "too long"}
	assert.Equal(t, "validation error: role - too long", err.Error())
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(err))
}

func TestErrBusy(t *testing.T) {
	err := &ErrBusy{Limit: 2}
	assert.Equal(t, "server busy: 2 fits already running", err.Error())
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatus(err))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"storage disabled", &ErrStorageDisabled{}, http.StatusNotImplemented},
		{"extraction", &ingestion.ExtractionError{Source: "request", Message: "invalid outline"}, http.StatusUnprocessableEntity},
		{"invalid model", &types.InvalidModelError{Path: "sections", Reason: "empty"}, http.StatusUnprocessableEntity},
		{"wrapped not found", fmt.Errorf("lookup: %w", &ErrRunNotFound{}), http.StatusNotFound},
		{"no candidate", fmt.Errorf("%w: iteration 1: boom", fitting.ErrNoAcceptedCandidate), http.StatusUnprocessableEntity},
		{"deadline", fmt.Errorf("%w: %w", fitting.ErrNoAcceptedCandidate, context.DeadlineExceeded), http.StatusGatewayTimeout},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HTTPStatus(tt.err))
		})
	}
}
