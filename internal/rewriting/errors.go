// Package rewriting rewrites and ranks resume bullets through a text-generation service
// and provides the deterministic fallbacks used when the service misbehaves.
package rewriting

import "fmt"

// GenerationServiceError represents a failed, empty or malformed reply from the generation service.
// Callers treat it as retryable.
type GenerationServiceError struct {
	Message string
	Cause   error
}

func (e *GenerationServiceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("generation service error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("generation service error: %s", e.Message)
}

func (e *GenerationServiceError) Unwrap() error {
	return e.Cause
}
