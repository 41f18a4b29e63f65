// Package transform applies a compression plan to a content model.
package transform

import "fmt"

// TransformationError reports that a plan would leave the model structurally invalid.
type TransformationError struct {
	Message string
	Path    string
	Cause   error
}

func (e *TransformationError) Error() string {
	msg := e.Message
	if e.Path != "" {
		msg = fmt.Sprintf("%s at %s", e.Message, e.Path)
	}
	if e.Cause != nil {
		return fmt.Sprintf("transformation error: %s: %v", msg, e.Cause)
	}
	return fmt.Sprintf("transformation error: %s", msg)
}

func (e *TransformationError) Unwrap() error {
	return e.Cause
}
