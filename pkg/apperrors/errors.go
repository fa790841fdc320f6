package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
	ErrNoFallback   = errors.New("no fallback query matches the question")
)

// GenerationFailure reports that no executable SQL could be produced for a question.
// Reason is safe to show to end users; Cause keeps the underlying error for logs.
type GenerationFailure struct {
	Reason string
	Cause  error
}

func (e *GenerationFailure) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("sql generation failed: %s: %v", e.Reason, e.Cause)
	}
	return "sql generation failed: " + e.Reason
}

func (e *GenerationFailure) Unwrap() error {
	return e.Cause
}

// NewGenerationFailure creates a GenerationFailure.
func NewGenerationFailure(reason string, cause error) *GenerationFailure {
	return &GenerationFailure{Reason: reason, Cause: cause}
}

// ExecutionFailure reports a driver-level error while running SQL.
// Message has already been sanitized and may be relayed to end users.
type ExecutionFailure struct {
	SQL     string
	Message string
	Cause   error
}

func (e *ExecutionFailure) Error() string {
	return "query execution failed: " + e.Message
}

func (e *ExecutionFailure) Unwrap() error {
	return e.Cause
}

// IsGenerationFailure reports whether err is or wraps a GenerationFailure.
func IsGenerationFailure(err error) bool {
	var gf *GenerationFailure
	return errors.As(err, &gf)
}

// IsExecutionFailure reports whether err is or wraps an ExecutionFailure.
func IsExecutionFailure(err error) bool {
	var ef *ExecutionFailure
	return errors.As(err, &ef)
}
