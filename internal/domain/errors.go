package domain

import "errors"

// Common domain errors
var (
	// Request validation errors, rejected before any iteration runs
	ErrValidation    = errors.New("invalid request")
	ErrEmptyTemplate = errors.New("template cannot be empty")
	ErrInvalidFormat = errors.New("unknown output format")

	// Index errors
	ErrRetrieval         = errors.New("retrieval failed")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	ErrNotFound          = errors.New("resource not found")

	// External collaborator errors
	ErrGeneration = errors.New("generation failed")
	ErrEmbedding  = errors.New("embedding failed")
	ErrEvaluation = errors.New("evaluation failed")

	// ErrConvergenceStall indicates query refinement reproduced the previous
	// query verbatim, so further iterations cannot make progress.
	ErrConvergenceStall = errors.New("query refinement stalled")
)

// Error wraps a domain error with additional context
type Error struct {
	Err     error
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewError(err error, message string) *Error {
	return &Error{
		Err:     err,
		Message: message,
	}
}
