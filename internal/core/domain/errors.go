package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrValidation indicates malformed or invalid input.
	ErrValidation = errors.New("validation error")

	// ErrNotFound indicates a requested document or chunk does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition indicates an illegal document status change.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrVersionOutOfRange indicates a summary version index outside the history.
	// It is also a validation error.
	ErrVersionOutOfRange = fmt.Errorf("%w: version out of range", ErrValidation)

	// ErrProvider indicates an embedding provider failure or timeout.
	ErrProvider = errors.New("provider error")

	// ErrGeneration indicates the summary/answer generator failed or timed out.
	ErrGeneration = errors.New("generation error")

	// ErrEmptyCorpus indicates a question was asked with no ready documents in scope.
	ErrEmptyCorpus = errors.New("empty corpus")

	// ErrStore indicates a vector or document store backend failure.
	ErrStore = errors.New("store error")

	// Parser Errors.

	// ErrUnsupportedFormat indicates no parser handles the declared format.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrCorruptInput indicates the raw bytes could not be parsed.
	ErrCorruptInput = errors.New("corrupt input")
)

// TransitionError describes a rejected status change.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid transition: %s -> %s", e.From, e.To)
}

// Unwrap allows errors.Is(err, ErrInvalidTransition).
func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}
