package pipeline

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrEmptyRecords is returned when there is nothing to score.
	ErrEmptyRecords = errors.New("data array is empty")
	// ErrInvalidScale wraps a caller-supplied scale that failed validation.
	ErrInvalidScale = errors.New("invalid scale")
)
