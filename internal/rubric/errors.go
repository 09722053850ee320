package rubric

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrConfig reports a missing or malformed rubric document.
	ErrConfig = errors.New("failed to load rubric config")
	// ErrInvalidScale reports a scoring scale that violates its constraints.
	ErrInvalidScale = errors.New("invalid scoring scale")
	// ErrUnknownTier reports a tier outside 1..3.
	ErrUnknownTier = errors.New("unknown cost of living tier")
)
