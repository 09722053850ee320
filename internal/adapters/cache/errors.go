package cache

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrUnknownKind = errors.New("unknown location cache kind")
	ErrOpenCache   = errors.New("open location cache failed")
)
