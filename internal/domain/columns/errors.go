package columns

import "errors"

// ErrNoMatchingColumns is returned when no roster header matches the rubric.
var ErrNoMatchingColumns = errors.New("no matching columns found between data and config")
