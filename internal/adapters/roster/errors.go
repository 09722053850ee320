package roster

import "errors"

var (
	// ErrUnsupportedFormat is returned for file extensions that cannot be parsed.
	ErrUnsupportedFormat = errors.New("unsupported roster format")
	// ErrEmptyRoster is returned when a file has a header but no data rows.
	ErrEmptyRoster = errors.New("roster has no data rows")
	// ErrUnknownYear is returned when no remote source is configured for a year.
	ErrUnknownYear = errors.New("no roster source for year")
)
