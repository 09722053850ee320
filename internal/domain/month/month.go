// Package month turns date-like cells into English month names.
package month

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Unknown is returned for values that cannot be read as a date.
const Unknown = "Unknown"

var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"01/02/06",
	"1/2/06",
	"01-02-2006",
	"1-2-2006",
	// excelize renders date cells with built-in format 14 (mm-dd-yy).
	"01-02-06",
	"1-2-06",
	// Format 22 (m/d/yy h:mm) for cells that carry a time of day.
	"1/2/06 15:04",
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"2 January 2006",
	"2 Jan 2006",
	"January 2006",
	"Jan 2006",
	"2006-01",
	time.RFC1123,
	time.RFC1123Z,
}

// Extractor reads dates in a fixed location so results do not depend on the
// host time zone.
type Extractor struct {
	loc *time.Location
}

// Option applies a configuration option to the Extractor.
type Option func(*Extractor)

// WithLocation pins month extraction to loc.
func WithLocation(loc *time.Location) Option {
	return func(e *Extractor) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// NewExtractor creates an Extractor pinned to UTC unless configured otherwise.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{loc: time.UTC}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Location returns the pinned location.
func (e *Extractor) Location() *time.Location { return e.loc }

// Extract returns the full month name of v, or Unknown. Numbers are read as
// Unix milliseconds; bare month names pass through capitalized.
func (e *Extractor) Extract(v any) string {
	switch t := v.(type) {
	case nil:
		return Unknown
	case time.Time:
		return t.In(e.loc).Month().String()
	case float64:
		return e.fromMillis(int64(t))
	case int:
		return e.fromMillis(int64(t))
	case int64:
		return e.fromMillis(t)
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return e.fromMillis(n)
		}
		return Unknown
	case string:
		return e.fromString(t)
	}
	return Unknown
}

func (e *Extractor) fromMillis(ms int64) string {
	return time.UnixMilli(ms).In(e.loc).Month().String()
}

func (e *Extractor) fromString(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return Unknown
	}
	if m, ok := monthName(s); ok {
		return m
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, e.loc); err == nil {
			return t.In(e.loc).Month().String()
		}
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return e.fromMillis(ms)
	}
	return Unknown
}

func monthName(s string) (string, bool) {
	l := strings.ToLower(s)
	for m := time.January; m <= time.December; m++ {
		name := strings.ToLower(m.String())
		if l == name || l == name[:3] {
			return m.String(), true
		}
	}
	return "", false
}
