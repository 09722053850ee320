// Package hours buckets free-text weekly hours into coarse categories.
package hours

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/okian/isp/internal/domain/record"
)

// Buckets.
const (
	UnderThirty = "Less than 30 Hours"
	ThirtyPlus  = "30+ Hours"
	Unknown     = "Unknown"
)

const threshold = 30

type rule struct {
	phrases []string
	bucket  string
}

// rules are checked top to bottom; the first phrase hit wins.
var rules = []rule{
	{[]string{"less than 30", "under 30", "< 30", "0-29"}, UnderThirty},
	{[]string{"30+", "30 or more", "30 and above", "30+ hours", "30 hours", "30 hrs", "30"}, ThirtyPlus},
	{[]string{"20-29", "20 to 29", "20-30"}, UnderThirty},
	{[]string{"40+", "40 hours", "40 hrs", "full time"}, ThirtyPlus},
	{[]string{"part time", "part-time", "10-20", "15-25"}, UnderThirty},
}

var firstNumber = regexp.MustCompile(`\d+`)

// Classify maps an hours cell to UnderThirty, ThirtyPlus or Unknown. Empty
// cells, numeric zero and false are Unknown.
func Classify(v any) string {
	if zero(v) {
		return Unknown
	}
	s, ok := record.Text(v)
	if !ok {
		return Unknown
	}
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "null" || s == "undefined" {
		return Unknown
	}

	for _, r := range rules {
		for _, p := range r.phrases {
			if strings.Contains(s, p) {
				return r.bucket
			}
		}
	}

	n := firstNumber.FindString(s)
	if n == "" {
		return Unknown
	}
	h, err := strconv.Atoi(n)
	if err != nil {
		// Too many digits for an int is still a lot of hours.
		return ThirtyPlus
	}
	if h >= threshold {
		return ThirtyPlus
	}
	return UnderThirty
}

func zero(v any) bool {
	switch n := v.(type) {
	case bool:
		return !n
	case int:
		return n == 0
	case int64:
		return n == 0
	case float64:
		return n == 0
	case json.Number:
		f, err := n.Float64()
		return err == nil && f == 0
	}
	return false
}

// Apply replaces the hours field of every record with its bucket. Records
// without the field get Unknown so the column is always present.
func Apply(records []*record.Mapped, field string) {
	for _, r := range records {
		v, _ := r.Get(field)
		r.Set(field, Classify(v))
	}
}
