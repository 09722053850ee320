// Package validate flags field values that fall outside the rubric's valid
// sets. It never drops or changes records.
package validate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/okian/isp/internal/domain/record"
	"github.com/okian/isp/internal/rubric"
)

// Issue lists the distinct invalid values observed for one field.
type Issue struct {
	Field  string
	Values []string
}

// String renders the issue as a warning line.
func (i Issue) String() string {
	return fmt.Sprintf("Invalid %s values: [%s]", i.Field, strings.Join(i.Values, ", "))
}

// Check compares every configured field present in records against its
// valid values. Comparison is trimmed and case-insensitive; blank and null
// cells are never flagged. Issues follow order; ruled fields missing from
// order come last, sorted by name.
func Check(records []*record.Mapped, rules map[string]rubric.Validation, order []string) []Issue {
	fields := make([]string, 0, len(rules))
	listed := make(map[string]struct{}, len(order))
	for _, f := range order {
		if _, ok := rules[f]; !ok {
			continue
		}
		if _, dup := listed[f]; dup {
			continue
		}
		listed[f] = struct{}{}
		fields = append(fields, f)
	}
	var rest []string
	for f := range rules {
		if _, ok := listed[f]; !ok {
			rest = append(rest, f)
		}
	}
	sort.Strings(rest)
	fields = append(fields, rest...)

	var issues []Issue
	for _, field := range fields {
		rule := rules[field]
		if rule.Any || !present(records, field) {
			continue
		}
		valid := make(map[string]struct{}, len(rule.ValidValues))
		for _, v := range rule.ValidValues {
			valid[normalize(v)] = struct{}{}
		}

		var bad []string
		seen := make(map[string]struct{})
		for _, r := range records {
			s, ok := r.Text(field)
			if !ok {
				continue
			}
			s = normalize(s)
			if _, ok := valid[s]; ok {
				continue
			}
			if _, dup := seen[s]; dup {
				continue
			}
			seen[s] = struct{}{}
			bad = append(bad, s)
		}
		if len(bad) > 0 {
			issues = append(issues, Issue{Field: field, Values: bad})
		}
	}
	return issues
}

// Warnings renders issues as warning lines.
func Warnings(issues []Issue) []string {
	out := make([]string, len(issues))
	for i, is := range issues {
		out[i] = is.String()
	}
	return out
}

func present(records []*record.Mapped, field string) bool {
	for _, r := range records {
		if r.Has(field) {
			return true
		}
	}
	return false
}

func normalize(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
