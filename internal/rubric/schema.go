// Package rubric loads the rubric schema: expected roster columns, their
// canonical names, per-field valid values and the default scoring scale.
package rubric

import "strings"

// Canonical field names produced by the column mapper.
const (
	FieldName           = "applicant_name"
	FieldEmail          = "email"
	FieldLocation       = "location"
	FieldHours          = "hours"
	FieldNeedLevel      = "need_level"
	FieldPaidInternship = "paid_internship"
	FieldInternshipType = "internship_type"
	FieldMonth          = "month"
)

// Column binds a logical field to the raw header expected in uploaded rosters.
type Column struct {
	Field  string `json:"field"  koanf:"field"`
	Header string `json:"header" koanf:"header"`
}

// Validation lists the acceptable values of one canonical field.
// Any disables the check.
type Validation struct {
	Any         bool     `json:"any"`
	ValidValues []string `json:"valid_values,omitempty"`
}

// Schema is the immutable rubric used for one pipeline run.
type Schema struct {
	Columns        []Column              `json:"columns"`
	RenamedColumns map[string]string     `json:"renamed_columns"`
	Validations    map[string]Validation `json:"validations"`
	DefaultScale   Scale                 `json:"default_scale"`
}

// NormalizeHeader lowercases and trims a header for matching.
func NormalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}

// Expected returns the normalized headers the column mapper looks for, in
// column order, followed by any canonical rename target not already listed.
// Listing the targets lets already-canonical records map onto themselves.
func (s *Schema) Expected() []string {
	out := make([]string, 0, len(s.Columns)*2)
	seen := make(map[string]struct{}, len(s.Columns)*2)
	add := func(h string) {
		h = NormalizeHeader(h)
		if h == "" {
			return
		}
		if _, ok := seen[h]; ok {
			return
		}
		seen[h] = struct{}{}
		out = append(out, h)
	}
	for _, c := range s.Columns {
		add(c.Header)
	}
	for _, c := range s.Columns {
		add(s.Canonical(c.Header))
	}
	return out
}

// Fields returns the canonical field of every column in document order.
func (s *Schema) Fields() []string {
	out := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		out[i] = c.Field
	}
	return out
}

// Canonical returns the canonical field for a raw header, or the normalized
// header itself when no rename is configured.
func (s *Schema) Canonical(header string) string {
	h := NormalizeHeader(header)
	if c, ok := s.RenamedColumns[h]; ok && c != "" {
		return c
	}
	return h
}
