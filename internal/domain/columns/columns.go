// Package columns maps raw roster rows onto the rubric's canonical fields.
package columns

import (
	"strings"

	"github.com/okian/isp/internal/domain/record"
	"github.com/okian/isp/internal/rubric"
)

// Map keeps the headers that the schema expects, renames them to canonical
// fields and drops the rest. Headers are collected across every record, so
// a column that only appears in later rows is still mapped. The returned
// column list follows the schema's column order. Missing or blank values
// become explicit nulls.
func Map(records []record.Raw, schema *rubric.Schema) ([]*record.Mapped, []string, error) {
	available := make(map[string]struct{})
	for _, r := range records {
		for k := range r {
			available[rubric.NormalizeHeader(k)] = struct{}{}
		}
	}

	// header -> canonical field, in schema order; first header wins a field.
	type binding struct{ header, field string }
	var plan []binding
	var cols []string
	claimed := make(map[string]struct{})
	for _, h := range schema.Expected() {
		if _, ok := available[h]; !ok {
			continue
		}
		f := schema.Canonical(h)
		plan = append(plan, binding{header: h, field: f})
		if _, ok := claimed[f]; !ok {
			claimed[f] = struct{}{}
			cols = append(cols, f)
		}
	}
	if len(plan) == 0 {
		return nil, nil, ErrNoMatchingColumns
	}

	out := make([]*record.Mapped, 0, len(records))
	for _, r := range records {
		norm := make(map[string]any, len(r))
		for k, v := range r {
			norm[rubric.NormalizeHeader(k)] = v
		}
		m := record.NewMapped(len(cols))
		for _, f := range cols {
			m.Set(f, nil)
		}
		for _, b := range plan {
			if v, _ := m.Get(b.field); v != nil {
				continue
			}
			m.Set(b.field, clean(norm[b.header]))
		}
		out = append(out, m)
	}
	return out, cols, nil
}

func clean(v any) any {
	if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
		return nil
	}
	return v
}
