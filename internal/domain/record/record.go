// Package record defines the record shapes that flow through the scoring
// pipeline: untyped rows, rows keyed by canonical fields, and scored rows.
package record

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Raw is one roster row as uploaded: arbitrary headers to scalar values.
type Raw map[string]any

// Mapped is a row keyed by canonical field names. Keys keep their insertion
// order so output columns are stable. Values may be nil.
type Mapped struct {
	keys   []string
	values map[string]any
}

// NewMapped creates an empty record with capacity for n fields.
func NewMapped(n int) *Mapped {
	return &Mapped{keys: make([]string, 0, n), values: make(map[string]any, n)}
}

// Set stores v under key, appending key when it is new.
func (m *Mapped) Set(key string, v any) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}

// Get returns the value stored under key and whether the key exists.
func (m *Mapped) Get(key string) (any, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Has reports whether key exists, even with a nil value.
func (m *Mapped) Has(key string) bool {
	_, ok := m.values[key]
	return ok
}

// Text returns the value under key as text. It reports false for absent and
// null values.
func (m *Mapped) Text(key string) (string, bool) {
	return Text(m.values[key])
}

// Keys returns the field names in order.
func (m *Mapped) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Clone returns a shallow copy.
func (m *Mapped) Clone() *Mapped {
	c := NewMapped(len(m.keys))
	for _, k := range m.keys {
		c.Set(k, m.values[k])
	}
	return c
}

// Raw converts the record back into an untyped row.
func (m *Mapped) Raw() Raw {
	r := make(Raw, len(m.keys))
	for _, k := range m.keys {
		r[k] = m.values[k]
	}
	return r
}

// MarshalJSON writes the record as an object with keys in insertion order.
func (m *Mapped) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if err := m.writeFields(&buf); err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (m *Mapped) writeFields(buf *bytes.Buffer) error {
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeField(buf, k, m.values[k]); err != nil {
			return err
		}
	}
	return nil
}

func writeField(buf *bytes.Buffer, key string, v any) error {
	kb, err := json.Marshal(key)
	if err != nil {
		return err
	}
	vb, err := json.Marshal(v)
	if err != nil {
		return err
	}
	buf.Write(kb)
	buf.WriteByte(':')
	buf.Write(vb)
	return nil
}

// Breakdown maps a scored dimension to its point contribution.
type Breakdown map[string]float64

// Scored is a mapped record with its total score and breakdown.
type Scored struct {
	*Mapped
	Score     float64
	Breakdown Breakdown
}

// MarshalJSON writes the record fields followed by score and score_breakdown.
func (s *Scored) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if err := s.writeFields(&buf); err != nil {
		return nil, err
	}
	if len(s.keys) > 0 {
		buf.WriteByte(',')
	}
	if err := writeField(&buf, "score", s.Score); err != nil {
		return nil, err
	}
	buf.WriteByte(',')
	breakdown := s.Breakdown
	if breakdown == nil {
		breakdown = Breakdown{}
	}
	if err := writeField(&buf, "score_breakdown", breakdown); err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Text renders a scalar cell as text. Nil and blank strings report false.
func Text(v any) (string, bool) {
	var s string
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		s = t
	case json.Number:
		s = t.String()
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		s = strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		s = strconv.Itoa(t)
	case int64:
		s = strconv.FormatInt(t, 10)
	case bool:
		s = strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return "", false
		}
		s = string(b)
	}
	if strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}
