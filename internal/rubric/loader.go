package rubric

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Headers may carry dots ("D.O.B."), so the koanf path delimiter must not be ".".
const keyDelim = "::"

const anyValue = "any"

//go:embed rubric.yaml
var defaultDocument []byte

// document mirrors the YAML layout; validations are decoded by hand because
// each entry is either a list or the string "any".
type document struct {
	Columns        []Column          `koanf:"columns"`
	RenamedColumns map[string]string `koanf:"renamed_columns"`
	Validations    map[string]any    `koanf:"validations"`
	DefaultScale   Scale             `koanf:"default_scale"`
}

// Load reads the rubric document at path. An empty path selects the
// embedded default rubric. Any failure is reported as ErrConfig.
func Load(_ context.Context, path string) (*Schema, error) {
	if path == "" {
		return Default()
	}
	k := koanf.New(keyDelim)
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrConfig, path, err)
	}
	return decode(k)
}

// Default returns the embedded rubric.
func Default() (*Schema, error) {
	return Parse(defaultDocument)
}

// Parse decodes a rubric document held in memory.
func Parse(doc []byte) (*Schema, error) {
	k := koanf.New(keyDelim)
	if err := k.Load(rawBytes(doc), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	return decode(k)
}

func decode(k *koanf.Koanf) (*Schema, error) {
	var doc document
	if err := k.UnmarshalWithConf("", &doc, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	if len(doc.Columns) == 0 {
		return nil, fmt.Errorf("%w: no columns defined", ErrConfig)
	}

	s := &Schema{
		Columns:        make([]Column, 0, len(doc.Columns)),
		RenamedColumns: make(map[string]string, len(doc.RenamedColumns)+len(doc.Columns)),
		Validations:    make(map[string]Validation, len(doc.Validations)),
		DefaultScale:   doc.DefaultScale,
	}
	for h, c := range doc.RenamedColumns {
		s.RenamedColumns[NormalizeHeader(h)] = strings.TrimSpace(c)
	}
	for i, c := range doc.Columns {
		c.Field = strings.TrimSpace(c.Field)
		c.Header = strings.TrimSpace(c.Header)
		if c.Field == "" || c.Header == "" {
			return nil, fmt.Errorf("%w: column %d needs both field and header", ErrConfig, i)
		}
		// A column without an explicit rename maps to its field.
		if _, ok := s.RenamedColumns[NormalizeHeader(c.Header)]; !ok {
			s.RenamedColumns[NormalizeHeader(c.Header)] = c.Field
		}
		s.Columns = append(s.Columns, c)
	}

	for field, raw := range doc.Validations {
		v, err := parseValidation(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: validations.%s: %w", ErrConfig, field, err)
		}
		s.Validations[field] = v
	}

	if err := s.DefaultScale.Validate(); err != nil {
		return nil, fmt.Errorf("%w: default_scale: %w", ErrConfig, err)
	}
	return s, nil
}

func parseValidation(raw any) (Validation, error) {
	// Both `field: any` and `field: {valid_values: ...}` are accepted.
	if m, ok := raw.(map[string]any); ok {
		raw = m["valid_values"]
	}
	switch v := raw.(type) {
	case string:
		if strings.EqualFold(strings.TrimSpace(v), anyValue) {
			return Validation{Any: true}, nil
		}
		return Validation{ValidValues: []string{v}}, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, fmt.Sprint(item))
		}
		return Validation{ValidValues: out}, nil
	case nil:
		return Validation{}, errors.New("missing valid values")
	}
	return Validation{}, fmt.Errorf("unsupported valid values type %T", raw)
}

// rawBytes is a koanf.Provider over an in-memory document.
type rawBytes []byte

func (r rawBytes) ReadBytes() ([]byte, error) { return r, nil }

func (r rawBytes) Read() (map[string]any, error) {
	return nil, errors.New("rubric: raw bytes provider does not support Read")
}
