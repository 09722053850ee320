// Package scoring computes an applicant's rubric score from canonical fields.
package scoring

import (
	"github.com/okian/isp/internal/domain/location"
	"github.com/okian/isp/internal/domain/month"
	"github.com/okian/isp/internal/domain/record"
	"github.com/okian/isp/internal/rubric"
)

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithMonthExtractor sets the extractor used to rewrite the month field.
func WithMonthExtractor(e *month.Extractor) Option {
	return func(s *Scorer) {
		if e != nil {
			s.months = e
		}
	}
}

// Scorer adds the four sub-scale contributions of a record.
type Scorer struct {
	scale  rubric.Scale
	months *month.Extractor
}

// NewScorer creates a scorer for scale. The scale is copied.
func NewScorer(scale rubric.Scale, opts ...Option) *Scorer {
	s := &Scorer{
		scale:  scale.Clone(),
		months: month.NewExtractor(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score returns a copy of rec with score and breakdown. A dimension whose
// field is absent or null contributes nothing and has no breakdown entry;
// an unmatched value contributes 0. A present month field is replaced by
// its month name.
func (s *Scorer) Score(rec *record.Mapped) *record.Scored {
	out := &record.Scored{Mapped: rec.Clone(), Breakdown: record.Breakdown{}}

	if v, ok := rec.Text(rubric.FieldNeedLevel); ok {
		var p float64
		if n, known := rubric.ParseNeedLevel(v); known {
			p = s.scale.Need(n)
		}
		out.Breakdown[rubric.FieldNeedLevel] = p
	}

	if v, ok := rec.Text(rubric.FieldPaidInternship); ok {
		var p float64
		if ps, known := rubric.ParsePaidStatus(v); known {
			p = s.scale.PaidPoints(ps)
		}
		out.Breakdown[rubric.FieldPaidInternship] = p
	}

	if v, ok := rec.Text(rubric.FieldInternshipType); ok {
		var p float64
		if t, known := rubric.ParseInternshipType(v); known {
			p = s.scale.TypePoints(t)
		}
		out.Breakdown[rubric.FieldInternshipType] = p
	}

	if v, ok := rec.Text(rubric.FieldLocation); ok {
		out.Breakdown[rubric.FieldLocation] = s.locationPoints(v)
	}

	for _, p := range out.Breakdown {
		out.Score += p
	}

	if v, ok := rec.Get(rubric.FieldMonth); ok && v != nil {
		out.Set(rubric.FieldMonth, s.months.Extract(v))
	}
	return out
}

// ScoreAll scores records in order.
func (s *Scorer) ScoreAll(records []*record.Mapped) []*record.Scored {
	out := make([]*record.Scored, len(records))
	for i, r := range records {
		out[i] = s.Score(r)
	}
	return out
}

func (s *Scorer) locationPoints(v string) float64 {
	state := location.Canonicalize(v)
	if _, p, ok := s.scale.TierOf(state); ok {
		return p
	}
	if location.LooksLikeDC(v) {
		if _, p, ok := s.scale.TierOf(location.DistrictOfColumbia); ok {
			return p
		}
	}
	return 0
}
