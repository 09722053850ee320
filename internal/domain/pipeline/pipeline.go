// Package pipeline runs the roster scoring stages in order: column mapping,
// location normalization, hours bucketing, validation and scoring.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/isp/internal/domain/columns"
	"github.com/okian/isp/internal/domain/hours"
	"github.com/okian/isp/internal/domain/location"
	"github.com/okian/isp/internal/domain/month"
	"github.com/okian/isp/internal/domain/record"
	"github.com/okian/isp/internal/domain/scoring"
	"github.com/okian/isp/internal/domain/validate"
	"github.com/okian/isp/internal/rubric"
	"github.com/okian/isp/pkg/logger"
)

// Output columns appended after the mapped fields.
const (
	ColumnScore     = "score"
	ColumnBreakdown = "score_breakdown"
)

// Input is one scoring request. A nil Scale selects the rubric default.
type Input struct {
	Records []record.Raw
	Scale   *rubric.Scale
}

// Result is the pipeline envelope returned to callers.
type Result struct {
	Data         []*record.Scored `json:"data"`
	Warnings     []string         `json:"warnings"`
	TotalRecords int              `json:"total_records"`
	Columns      []string         `json:"columns"`

	Issues    []validate.Issue `json:"-"`
	Locations location.Stats   `json:"-"`
}

// Option applies a configuration option to the Pipeline.
type Option func(*Pipeline)

// WithNormalizer sets the location normalizer.
func WithNormalizer(n *location.Normalizer) Option {
	return func(p *Pipeline) {
		if n != nil {
			p.normalizer = n
		}
	}
}

// WithMonthExtractor sets the month extractor handed to each scorer.
func WithMonthExtractor(e *month.Extractor) Option {
	return func(p *Pipeline) {
		if e != nil {
			p.months = e
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.log = l
		}
	}
}

// Pipeline is safe for concurrent use; per-run state lives in Run.
type Pipeline struct {
	schema     *rubric.Schema
	normalizer *location.Normalizer
	months     *month.Extractor
	log        logger.Logger
}

// New creates a Pipeline over schema.
func New(schema *rubric.Schema, opts ...Option) *Pipeline {
	p := &Pipeline{
		schema: schema,
		months: month.NewExtractor(),
		log:    logger.Get().Named("pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.normalizer == nil {
		p.normalizer = location.NewNormalizer(location.WithLogger(p.log))
	}
	return p
}

// Schema returns the rubric the pipeline scores against.
func (p *Pipeline) Schema() *rubric.Schema { return p.schema }

// Run scores in.Records. Fatal input problems are returned before any record
// is processed; out-of-set values only produce warnings.
func (p *Pipeline) Run(ctx context.Context, in Input) (*Result, error) {
	start := time.Now()
	if len(in.Records) == 0 {
		return nil, ErrEmptyRecords
	}

	scale := p.schema.DefaultScale
	if in.Scale != nil {
		if err := in.Scale.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidScale, err)
		}
		scale = *in.Scale
	}

	mapped, cols, err := columns.Map(in.Records, p.schema)
	if err != nil {
		return nil, err
	}

	locStats := p.normalizer.Normalize(ctx, mapped, rubric.FieldLocation)
	hours.Apply(mapped, rubric.FieldHours)
	cols = appendMissing(cols, rubric.FieldHours)

	issues := validate.Check(mapped, p.schema.Validations, p.schema.Fields())

	scorer := scoring.NewScorer(scale, scoring.WithMonthExtractor(p.months))
	data := scorer.ScoreAll(mapped)

	res := &Result{
		Data:         data,
		Warnings:     validate.Warnings(issues),
		TotalRecords: len(data),
		Columns:      append(cols, ColumnScore, ColumnBreakdown),
		Issues:       issues,
		Locations:    locStats,
	}

	p.log.Info(ctx, "roster scored",
		logger.Int("records", res.TotalRecords),
		logger.Int("warnings", len(res.Warnings)),
		logger.Bool("degraded", locStats.Degraded),
		logger.Duration("took", time.Since(start)),
	)
	return res, nil
}

func appendMissing(cols []string, field string) []string {
	for _, c := range cols {
		if c == field {
			return cols
		}
	}
	return append(cols, field)
}
