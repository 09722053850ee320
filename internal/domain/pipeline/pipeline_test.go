package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/okian/isp/internal/domain/columns"
	"github.com/okian/isp/internal/domain/location"
	"github.com/okian/isp/internal/domain/pipeline"
	"github.com/okian/isp/internal/domain/record"
	"github.com/okian/isp/internal/rubric"
	"github.com/okian/isp/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

type stateClassifier map[string]string

func (c stateClassifier) Classify(_ context.Context, loc string) (string, error) {
	if v, ok := c[loc]; ok {
		return v, nil
	}
	return "Unknown", nil
}

func TestRun(t *testing.T) {
	if err := logger.Init(); err != nil {
		t.Fatal(err)
	}
	schema, err := rubric.Default()
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	Convey("Given a pipeline with a classifier", t, func() {
		norm := location.NewNormalizer(location.WithClassifier(stateClassifier{
			"Washington, DC": "Washington",
			"Austin, TX":     "Texas",
		}))
		p := pipeline.New(schema, pipeline.WithNormalizer(norm))

		Convey("When the DC applicant from the rubric example is scored", func() {
			res, err := p.Run(ctx, pipeline.Input{Records: []record.Raw{{
				"Internship Location": "Washington, DC",
				"Hours Per Week":      "40 hrs/week",
				"FAFSA Need Level":    "High Need",
				"Paid or Unpaid":      "Paid",
				"Internship Type":     "In-Person",
			}}})

			Convey("Then the record is canonical and scored", func() {
				So(err, ShouldBeNil)
				So(res.TotalRecords, ShouldEqual, 1)
				rec := res.Data[0]
				loc, _ := rec.Get("location")
				hrs, _ := rec.Get("hours")
				So(loc, ShouldEqual, "DistrictOfColumbia")
				So(hrs, ShouldEqual, "30+ Hours")
				So(rec.Breakdown, ShouldResemble, record.Breakdown{
					"location": 5, "need_level": 4, "paid_internship": 4, "internship_type": 5,
				})
				So(rec.Score, ShouldEqual, 18.0)
				So(res.Warnings, ShouldBeEmpty)
				So(res.Columns, ShouldResemble, []string{
					"location", "hours", "need_level", "paid_internship", "internship_type", "score", "score_breakdown",
				})
			})
		})

		Convey("When some values are outside the rubric", func() {
			res, err := p.Run(ctx, pipeline.Input{Records: []record.Raw{
				{"Name": "Ada", "Internship Location": "Austin, TX", "Paid or Unpaid": "Stipend"},
				{"Name": "Bob", "Internship Location": "Moon", "Paid or Unpaid": "Unpaid"},
			}})

			Convey("Then every record is returned with warnings in rubric column order", func() {
				So(err, ShouldBeNil)
				So(res.TotalRecords, ShouldEqual, 2)
				So(res.Warnings, ShouldResemble, []string{
					"Invalid location values: [unknown]",
					"Invalid hours values: [unknown]",
					"Invalid paid_internship values: [stipend]",
				})
				paid, _ := res.Data[0].Get("paid_internship")
				So(paid, ShouldEqual, "Stipend")
			})

			Convey("Then the envelope serializes with the expected keys", func() {
				b, err := json.Marshal(res)
				So(err, ShouldBeNil)
				var env map[string]any
				So(json.Unmarshal(b, &env), ShouldBeNil)
				So(env, ShouldContainKey, "data")
				So(env, ShouldContainKey, "warnings")
				So(env["total_records"], ShouldEqual, float64(2))
				So(env, ShouldContainKey, "columns")
			})
		})

		Convey("When a custom scale is supplied", func() {
			scale := schema.DefaultScale.Clone()
			So(scale.MoveState("Texas", rubric.Tier3, 5), ShouldBeNil)
			res, err := p.Run(ctx, pipeline.Input{
				Records: []record.Raw{{"Internship Location": "Austin, TX"}},
				Scale:   &scale,
			})
			So(err, ShouldBeNil)
			So(res.Data[0].Score, ShouldEqual, 5.0)
		})

		Convey("When the custom scale is invalid", func() {
			scale := schema.DefaultScale.Clone()
			scale.CostOfLiving.Tier1["California"] = 1
			_, err := p.Run(ctx, pipeline.Input{
				Records: []record.Raw{{"Internship Location": "Austin, TX"}},
				Scale:   &scale,
			})
			So(errors.Is(err, pipeline.ErrInvalidScale), ShouldBeTrue)
		})

		Convey("When there are no records", func() {
			_, err := p.Run(ctx, pipeline.Input{})
			So(errors.Is(err, pipeline.ErrEmptyRecords), ShouldBeTrue)
		})

		Convey("When no header matches", func() {
			res, err := p.Run(ctx, pipeline.Input{Records: []record.Raw{{"foo": "bar"}}})
			So(errors.Is(err, columns.ErrNoMatchingColumns), ShouldBeTrue)
			So(res, ShouldBeNil)
		})
	})

	Convey("Given a pipeline without a classifier", t, func() {
		p := pipeline.New(schema)
		res, err := p.Run(ctx, pipeline.Input{Records: []record.Raw{
			{"Internship Location": "D.C.", "Hours Per Week": "part-time"},
		}})

		Convey("Then DC spellings are still canonicalized", func() {
			So(err, ShouldBeNil)
			So(res.Locations.Degraded, ShouldBeTrue)
			loc, _ := res.Data[0].Get("location")
			So(loc, ShouldEqual, "DistrictOfColumbia")
			So(res.Data[0].Score, ShouldEqual, 5.0)
		})
	})
}
