package scoring_test

import (
	"testing"

	"github.com/okian/isp/internal/domain/record"
	"github.com/okian/isp/internal/domain/scoring"
	"github.com/okian/isp/internal/rubric"
	. "github.com/smartystreets/goconvey/convey"
)

func applicant(kv ...any) *record.Mapped {
	m := record.NewMapped(len(kv) / 2)
	for i := 0; i < len(kv); i += 2 {
		m.Set(kv[i].(string), kv[i+1])
	}
	return m
}

func TestScorer(t *testing.T) {
	schema, err := rubric.Default()
	if err != nil {
		t.Fatal(err)
	}

	Convey("Given a scorer on the default scale", t, func() {
		scorer := scoring.NewScorer(schema.DefaultScale)

		Convey("When every dimension is present", func() {
			out := scorer.Score(applicant(
				"location", "DistrictOfColumbia",
				"need_level", "High Need",
				"paid_internship", "Paid",
				"internship_type", "In-Person",
			))

			Convey("Then the score is the sum of the four contributions", func() {
				So(out.Breakdown, ShouldResemble, record.Breakdown{
					"location": 5, "need_level": 4, "paid_internship": 4, "internship_type": 5,
				})
				So(out.Score, ShouldEqual, 18.0)
			})
		})

		Convey("When fields are null or missing", func() {
			out := scorer.Score(applicant("location", nil, "need_level", "Low Need"))

			Convey("Then they add no breakdown entry", func() {
				So(out.Breakdown, ShouldResemble, record.Breakdown{"need_level": 2})
				So(out.Score, ShouldEqual, 2.0)
			})
		})

		Convey("When values are unknown", func() {
			out := scorer.Score(applicant("location", "Atlantis", "paid_internship", "stipend", "internship_type", "remote-ish"))

			Convey("Then they score zero but are still itemized", func() {
				So(out.Breakdown, ShouldResemble, record.Breakdown{
					"location": 0, "paid_internship": 0, "internship_type": 0,
				})
				So(out.Score, ShouldEqual, 0.0)
			})
		})

		Convey("When the location is a DC spelling that slipped through", func() {
			out := scorer.Score(applicant("location", "Washington, D.C."))
			So(out.Breakdown["location"], ShouldEqual, 5.0)
		})

		Convey("When a month field is present", func() {
			in := applicant("month", "2025-06-02", "need_level", "No Need")
			out := scorer.Score(in)

			Convey("Then it is replaced by the month name on the output only", func() {
				v, _ := out.Get("month")
				So(v, ShouldEqual, "June")
				orig, _ := in.Get("month")
				So(orig, ShouldEqual, "2025-06-02")
			})
		})
	})

	Convey("Given a retiered scale", t, func() {
		scale := schema.DefaultScale.Clone()
		So(scale.MoveState("Texas", rubric.Tier3, 5), ShouldBeNil)
		scorer := scoring.NewScorer(scale)

		out := scorer.Score(applicant("location", "Texas"))
		So(out.Score, ShouldEqual, 5.0)
	})
}
