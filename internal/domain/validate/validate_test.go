package validate_test

import (
	"testing"

	"github.com/okian/isp/internal/domain/record"
	"github.com/okian/isp/internal/domain/validate"
	"github.com/okian/isp/internal/rubric"
	. "github.com/smartystreets/goconvey/convey"
)

func rec(kv ...any) *record.Mapped {
	m := record.NewMapped(len(kv) / 2)
	for i := 0; i < len(kv); i += 2 {
		m.Set(kv[i].(string), kv[i+1])
	}
	return m
}

func TestCheck(t *testing.T) {
	Convey("Given records with some out-of-set values", t, func() {
		records := []*record.Mapped{
			rec("paid_internship", "Paid", "location", "Texas", "email", "a@b.c"),
			rec("paid_internship", " stipend ", "location", "Unknown", "email", "x"),
			rec("paid_internship", "Stipend", "location", "Atlantis", "email", nil),
			rec("paid_internship", "", "location", nil, "email", "y"),
		}
		rules := map[string]rubric.Validation{
			"paid_internship": {ValidValues: []string{"Paid", "Unpaid"}},
			"location":        {ValidValues: []string{"Texas", "Ohio"}},
			"email":           {Any: true},
			"hours":           {ValidValues: []string{"30+ Hours"}},
		}

		issues := validate.Check(records, rules, []string{"email", "paid_internship", "location"})

		Convey("Then distinct invalid values are reported per field in first-seen order", func() {
			So(validate.Warnings(issues), ShouldResemble, []string{
				"Invalid paid_internship values: [stipend]",
				"Invalid location values: [unknown, atlantis]",
			})
		})

		Convey("Then fields outside the given order follow by name", func() {
			issues := validate.Check(records, rules, nil)
			So(validate.Warnings(issues), ShouldResemble, []string{
				"Invalid location values: [unknown, atlantis]",
				"Invalid paid_internship values: [stipend]",
			})
		})

		Convey("Then records are left untouched", func() {
			So(len(records), ShouldEqual, 4)
			v, _ := records[1].Get("paid_internship")
			So(v, ShouldEqual, " stipend ")
		})
	})
}
