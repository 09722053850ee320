package roster_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/isp/internal/adapters/roster"
	"github.com/okian/isp/internal/domain/month"
	"github.com/okian/isp/internal/domain/record"
	"github.com/okian/isp/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/xuri/excelize/v2"
)

func TestParse(t *testing.T) {
	Convey("Given a CSV roster", t, func() {
		doc := "\ufeffName,Internship Location,Hours Per Week\n" +
			"Ada,\"Washington, DC\",40\n" +
			",,\n" +
			"Bob,Austin\n"

		rows, err := roster.Parse("roster.CSV", strings.NewReader(doc))

		Convey("Then rows are keyed by trimmed header", func() {
			So(err, ShouldBeNil)
			So(len(rows), ShouldEqual, 2)
			So(rows[0], ShouldResemble, record.Raw{
				"Name": "Ada", "Internship Location": "Washington, DC", "Hours Per Week": "40",
			})
			So(rows[1], ShouldResemble, record.Raw{"Name": "Bob", "Internship Location": "Austin"})
		})
	})

	Convey("Given a workbook", t, func() {
		f := excelize.NewFile()
		So(f.SetCellValue("Sheet1", "A1", "Name"), ShouldBeNil)
		So(f.SetCellValue("Sheet1", "B1", "Paid or Unpaid"), ShouldBeNil)
		So(f.SetCellValue("Sheet1", "A2", "Ada"), ShouldBeNil)
		So(f.SetCellValue("Sheet1", "B2", "Paid"), ShouldBeNil)
		buf, err := f.WriteToBuffer()
		So(err, ShouldBeNil)

		rows, err := roster.Parse("roster.xlsx", buf)

		Convey("Then the first sheet is read", func() {
			So(err, ShouldBeNil)
			So(rows, ShouldResemble, []record.Raw{{"Name": "Ada", "Paid or Unpaid": "Paid"}})
		})
	})

	Convey("Given a workbook with a real date cell", t, func() {
		f := excelize.NewFile()
		So(f.SetCellValue("Sheet1", "A1", "Name"), ShouldBeNil)
		So(f.SetCellValue("Sheet1", "B1", "Start Date"), ShouldBeNil)
		So(f.SetCellValue("Sheet1", "A2", "Ada"), ShouldBeNil)
		So(f.SetCellValue("Sheet1", "B2", time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC)), ShouldBeNil)
		buf, err := f.WriteToBuffer()
		So(err, ShouldBeNil)

		rows, err := roster.Parse("roster.xlsx", buf)

		Convey("Then the rendered date still yields its month", func() {
			So(err, ShouldBeNil)
			So(len(rows), ShouldEqual, 1)
			So(month.NewExtractor().Extract(rows[0]["Start Date"]), ShouldEqual, "March")
		})
	})

	Convey("Given unsupported or empty files", t, func() {
		_, err := roster.Parse("roster.xls", strings.NewReader(""))
		So(errors.Is(err, roster.ErrUnsupportedFormat), ShouldBeTrue)

		_, err = roster.Parse("roster.csv", strings.NewReader("Name,Email\n"))
		So(errors.Is(err, roster.ErrEmptyRoster), ShouldBeTrue)

		So(roster.Supported("a.xlsm"), ShouldBeTrue)
		So(roster.Supported("a.txt"), ShouldBeFalse)
	})
}

func TestFetcher(t *testing.T) {
	if err := logger.Init(); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	Convey("Given a remote export", t, func() {
		years := make(chan string, 4)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			years <- r.URL.Query().Get("year")
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[{"Name":"Ada","Hours Per Week":40}]`))
		}))
		defer srv.Close()

		f, err := roster.NewFetcher(map[string]string{"2026": srv.URL + "/exec"})
		So(err, ShouldBeNil)
		So(f.Years(), ShouldResemble, []int{2026})

		Convey("When the configured year is fetched", func() {
			rows, err := f.Fetch(ctx, 2026)

			Convey("Then rows are decoded and the year is forwarded", func() {
				So(err, ShouldBeNil)
				So(<-years, ShouldEqual, "2026")
				So(rows[0]["Name"], ShouldEqual, "Ada")
				So(rows[0]["Hours Per Week"], ShouldEqual, 40.0)
			})
		})

		Convey("When an unknown year is fetched", func() {
			_, err := f.Fetch(ctx, 1999)
			So(errors.Is(err, roster.ErrUnknownYear), ShouldBeTrue)
		})
	})

	Convey("Given a failing export", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "boom", http.StatusBadGateway)
		}))
		defer srv.Close()

		f, err := roster.NewFetcher(map[string]string{"2025": srv.URL})
		So(err, ShouldBeNil)
		_, err = f.Fetch(ctx, 2025)
		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldContainSubstring, "502")
	})

	Convey("Given a shared HTTP client and a slow export", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}))
		defer srv.Close()

		shared := &http.Client{}
		f, err := roster.NewFetcher(map[string]string{"2025": srv.URL},
			roster.WithHTTPClient(shared),
			roster.WithFetchTimeout(20*time.Millisecond),
		)
		So(err, ShouldBeNil)

		Convey("Then the timeout bounds the fetch without touching the shared client", func() {
			_, err := f.Fetch(ctx, 2025)
			So(err, ShouldNotBeNil)
			So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
			So(shared.Timeout, ShouldEqual, time.Duration(0))
		})
	})

	Convey("Given wrapped rows", t, func() {
		rows, err := roster.DecodeRows([]byte(` {"data":[{"a":1}]}`))
		So(err, ShouldBeNil)
		So(len(rows), ShouldEqual, 1)

		_, err = roster.NewFetcher(map[string]string{"next": "http://x"})
		So(err, ShouldNotBeNil)
	})
}
