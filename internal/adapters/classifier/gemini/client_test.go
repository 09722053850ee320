package gemini_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/isp/internal/adapters/classifier/gemini"
	. "github.com/smartystreets/goconvey/convey"
)

func TestClient(t *testing.T) {
	Convey("Given a fake Gemini endpoint", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			if !strings.Contains(r.URL.Path, "generateContent") {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"California\n"}]}}]}`))
		}))
		defer srv.Close()

		c, err := gemini.NewClient(context.Background(), "key", "", srv.URL)
		So(err, ShouldBeNil)
		So(c.Model(), ShouldEqual, gemini.DefaultModel)

		Convey("When a location is classified", func() {
			got, err := c.Classify(context.Background(), "Los Angeles, CA")

			Convey("Then the candidate text is returned", func() {
				So(err, ShouldBeNil)
				So(got, ShouldEqual, "California")
			})
		})
	})

	Convey("Given no API key", t, func() {
		_, err := gemini.NewClient(context.Background(), "", "", "")
		So(errors.Is(err, gemini.ErrMissingAPIKey), ShouldBeTrue)
	})
}
