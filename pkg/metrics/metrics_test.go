package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a custom registry and options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 10}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then metrics are registered under the namespace", func() {
				So(manager, ShouldNotBeNil)
				manager.recordsScored.Add(2)
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				var names []string
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(strings.Join(names, ","), ShouldContainSubstring, "test_unit_records_scored_total")
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics", t, func() {
		Convey("When recording pipeline metrics", func() {
			before := testutil.ToFloat64(globalManager.recordsScored)
			RecordRecordsScored(3)
			RecordPipelineRun("ok")
			RecordPipelineLatency(12)
			RecordValidationWarning("location")

			Convey("Then counters move", func() {
				So(testutil.ToFloat64(globalManager.recordsScored), ShouldEqual, before+3)
			})
		})

		Convey("When recording classifier and cache metrics", func() {
			hits := testutil.ToFloat64(globalManager.cacheLookups.WithLabelValues("hit"))
			RecordCacheHit()
			RecordCacheMiss()
			RecordClassifierCall("openai", "ok")
			RecordClassifierLatency("openai", 40)
			UpdateCacheEntries(7)

			Convey("Then the hit counter and gauge reflect the calls", func() {
				So(testutil.ToFloat64(globalManager.cacheLookups.WithLabelValues("hit")), ShouldEqual, hits+1)
				So(testutil.ToFloat64(globalManager.cacheEntries), ShouldEqual, 7.0)
			})
		})

		Convey("When recording HTTP, upload and system metrics", func() {
			So(func() {
				RecordHTTPRequest("extract", "POST", "200")
				RecordHTTPRequestDuration("extract", "POST", "200", 5)
				RecordErrorByComponent("api", "client_error")
				RecordErrorByType("client_error", "medium")
				RecordErrorByEndpoint("extract", "POST", "client_error")
				RecordUpload("ok", 2048)
				RecordUpload("rejected", 0)
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(10)
				RecordSystemGCPauseTime(0.5)
			}, ShouldNotPanic)
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}
