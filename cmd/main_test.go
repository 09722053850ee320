package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/isp/internal/adapters/http/api"
	"github.com/okian/isp/internal/adapters/http/swagger"
	app "github.com/okian/isp/internal/app"
	"github.com/okian/isp/internal/config"
	"github.com/okian/isp/pkg/logger"
	"github.com/okian/isp/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/smartystreets/goconvey/convey"
)

func TestMainWiring(t *testing.T) {
	if err := logger.Init(); err != nil {
		t.Fatal(err)
	}

	convey.Convey("Given configuration from the environment", t, func() {
		t.Setenv("ISP_ADDR", ":8181")
		t.Setenv("ISP_UPLOAD_DIR", t.TempDir())
		t.Setenv("ISP_CLASSIFY_BATCH_SIZE", "3")

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		cfg, err := config.Load(ctx)
		convey.So(err, convey.ShouldBeNil)
		convey.So(cfg.Addr, convey.ShouldEqual, ":8181")
		convey.So(cfg.ClassifyBatchSize, convey.ShouldEqual, 3)

		convey.Convey("When the service and routes are assembled", func() {
			svc := app.New(app.WithConfig(cfg))
			convey.So(svc.Start(ctx), convey.ShouldBeNil)
			defer svc.Stop()

			mux := http.NewServeMux()
			swagger.Register(ctx, mux)
			api.NewServer(svc, svc,
				api.WithAllowOrigin(cfg.CORSAllowOrigin),
				api.WithMaxUploadBytes(cfg.MaxUploadBytes),
			).Register(ctx, mux)

			convey.Convey("Then health, docs and scoring routes answer", func() {
				for _, path := range []string{"/healthz", "/api-docs", "/openapi.yaml", "/api/scale/default"} {
					rec := httptest.NewRecorder()
					mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
					convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
				}
			})

			convey.Convey("Then the service metrics updater can poll it", func() {
				convey.So(func() { updateServiceMetrics(svc) }, convey.ShouldNotPanic)
			})
		})
	})

	convey.Convey("Given an empty listen address", t, func() {
		t.Setenv("ISP_ADDR", "")

		convey.Convey("Then configuration loading fails", func() {
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})
	})
}

func TestMetricsUpdaters(t *testing.T) {
	convey.Convey("Given the background metrics updaters", t, func() {
		convey.Convey("Then the system updater returns when its context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()
			convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
		})

		convey.Convey("Then a system update does not panic", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})

		convey.Convey("Then a manager can use its own registry", func() {
			manager := metrics.NewManager(metrics.WithPrometheusRegistry(prometheus.NewRegistry()))
			convey.So(manager, convey.ShouldNotBeNil)
		})
	})
}
