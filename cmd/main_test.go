package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	app "github.com/okian/twin/internal/app"
	"github.com/okian/twin/internal/config"
	"github.com/okian/twin/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestMainConfiguration(t *testing.T) {
	convey.Convey("Given environment overrides", t, func() {
		_ = os.Setenv("TWIN_ADDR", "127.0.0.1:0")
		_ = os.Setenv("TWIN_QUEUE_SIZE", "1000")
		_ = os.Setenv("TWIN_WORKER_COUNT", "2")
		defer func() {
			_ = os.Unsetenv("TWIN_ADDR")
			_ = os.Unsetenv("TWIN_QUEUE_SIZE")
			_ = os.Unsetenv("TWIN_WORKER_COUNT")
		}()

		convey.Convey("When configuration is loaded", func() {
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then the service is built from it", func() {
				svc := app.New(serviceOptions(cfg, logger.Get())...)
				stats := svc.GetStats(context.Background())
				convey.So(stats.Workers, convey.ShouldEqual, 2)
				convey.So(stats.MaxHorizonDays, convey.ShouldEqual, cfg.MaxHorizonDays)
			})
		})
	})
}

func TestRouter(t *testing.T) {
	convey.Convey("Given the daemon router", t, func() {
		ctx := context.Background()
		router := newRouter(ctx, app.New())

		for _, path := range []string{"/healthz", "/stats", "/openapi.yaml", "/api-docs"} {
			req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
		}

		req := httptest.NewRequest(http.MethodGet, "/twins/unknown", http.NoBody)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		convey.So(w.Code, convey.ShouldEqual, http.StatusNotFound)
	})
}

func TestRun(t *testing.T) {
	convey.Convey("Given a configuration on an ephemeral port", t, func() {
		cfg := config.New(context.Background())
		cfg.Addr = "127.0.0.1:0"
		cfg.WorkerCount = 2
		cfg.ShutdownTimeout = 2 * time.Second
		cfg.MetricsInterval = 10 * time.Millisecond

		convey.Convey("When the context is cancelled", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			convey.Convey("Then run shuts down cleanly", func() {
				convey.So(run(ctx, cfg), convey.ShouldBeNil)
			})
		})
	})
}

func TestMetricsUpdaters(t *testing.T) {
	convey.Convey("Given the metrics updaters", t, func() {
		svc := app.New()

		convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		convey.So(func() { updateServiceMetrics(context.Background(), svc) }, convey.ShouldNotPanic)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
		defer cancel()
		convey.So(func() {
			startSystemMetricsUpdater(ctx, 5*time.Millisecond)
			startServiceMetricsUpdater(ctx, svc, 5*time.Millisecond)
		}, convey.ShouldNotPanic)
	})
}
