package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/standings/internal/config"
	"github.com/okian/standings/internal/domain/ranking"
	"github.com/okian/standings/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func TestNewService(t *testing.T) {
	convey.Convey("Given the default configuration", t, func() {
		cfg := config.New()

		convey.Convey("When building the service", func() {
			svc, err := newService(cfg, logger.Nop())

			convey.Convey("Then it should carry the configured defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(svc, convey.ShouldNotBeNil)
				stats := svc.GetStats()
				convey.So(stats["policy"], convey.ShouldEqual, ranking.DefaultConvergence().String())
				convey.So(stats["workerCount"], convey.ShouldEqual, cfg.WorkerCount)
			})
		})

		convey.Convey("When the policy is unknown", func() {
			cfg.Policy = "forever"
			_, err := newService(cfg, logger.Nop())

			convey.Convey("Then the service should not be built", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When the damping is out of range", func() {
			cfg.Damping = 1.5
			_, err := newService(cfg, logger.Nop())

			convey.Convey("Then the invalid configuration should be reported", func() {
				convey.So(errors.Is(err, ranking.ErrInvalidConfiguration), convey.ShouldBeTrue)
			})
		})
	})
}

func TestNewMux(t *testing.T) {
	convey.Convey("Given a started service behind the mux", t, func() {
		cfg := config.New()
		svc, err := newService(cfg, logger.Nop())
		convey.So(err, convey.ShouldBeNil)
		ctx := context.Background()
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		mux := newMux(ctx, svc, cfg)

		for _, path := range []string{"/healthz", "/metrics", "/stats", "/openapi.yaml", "/api-docs"} {
			req := httptest.NewRequest(http.MethodGet, path, nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
		}
	})
}

func TestMetricsUpdaters(t *testing.T) {
	convey.Convey("Given the metrics updaters", t, func() {
		svc, err := newService(config.New(), logger.Nop())
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("When the context ends they should return", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()

			convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
			convey.So(func() { startServiceMetricsUpdater(ctx, svc) }, convey.ShouldNotPanic)
		})

		convey.Convey("When updating once", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
			convey.So(func() { updateServiceMetrics(svc) }, convey.ShouldNotPanic)
		})
	})
}
