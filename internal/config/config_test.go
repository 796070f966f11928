package config_test

import (
	"context"
	"runtime"
	"testing"

	"github.com/okian/presage/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.EventQueueSize, convey.ShouldEqual, 100_000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU()*4)
			convey.So(cfg.SessionShards, convey.ShouldEqual, 16)
			convey.So(cfg.Enabled, convey.ShouldBeTrue)
			convey.So(cfg.Mode, convey.ShouldEqual, "balanced")
			convey.So(cfg.HistorySize, convey.ShouldEqual, 20)
			convey.So(cfg.PredictionHorizonMS, convey.ShouldEqual, 100)
			convey.So(cfg.MaxPreloadedAnimations, convey.ShouldEqual, 8)
		})
	})
}
