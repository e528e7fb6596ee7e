package config_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/placar/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.CommandQueueSize, convey.ShouldEqual, 64)
			convey.So(cfg.DedupeSize, convey.ShouldEqual, 1024)
			convey.So(cfg.RosterSource, convey.ShouldEqual, config.RosterStatic)
			convey.So(cfg.SessionIdleTimeout().Minutes(), convey.ShouldEqual, 30)
			convey.So(cfg.RosterTimeout().Seconds(), convey.ShouldEqual, 3)
			convey.So(cfg.MetricsEnabled, convey.ShouldBeTrue)
			convey.So(cfg.MetricsRefreshInterval().Seconds(), convey.ShouldEqual, 10)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then the modality table converts to metadata", func() {
			meta := cfg.Metadata()
			convey.So(meta.Lookup("voleibol").HasSets, convey.ShouldBeTrue)
			convey.So(meta.Lookup("xadrez").HasScore, convey.ShouldBeFalse)
			convey.So(meta.Lookup("unknown").HasScore, convey.ShouldBeFalse)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given invalid settings", t, func() {
		ctx := context.Background()
		cases := []struct {
			name   string
			mutate func(*config.Config)
		}{
			{"empty addr", func(c *config.Config) { c.Addr = "" }},
			{"no queue", func(c *config.Config) { c.CommandQueueSize = 0 }},
			{"no metrics refresh", func(c *config.Config) { c.MetricsRefreshIntervalS = 0 }},
			{"unknown source", func(c *config.Config) { c.RosterSource = "ldap" }},
			{"http without url", func(c *config.Config) { c.RosterSource = config.RosterHTTP }},
			{"sqlite without db", func(c *config.Config) { c.RosterSource = config.RosterSQLite }},
		}
		for _, tc := range cases {
			convey.Convey("Then "+tc.name+" is refused", func() {
				cfg := config.New(ctx)
				tc.mutate(cfg)
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}
	})
}
