package provider_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/placar/internal/adapters/provider"
	"github.com/okian/placar/internal/config"
	"github.com/okian/placar/internal/domain/roster"
	"github.com/okian/placar/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestStatic(t *testing.T) {
	Convey("Given a static roster", t, func() {
		p := provider.NewStatic(map[string][]roster.Team{"1": {{ID: "a", Label: "A"}}})

		Convey("Known championships return their teams", func() {
			teams, err := p.Teams(context.Background(), "1")
			So(err, ShouldBeNil)
			So(teams, ShouldResemble, []roster.Team{{ID: "a", Label: "A"}})
		})

		Convey("Unknown championships return nothing", func() {
			teams, err := p.Teams(context.Background(), "2")
			So(err, ShouldBeNil)
			So(teams, ShouldBeEmpty)
		})
	})
}

func TestHTTP(t *testing.T) {
	Convey("Given an HTTP roster endpoint", t, func() {
		var query atomic.Value
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			query.Store(r.URL.Query().Get("championship_id"))
			switch r.URL.Query().Get("championship_id") {
			case "broken":
				http.Error(w, "boom", http.StatusBadGateway)
			default:
				_, _ = w.Write([]byte(`[{"id": 7, "text": "Lions"}, {"id": "8", "text": "Tigers"}]`))
			}
		}))
		defer srv.Close()
		p := provider.NewHTTP(provider.HTTPConfig{URL: srv.URL, Timeout: time.Second})

		Convey("When the endpoint answers", func() {
			teams, err := p.Teams(context.Background(), "42")

			Convey("Then numeric and string ids are both accepted", func() {
				So(err, ShouldBeNil)
				So(query.Load(), ShouldEqual, "42")
				So(teams, ShouldResemble, []roster.Team{{ID: "7", Label: "Lions"}, {ID: "8", Label: "Tigers"}})
			})
		})

		Convey("When the endpoint fails", func() {
			_, err := p.Teams(context.Background(), "broken")
			So(errors.Is(err, provider.ErrUpstream), ShouldBeTrue)
		})
	})
}

func TestSQLite(t *testing.T) {
	Convey("Given an in-memory SQLite roster", t, func() {
		ctx := context.Background()
		db, err := provider.OpenSQLite(ctx, ":memory:")
		So(err, ShouldBeNil)
		defer db.Close()

		Convey("When a roster is upserted twice", func() {
			So(db.Upsert(ctx, "9", []roster.Team{{ID: "x", Label: "Xavantes"}, {ID: "a", Label: "Aguias"}}), ShouldBeNil)
			So(db.Upsert(ctx, "9", []roster.Team{{ID: "b", Label: "Bandeirantes"}, {ID: "x", Label: "Xavantes"}}), ShouldBeNil)

			Convey("Then the latest list is returned in its order", func() {
				teams, err := db.Teams(ctx, "9")
				So(err, ShouldBeNil)
				So(teams, ShouldResemble, []roster.Team{{ID: "b", Label: "Bandeirantes"}, {ID: "x", Label: "Xavantes"}})

				other, err := db.Teams(ctx, "10")
				So(err, ShouldBeNil)
				So(other, ShouldBeEmpty)
			})
		})
	})
}

func TestRetrying(t *testing.T) {
	Convey("Given a flaky provider", t, func() {
		var calls atomic.Int32
		flaky := roster.ProviderFunc(func(context.Context, string) ([]roster.Team, error) {
			if calls.Add(1) < 3 {
				return nil, errors.New("temporary")
			}
			return []roster.Team{{ID: "1"}}, nil
		})

		Convey("When retried enough times", func() {
			p := provider.NewRetrying(flaky, logger.Nop(), 3, time.Millisecond)
			teams, err := p.Teams(context.Background(), "c")
			So(err, ShouldBeNil)
			So(teams, ShouldHaveLength, 1)
			So(calls.Load(), ShouldEqual, 3)
		})

		Convey("When attempts run out", func() {
			p := provider.NewRetrying(flaky, logger.Nop(), 2, time.Millisecond)
			_, err := p.Teams(context.Background(), "c")
			So(err, ShouldNotBeNil)
			So(calls.Load(), ShouldEqual, 2)
		})

		Convey("When the context is cancelled during backoff", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			p := provider.NewRetrying(flaky, logger.Nop(), 5, time.Hour)
			_, err := p.Teams(ctx, "c")
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}

func TestFromConfig(t *testing.T) {
	Convey("Given configuration", t, func() {
		ctx := context.Background()
		cfg := config.New(ctx)
		cfg.Rosters = map[string][]config.TeamConfig{"1": {{ID: "a", Label: "A"}}}

		Convey("The static source serves the configured rosters", func() {
			p, closeFn, err := provider.FromConfig(ctx, cfg, logger.Nop())
			So(err, ShouldBeNil)
			defer closeFn()
			teams, err := p.Teams(ctx, "1")
			So(err, ShouldBeNil)
			So(teams, ShouldHaveLength, 1)

			Convey("And an empty championship never fetches", func() {
				teams, err := p.Teams(ctx, "")
				So(err, ShouldBeNil)
				So(teams, ShouldBeEmpty)
			})
		})

		Convey("The sqlite source is seeded from the static table", func() {
			cfg.RosterSource = config.RosterSQLite
			cfg.RosterDSN = ":memory:"
			p, closeFn, err := provider.FromConfig(ctx, cfg, logger.Nop())
			So(err, ShouldBeNil)
			defer closeFn()
			teams, err := p.Teams(ctx, "1")
			So(err, ShouldBeNil)
			So(teams, ShouldResemble, []roster.Team{{ID: "a", Label: "A"}})
		})

		Convey("Unknown sources are refused", func() {
			cfg.RosterSource = "ldap"
			_, _, err := provider.FromConfig(ctx, cfg, logger.Nop())
			So(errors.Is(err, provider.ErrUnknownSource), ShouldBeTrue)
		})
	})
}
