package repository_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/placar/internal/adapters/repository"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeSession struct {
	id      string
	created time.Time
	touched time.Time

	mu     sync.Mutex
	closed []string
}

func (f *fakeSession) ID() string         { return f.id }
func (f *fakeSession) Created() time.Time { return f.created }
func (f *fakeSession) Touched() time.Time { return f.touched }

func (f *fakeSession) Close(_ context.Context, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = append(f.closed, reason)
	return nil
}

func (f *fakeSession) reasons() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.closed...)
}

func TestMemoryStore(t *testing.T) {
	Convey("Given a store with a fixed clock", t, func() {
		ctx := context.Background()
		base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
		now := base
		s := repository.NewMemoryStore(ctx,
			repository.WithIdleTimeout(10*time.Minute),
			repository.WithMaxAge(time.Hour),
			repository.WithSweepInterval(time.Hour),
			repository.WithClock(func() time.Time { return now }),
		)
		defer s.Close(ctx)

		a := &fakeSession{id: "a", created: base, touched: base}
		b := &fakeSession{id: "b", created: base.Add(time.Second), touched: base.Add(time.Second)}
		So(s.Put(ctx, b), ShouldBeNil)
		So(s.Put(ctx, a), ShouldBeNil)

		Convey("Sessions can be fetched and listed in creation order", func() {
			got, err := s.Get(ctx, "a")
			So(err, ShouldBeNil)
			So(got.ID(), ShouldEqual, "a")
			list := s.List(ctx)
			So(list, ShouldHaveLength, 2)
			So(list[0].ID(), ShouldEqual, "a")
			So(s.Len(ctx), ShouldEqual, 2)
		})

		Convey("A duplicate id is refused", func() {
			So(errors.Is(s.Put(ctx, &fakeSession{id: "a"}), repository.ErrSessionExists), ShouldBeTrue)
		})

		Convey("Unknown ids report not found", func() {
			_, err := s.Get(ctx, "zz")
			So(errors.Is(err, repository.ErrSessionNotFound), ShouldBeTrue)
			So(errors.Is(s.Delete(ctx, "zz"), repository.ErrSessionNotFound), ShouldBeTrue)
		})

		Convey("Delete closes the session", func() {
			So(s.Delete(ctx, "a"), ShouldBeNil)
			So(a.reasons(), ShouldResemble, []string{repository.ReasonDeleted})
			So(s.Len(ctx), ShouldEqual, 1)
		})

		Convey("Sweep expires idle sessions", func() {
			now = base.Add(11 * time.Minute)
			b.touched = base.Add(5 * time.Minute)
			So(s.Sweep(ctx), ShouldEqual, 1)
			So(a.reasons(), ShouldResemble, []string{repository.ReasonIdle})
			So(b.reasons(), ShouldBeEmpty)
		})

		Convey("Sweep expires sessions past their max age even when active", func() {
			now = base.Add(2 * time.Hour)
			a.touched = now
			b.touched = now
			So(s.Sweep(ctx), ShouldEqual, 2)
			So(a.reasons(), ShouldResemble, []string{repository.ReasonMaxAge})
		})

		Convey("Close shuts every remaining session and refuses new ones", func() {
			So(s.Close(ctx), ShouldBeNil)
			So(a.reasons(), ShouldResemble, []string{repository.ReasonShutdown})
			So(b.reasons(), ShouldResemble, []string{repository.ReasonShutdown})
			So(errors.Is(s.Put(ctx, &fakeSession{id: "c"}), repository.ErrStoreClosed), ShouldBeTrue)
		})
	})
}
