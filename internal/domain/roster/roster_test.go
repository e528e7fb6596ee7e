package roster_test

import (
	"testing"

	"github.com/okian/placar/internal/domain/roster"
	. "github.com/smartystreets/goconvey/convey"
)

func TestKeep(t *testing.T) {
	Convey("Given a reloaded team list", t, func() {
		teams := []roster.Team{{ID: "1", Label: "Lions"}, {ID: "2", Label: "Tigers"}}

		Convey("A selection still offered is kept", func() {
			So(roster.Keep(teams, "2"), ShouldEqual, "2")
		})

		Convey("A selection no longer offered is cleared", func() {
			So(roster.Keep(teams, "9"), ShouldEqual, "")
		})

		Convey("An empty list clears every selection", func() {
			So(roster.Keep(nil, "1"), ShouldEqual, "")
		})
	})
}

func TestTracker(t *testing.T) {
	Convey("Given two overlapping roster requests", t, func() {
		var tr roster.Tracker
		first := tr.Begin("A")
		second := tr.Begin("B")

		Convey("Only the latest one is current", func() {
			So(first, ShouldNotEqual, second)
			So(tr.Current("A", first), ShouldBeFalse)
			So(tr.Current("B", second), ShouldBeTrue)
			So(tr.Current("A", second), ShouldBeFalse)
			So(tr.Current("B", ""), ShouldBeFalse)
		})
	})
}
