package lifecycle_test

import (
	"testing"

	"github.com/okian/placar/internal/domain/lifecycle"
	"github.com/okian/placar/internal/domain/match"
	. "github.com/smartystreets/goconvey/convey"
)

func TestClassify(t *testing.T) {
	meta := match.NewMetadata(
		match.Modality{ID: "futsal", HasScore: true},
		match.Modality{ID: "chess"},
	)

	Convey("Given snapshots along the lifecycle", t, func() {
		base := match.Snapshot{Modality: "futsal", Started: true, TeamA: "X", TeamB: "Y"}

		Convey("Not started wins over everything else", func() {
			s := base
			s.Started = false
			s.Closed = true
			So(lifecycle.Classify(s, meta), ShouldEqual, lifecycle.NotStarted)
		})

		Convey("An undecided walkover waits for the decision", func() {
			So(lifecycle.Classify(base, meta), ShouldEqual, lifecycle.AwaitingWalkoverDecision)
		})

		Convey("Scored modalities split on walkover and tie", func() {
			s := base
			s.Walkover = match.WalkoverNo
			So(lifecycle.Classify(s, meta), ShouldEqual, lifecycle.ScorePending)
			s.TieOccurred = true
			So(lifecycle.Classify(s, meta), ShouldEqual, lifecycle.ScoreTiePending)
			s.Walkover = match.WalkoverYes
			So(lifecycle.Classify(s, meta), ShouldEqual, lifecycle.ScoreWalkoverPending)
		})

		Convey("Unscored modalities wait for a winner or walkover team", func() {
			s := base
			s.Modality = "chess"
			s.Walkover = match.WalkoverNo
			So(lifecycle.Classify(s, meta), ShouldEqual, lifecycle.NoScoreWinnerPending)
			s.Walkover = match.WalkoverYes
			So(lifecycle.Classify(s, meta), ShouldEqual, lifecycle.NoScoreWalkoverPending)
		})

		Convey("A closed started match is Closed", func() {
			s := base
			s.Closed = true
			So(lifecycle.Classify(s, meta), ShouldEqual, lifecycle.Closed)
		})
	})
}

func TestAllowed(t *testing.T) {
	Convey("Given the transition table", t, func() {
		Convey("NotStarted only moves to the walkover decision", func() {
			So(lifecycle.Next(lifecycle.NotStarted), ShouldResemble, []lifecycle.State{lifecycle.AwaitingWalkoverDecision})
			So(lifecycle.Allowed(lifecycle.NotStarted, lifecycle.Closed), ShouldBeFalse)
		})

		Convey("Every other state can be force-cleared and closed", func() {
			for _, s := range lifecycle.States[1:] {
				So(lifecycle.Allowed(s, lifecycle.NotStarted), ShouldBeTrue)
				So(lifecycle.Allowed(s, lifecycle.Closed), ShouldBeTrue)
			}
		})

		Convey("Closed can return to any started state", func() {
			So(lifecycle.Allowed(lifecycle.Closed, lifecycle.ScoreTiePending), ShouldBeTrue)
			So(lifecycle.Allowed(lifecycle.Closed, lifecycle.AwaitingWalkoverDecision), ShouldBeTrue)
		})

		Convey("Staying put is always allowed", func() {
			So(lifecycle.Allowed(lifecycle.ScorePending, lifecycle.ScorePending), ShouldBeTrue)
		})
	})
}
