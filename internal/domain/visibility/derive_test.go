package visibility_test

import (
	"testing"

	"github.com/okian/placar/internal/domain/match"
	"github.com/okian/placar/internal/domain/visibility"
	. "github.com/smartystreets/goconvey/convey"
)

var (
	noScore     = match.Modality{ID: "chess"}
	scoreOnly   = match.Modality{ID: "futsal", HasScore: true}
	scoreAndSet = match.Modality{ID: "volley", HasScore: true, HasSets: true}
	meta        = match.NewMetadata(noScore, scoreOnly, scoreAndSet)
)

func visible(p visibility.Policy, f match.Field) bool  { return p.State(f).Visible }
func required(p visibility.Policy, f match.Field) bool { return p.State(f).Required }

func started(mod match.ModalityID, walkover match.Walkover) match.Snapshot {
	return match.Snapshot{
		Modality: mod,
		Started:  true,
		TeamA:    "X",
		TeamB:    "Y",
		Walkover: walkover,
	}
}

func TestDeriveNotStarted(t *testing.T) {
	Convey("Given snapshots of a match that has not started", t, func() {
		snapshots := []match.Snapshot{
			{},
			{Modality: "volley", Walkover: match.WalkoverNo, ScoreA: match.Int(3), ScoreB: match.Int(3), TieOccurred: true, Closed: true},
			{Modality: "chess", Walkover: match.WalkoverYes, WalkoverTeam: "Z", Winner: "Z"},
		}

		Convey("Then only the base fields are visible and nothing else is required", func() {
			for _, s := range snapshots {
				p := visibility.Derive(s, meta)
				for _, f := range match.ManagedFields {
					base := f == match.FieldModality || f == match.FieldStarted || f == match.FieldTeamA || f == match.FieldTeamB
					So(visible(p, f), ShouldEqual, base)
					if !base {
						So(required(p, f), ShouldBeFalse)
					}
				}
			}
		})
	})
}

func TestDeriveWalkoverUndecided(t *testing.T) {
	Convey("Given a started match with no walkover decision (scenario D)", t, func() {
		p := visibility.Derive(started("chess", match.WalkoverUndecided), meta)

		Convey("Then only the walkover select is added, and it is required", func() {
			So(p.Visible(), ShouldResemble, []match.Field{
				match.FieldModality, match.FieldStarted, match.FieldTeamA, match.FieldTeamB, match.FieldWalkover,
			})
			So(required(p, match.FieldWalkover), ShouldBeTrue)
		})
	})
}

func TestDeriveNoScoreModality(t *testing.T) {
	Convey("Given a modality without score", t, func() {
		Convey("When a walkover happened", func() {
			p := visibility.Derive(started("chess", match.WalkoverYes), meta)

			Convey("Then the walkover team is required, winner hidden, closed visible", func() {
				So(p.State(match.FieldWalkoverTeam), ShouldResemble, visibility.FieldState{Visible: true, Required: true})
				So(visible(p, match.FieldWinner), ShouldBeFalse)
				So(p.State(match.FieldClosed), ShouldResemble, visibility.FieldState{Visible: true})
				So(visible(p, match.FieldScoreA), ShouldBeFalse)
			})
		})

		Convey("When there was no walkover", func() {
			p := visibility.Derive(started("chess", match.WalkoverNo), meta)

			Convey("Then the winner is required and scores stay hidden", func() {
				So(p.State(match.FieldWinner), ShouldResemble, visibility.FieldState{Visible: true, Required: true})
				So(visible(p, match.FieldWalkoverTeam), ShouldBeFalse)
				So(visible(p, match.FieldScoreA), ShouldBeFalse)
				So(visible(p, match.FieldClosed), ShouldBeTrue)
			})
		})

		Convey("When the modality is unknown to the metadata", func() {
			p := visibility.Derive(started("unlisted", match.WalkoverNo), meta)

			Convey("Then it behaves as a no-score modality", func() {
				So(visible(p, match.FieldWinner), ShouldBeTrue)
				So(visible(p, match.FieldScoreA), ShouldBeFalse)
			})
		})
	})
}

func TestDeriveScoreModality(t *testing.T) {
	Convey("Given a modality with score", t, func() {
		Convey("When a walkover happened", func() {
			s := started("volley", match.WalkoverYes)
			p := visibility.Derive(s, meta)

			Convey("Then only the walkover team and closed follow, sets stay hidden", func() {
				So(required(p, match.FieldWalkoverTeam), ShouldBeTrue)
				So(visible(p, match.FieldClosed), ShouldBeTrue)
				So(visible(p, match.FieldScoreA), ShouldBeFalse)
				for _, f := range match.SetFields {
					So(visible(p, f), ShouldBeFalse)
				}
			})
		})

		Convey("When scores are level and a tie was declared (scenario A)", func() {
			for _, n := range []int{0, 3, 17} {
				s := started("futsal", match.WalkoverNo)
				s.ScoreA, s.ScoreB, s.TieOccurred = match.Int(n), match.Int(n), true
				p := visibility.Derive(s, meta)

				So(p.State(match.FieldScoreA), ShouldResemble, visibility.FieldState{Visible: true, Required: true, ReadOnly: true})
				So(p.State(match.FieldScoreB).ReadOnly, ShouldBeTrue)
				So(p.State(match.FieldTieBreakA), ShouldResemble, visibility.FieldState{Visible: true, Required: true})
				So(p.State(match.FieldTieBreakB), ShouldResemble, visibility.FieldState{Visible: true, Required: true})
				for _, f := range match.SetFields {
					So(visible(p, f), ShouldBeFalse)
				}
			}
		})

		Convey("When the modality has sets and no tie (scenario C)", func() {
			p := visibility.Derive(started("volley", match.WalkoverNo), meta)

			Convey("Then all six set fields are visible and optional", func() {
				for _, f := range match.SetFields {
					So(p.State(f), ShouldResemble, visibility.FieldState{Visible: true})
				}
				So(p.State(match.FieldTieOccurred), ShouldResemble, visibility.FieldState{Visible: true})
				So(visible(p, match.FieldTieBreakA), ShouldBeFalse)
				So(p.State(match.FieldScoreA).ReadOnly, ShouldBeFalse)
			})
		})

		Convey("When the modality has sets and a tie is declared", func() {
			s := started("volley", match.WalkoverNo)
			s.ScoreA, s.ScoreB, s.TieOccurred = match.Int(1), match.Int(1), true
			p := visibility.Derive(s, meta)

			Convey("Then sets are shown alongside the tie-break", func() {
				So(visible(p, match.FieldSet3B), ShouldBeTrue)
				So(visible(p, match.FieldTieBreakA), ShouldBeTrue)
			})
		})
	})
}

func TestDeriveIdempotent(t *testing.T) {
	Convey("Given any fixed snapshot and metadata", t, func() {
		s := started("volley", match.WalkoverNo)
		s.ScoreA, s.ScoreB, s.TieOccurred, s.Closed = match.Int(2), match.Int(2), true, true

		Convey("Then deriving twice yields equal policies", func() {
			a := visibility.Derive(s, meta)
			b := visibility.Derive(s, meta)
			So(a.Equal(b), ShouldBeTrue)
			So(a.Map(), ShouldResemble, b.Map())
		})

		Convey("Then an empty metadata never panics", func() {
			So(func() { visibility.Derive(s, match.Metadata{}) }, ShouldNotPanic)
		})
	})
}
