package match_test

import (
	"errors"
	"testing"

	"github.com/okian/placar/internal/domain/match"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParseWalkover(t *testing.T) {
	Convey("Given raw walkover select values", t, func() {
		Convey("Then empty input is undecided, not no", func() {
			So(match.ParseWalkover(""), ShouldEqual, match.WalkoverUndecided)
			So(match.ParseWalkover("   "), ShouldEqual, match.WalkoverUndecided)
		})

		Convey("Then truthy tokens mean yes", func() {
			for _, raw := range []string{"sim", "Sim", "yes", "true", "1"} {
				So(match.ParseWalkover(raw), ShouldEqual, match.WalkoverYes)
			}
		})

		Convey("Then any other non-empty value means no", func() {
			for _, raw := range []string{"nao", "no", "false", "0"} {
				So(match.ParseWalkover(raw), ShouldEqual, match.WalkoverNo)
			}
		})
	})
}

func TestParseOptionalInt(t *testing.T) {
	Convey("Given numeric inputs", t, func() {
		So(match.ParseOptionalInt("3"), ShouldResemble, match.Int(3))
		So(match.ParseOptionalInt(" 03 "), ShouldResemble, match.Int(3))
		So(match.ParseOptionalInt(""), ShouldResemble, match.OptionalInt{})
		So(match.ParseOptionalInt("abc"), ShouldResemble, match.OptionalInt{})

		Convey("Then equality requires both sides present", func() {
			So(match.Int(2).EqualPresent(match.Int(2)), ShouldBeTrue)
			So(match.Int(2).EqualPresent(match.Int(3)), ShouldBeFalse)
			So(match.OptionalInt{}.EqualPresent(match.OptionalInt{}), ShouldBeFalse)
		})
	})
}

func TestRead(t *testing.T) {
	Convey("Given a populated form", t, func() {
		values := map[match.Field]string{
			match.FieldModality:    "futsal",
			match.FieldStarted:     "on",
			match.FieldTeamA:       " X ",
			match.FieldTeamB:       "Y",
			match.FieldWalkover:    "nao",
			match.FieldScoreA:      "3",
			match.FieldScoreB:      "3",
			match.FieldTieOccurred: "sim",
			match.FieldSet2B:       "25",
			match.FieldClosed:      "",
		}

		s := match.ReadValues(values)

		Convey("Then the snapshot reflects every parsed value", func() {
			So(s.Modality, ShouldEqual, match.ModalityID("futsal"))
			So(s.Started, ShouldBeTrue)
			So(s.TeamA, ShouldEqual, "X")
			So(s.Walkover, ShouldEqual, match.WalkoverNo)
			So(s.ScoresLevel(), ShouldBeTrue)
			So(s.TieOccurred, ShouldBeTrue)
			So(s.SetScores[1].B, ShouldResemble, match.Int(25))
			So(s.SetScores[0].A.Valid, ShouldBeFalse)
			So(s.Closed, ShouldBeFalse)
			So(s.TeamsReady(), ShouldBeTrue)
		})

		Convey("Then identical teams are not ready", func() {
			values[match.FieldTeamB] = "X"
			So(match.ReadValues(values).TeamsReady(), ShouldBeFalse)
		})
	})
}

func TestParseMetadata(t *testing.T) {
	Convey("Given embedded modality maps", t, func() {
		Convey("When both maps are well formed", func() {
			m, err := match.ParseMetadata(
				[]byte(`{"1": true, "2": false, "3": "true"}`),
				[]byte(`{"1": 1, "3": false}`),
			)

			Convey("Then each modality gets both flags", func() {
				So(err, ShouldBeNil)
				So(m.Len(), ShouldEqual, 3)
				So(m.Lookup("1"), ShouldResemble, match.Modality{ID: "1", HasScore: true, HasSets: true})
				So(m.Lookup("2").HasScore, ShouldBeFalse)
				So(m.Lookup("3").HasScore, ShouldBeTrue)
				So(m.Lookup("3").HasSets, ShouldBeFalse)
			})
		})

		Convey("When a map is malformed", func() {
			m, err := match.ParseMetadata([]byte(`{not json`), []byte(`{"1": true}`))

			Convey("Then that map defaults to empty and the other survives", func() {
				So(errors.Is(err, match.ErrMalformedMetadata), ShouldBeTrue)
				So(m.Lookup("1").HasScore, ShouldBeFalse)
				So(m.Lookup("1").HasSets, ShouldBeTrue)
			})
		})

		Convey("When nothing is supplied", func() {
			m, err := match.ParseMetadata(nil, nil)

			Convey("Then every modality has no score and no sets", func() {
				So(err, ShouldBeNil)
				So(m.Lookup("anything"), ShouldResemble, match.Modality{ID: "anything"})
			})
		})
	})
}

func TestParseField(t *testing.T) {
	Convey("Given wire field names", t, func() {
		f, err := match.ParseField("tie_occurred")
		So(err, ShouldBeNil)
		So(f, ShouldEqual, match.FieldTieOccurred)

		_, err = match.ParseField("nickname")
		So(errors.Is(err, match.ErrUnknownField), ShouldBeTrue)

		So(match.FieldChampionship.Managed(), ShouldBeFalse)
		So(match.FieldWinner.IsTeam(), ShouldBeTrue)
		So(match.FieldScoreA.IsTeam(), ShouldBeFalse)
	})
}
