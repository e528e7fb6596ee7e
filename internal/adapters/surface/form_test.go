package surface_test

import (
	"testing"

	"github.com/okian/placar/internal/adapters/surface"
	"github.com/okian/placar/internal/app/form"
	"github.com/okian/placar/internal/domain/match"
	"github.com/okian/placar/internal/domain/roster"
	"github.com/okian/placar/internal/domain/visibility"
	. "github.com/smartystreets/goconvey/convey"
)

func TestForm(t *testing.T) {
	Convey("Given an in-memory form", t, func() {
		f := surface.New(map[match.Field]string{match.FieldModality: "futsal", "bogus": "x"})
		b := f.Bindings()

		Convey("Then every field is bound and team selects take options", func() {
			So(b.Validate(), ShouldBeNil)
			_, ok := b[match.FieldWinner].(form.OptionsAccessor)
			So(ok, ShouldBeTrue)
			_, ok = b[match.FieldScoreA].(form.OptionsAccessor)
			So(ok, ShouldBeFalse)
			So(f.Values(), ShouldResemble, map[match.Field]string{match.FieldModality: "futsal"})
		})

		Convey("When values are written", func() {
			b[match.FieldScoreA].Set("3")
			b[match.FieldScoreA].Set("3")
			b[match.FieldModality].Set("")

			Convey("Then only real changes count and empty clears", func() {
				So(f.Writes(), ShouldEqual, 2)
				So(f.Value(match.FieldScoreA), ShouldEqual, "3")
				_, present := f.Values()[match.FieldModality]
				So(present, ShouldBeFalse)
			})
		})

		Convey("When a field is rendered and options are set", func() {
			b[match.FieldWalkover].Render(visibility.FieldState{Visible: true, Required: true})
			b[match.FieldTeamA].(form.OptionsAccessor).SetOptions([]roster.Team{{ID: "1", Label: "Lions"}})
			v := f.View()

			Convey("Then the view reflects both", func() {
				So(v.Fields["walkover"].Required, ShouldBeTrue)
				So(v.Fields["winner"].Visible, ShouldBeFalse)
				So(v.Options, ShouldHaveLength, 1)
				So(v.Values["modality"], ShouldEqual, "futsal")
			})
		})
	})
}
