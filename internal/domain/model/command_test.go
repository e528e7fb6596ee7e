package model_test

import (
	"errors"
	"testing"

	model "github.com/okian/placar/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestCommand(t *testing.T) {
	convey.Convey("Given a new command", t, func() {
		cmd := model.NewCommand(model.FieldChanged)

		convey.Convey("Then it is stamped and has room for one reply", func() {
			convey.So(cmd.Enqueued.IsZero(), convey.ShouldBeFalse)
			convey.So(cap(cmd.Reply), convey.ShouldEqual, 1)
		})

		convey.Convey("When responding twice", func() {
			cmd.Respond(model.Result{Stale: true}, nil)
			cmd.Respond(model.Result{}, errors.New("late"))

			convey.Convey("Then the first reply wins and nothing blocks", func() {
				r := <-cmd.Reply
				convey.So(r.Result.Stale, convey.ShouldBeTrue)
				convey.So(r.Err, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the command is fire-and-forget", func() {
			var bare model.Command
			convey.So(func() { bare.Respond(model.Result{}, nil) }, convey.ShouldNotPanic)
		})
	})
}
