package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/smartystreets/goconvey/convey"
)

func run(cmd *cobra.Command, args ...string) (string, error) {
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestDeriveCmd(t *testing.T) {
	color.NoColor = true

	convey.Convey("Given the derive command", t, func() {
		convey.Convey("When a chess match is waiting for the walkover decision", func() {
			out, err := run(DeriveCmd(), "--modality", "xadrez", "--set", "started=true", "--set", "team_a=X", "--set", "team_b=Y")

			convey.Convey("Then the state and the field table are printed", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "State: awaiting_walkover_decision")
				convey.So(out, convey.ShouldContainSubstring, "walkover         visible,required")
				convey.So(out, convey.ShouldContainSubstring, "winner           hidden")
			})
		})

		convey.Convey("When the metadata comes from flags", func() {
			out, err := run(DeriveCmd(), "--modality", "rugby", "--has-score",
				"--set", "started=sim", "--set", "team_a=X", "--set", "team_b=Y", "--set", "walkover=nao")

			convey.Convey("Then the score fields are shown", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "State: score_pending")
				convey.So(out, convey.ShouldContainSubstring, "score_a          visible,required")
			})
		})

		convey.Convey("When an assignment is malformed", func() {
			_, err := run(DeriveCmd(), "--set", "started")
			convey.So(err, convey.ShouldNotBeNil)
		})

		convey.Convey("When a field is unknown", func() {
			_, err := run(DeriveCmd(), "--set", "nickname=x")
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestReplayCmd(t *testing.T) {
	color.NoColor = true

	convey.Convey("Given the replay command", t, func() {
		convey.Convey("When the bundled scenarios are replayed", func() {
			out, err := run(ReplayCmd(), filepath.Join("..", "..", "scenarios"))

			convey.Convey("Then they all pass", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "0 failed")
				convey.So(out, convey.ShouldNotContainSubstring, "FAIL")
			})
		})

		convey.Convey("When a scenario expects the wrong state", func() {
			dir := t.TempDir()
			path := filepath.Join(dir, "wrong.yaml")
			body := `name: wrong
modalities:
  xadrez: {}
values:
  modality: xadrez
initial:
  state: closed
`
			convey.So(os.WriteFile(path, []byte(body), 0o600), convey.ShouldBeNil)

			out, err := run(ReplayCmd(), path)

			convey.Convey("Then the failure is reported and the command fails", func() {
				convey.So(errors.Is(err, ErrScenariosFailed), convey.ShouldBeTrue)
				convey.So(out, convey.ShouldContainSubstring, "FAIL wrong")
				convey.So(out, convey.ShouldContainSubstring, "1 failed")
			})
		})

		convey.Convey("When no path is given", func() {
			_, err := run(ReplayCmd())
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestLoadConfig(t *testing.T) {
	convey.Convey("Given a config file", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "placar.yaml")
		convey.So(os.WriteFile(path, []byte("addr: \":7070\"\nlog_level: debug\n"), 0o600), convey.ShouldBeNil)

		convey.Convey("When it is passed explicitly", func() {
			cfg, err := loadConfig(t.Context(), path)

			convey.Convey("Then it overrides the defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(initLogger(cfg), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the log level is invalid", func() {
			cfg, err := loadConfig(t.Context(), "")
			convey.So(err, convey.ShouldBeNil)
			cfg.LogLevel = "loud"
			convey.So(initLogger(cfg), convey.ShouldNotBeNil)
		})
	})
}
