package scenario_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/placar/internal/scenario"
	. "github.com/smartystreets/goconvey/convey"
)

const scenariosDir = "../../scenarios"

func writeScenario(dir, body string) string {
	path := filepath.Join(dir, "s.yaml")
	So(os.WriteFile(path, []byte(body), 0o600), ShouldBeNil)
	return path
}

func TestBundledScenarios(t *testing.T) {
	Convey("Given the bundled scenarios", t, func() {
		all, err := scenario.LoadAll(scenariosDir)
		So(err, ShouldBeNil)
		So(len(all), ShouldBeGreaterThanOrEqualTo, 5)

		Convey("Then every one of them passes", func() {
			for _, s := range all {
				rep, err := scenario.Run(context.Background(), s)
				So(err, ShouldBeNil)
				for _, st := range append([]scenario.StepResult{rep.Initial}, rep.Steps...) {
					So(strings.Join(st.Failures, "; "), ShouldBeEmpty)
				}
				So(rep.Passed(), ShouldBeTrue)
			}
		})
	})
}

func TestScenarioFailures(t *testing.T) {
	Convey("Given a scenario with a wrong expectation", t, func() {
		path := writeScenario(t.TempDir(), `
name: wrong
modalities:
  futsal: { has_score: true }
values:
  modality: futsal
  started: "true"
  team_a: X
  team_b: Y
  walkover: nao
  score_a: "1"
  score_b: "0"
steps:
  - field: tie_occurred
    value: "true"
    expect:
      outcome: accepted
      visible: [tie_break_a]
`)
		s, err := scenario.Load(path)
		So(err, ShouldBeNil)

		Convey("Then the report lists each mismatch", func() {
			rep, err := scenario.Run(context.Background(), s)
			So(err, ShouldBeNil)
			So(rep.Passed(), ShouldBeFalse)
			So(rep.Steps, ShouldHaveLength, 1)
			failures := strings.Join(rep.Steps[0].Failures, "\n")
			So(failures, ShouldContainSubstring, "outcome: want accepted, got rejected")
			So(failures, ShouldContainSubstring, "tie_break_a: want visible")
			So(failures, ShouldContainSubstring, "alerts: want 0, got 1")
		})
	})

	Convey("Given a scenario naming an unknown field", t, func() {
		path := writeScenario(t.TempDir(), `
values:
  nickname: x
`)
		_, err := scenario.Load(path)
		So(errors.Is(err, scenario.ErrScenario), ShouldBeTrue)
	})

	Convey("Given a missing file", t, func() {
		_, err := scenario.LoadAll(filepath.Join(t.TempDir(), "absent.yaml"))
		So(errors.Is(err, scenario.ErrLoad), ShouldBeTrue)
	})

	Convey("Given a scenario without a name", t, func() {
		path := writeScenario(t.TempDir(), "values:\n  modality: futsal\n")
		s, err := scenario.Load(path)
		So(err, ShouldBeNil)
		So(s.Name, ShouldEqual, "s.yaml")
		So(s.Path(), ShouldEqual, path)
	})
}
