package scenario

import (
	"fmt"
	"slices"

	"github.com/okian/placar/internal/domain/guard"
)

// Verify lists every expectation of e that r does not meet. Alerts is always
// checked, so a step expecting none fails on an unexpected rejection.
func Verify(r StepResult, e Expect) []string {
	var out []string
	fail := func(format string, args ...any) {
		out = append(out, fmt.Sprintf(format, args...))
	}

	if e.Outcome != "" && string(r.Outcome) != e.Outcome {
		fail("outcome: want %s, got %s", e.Outcome, r.Outcome)
	}
	if e.State != "" && string(r.State) != e.State {
		fail("state: want %s, got %s", e.State, r.State)
	}
	for _, f := range e.Visible {
		if !r.View.Fields[f].Visible {
			fail("%s: want visible", f)
		}
	}
	for _, f := range e.Hidden {
		if r.View.Fields[f].Visible {
			fail("%s: want hidden", f)
		}
	}
	for _, f := range e.Required {
		if !r.View.Fields[f].Required {
			fail("%s: want required", f)
		}
	}
	for _, f := range e.Optional {
		if r.View.Fields[f].Required {
			fail("%s: want not required", f)
		}
	}
	for _, f := range e.ReadOnly {
		if !r.View.Fields[f].ReadOnly {
			fail("%s: want read-only", f)
		}
	}
	for f, want := range e.Values {
		if got := r.View.Values[f]; got != want {
			fail("%s: want value %q, got %q", f, want, got)
		}
	}
	if e.Alerts != len(r.Alerts) {
		fail("alerts: want %d, got %d", e.Alerts, len(r.Alerts))
	}
	for _, kind := range e.Prompts {
		if !slices.ContainsFunc(r.Prompts, func(p guard.Prompt) bool { return string(p.Kind) == kind }) {
			fail("prompt %s: not asked", kind)
		}
	}
	slices.Sort(out)
	return out
}
