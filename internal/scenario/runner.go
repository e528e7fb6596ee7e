package scenario

import (
	"context"
	"fmt"

	"github.com/okian/placar/internal/adapters/surface"
	"github.com/okian/placar/internal/app/form"
	"github.com/okian/placar/internal/domain/guard"
	"github.com/okian/placar/internal/domain/lifecycle"
	"github.com/okian/placar/internal/domain/match"
	"github.com/okian/placar/pkg/logger"
)

// StepResult is what one step did and which expectations it missed.
type StepResult struct {
	Index    int
	Field    match.Field
	Value    string
	Outcome  guard.Outcome
	State    lifecycle.State
	Alerts   []string
	Prompts  []guard.Prompt
	View     surface.View
	Failures []string
}

// Report is the outcome of one scenario.
type Report struct {
	Name     string
	Initial  StepResult
	Steps    []StepResult
	Failures int
}

// Passed reports whether every expectation held.
func (r Report) Passed() bool { return r.Failures == 0 }

// Option configures Run.
type Option func(*runner)

type runner struct {
	logger logger.Logger
}

// WithLogger sets the logger handed to the controller and guard.
func WithLogger(l logger.Logger) Option {
	return func(r *runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// Run renders the starting form, applies every step and verifies each one.
// Steps run on an in-memory surface; no roster is fetched.
func Run(ctx context.Context, s *Scenario, opts ...Option) (Report, error) {
	r := runner{logger: logger.Nop()}
	for _, opt := range opts {
		opt(&r)
	}

	values := make(map[match.Field]string, len(s.Values))
	for k, v := range s.Values {
		values[match.Field(k)] = v
	}
	surf := surface.New(values)
	alerts := guard.NewScript()
	g := guard.New(guard.WithNotifier(alerts), guard.WithLogger(r.logger))

	ctrl, err := form.New(surf.Bindings(), s.Metadata(), form.WithGuard(g), form.WithLogger(r.logger))
	if err != nil {
		return Report{}, fmt.Errorf("%w: %w", ErrScenario, err)
	}

	rep := Report{Name: s.Name}
	res := ctrl.Render(ctx)
	rep.Initial = StepResult{State: res.State, View: surf.View()}
	rep.Initial.Failures = Verify(rep.Initial, s.Initial)
	rep.Failures += len(rep.Initial.Failures)

	for i, st := range s.Steps {
		prompts := &promptLog{answer: st.Confirm}
		seen := len(alerts.Messages())

		res, err := ctrl.OnFieldChanged(ctx, match.Field(st.Field), st.Value, form.Confirming(prompts))
		if err != nil {
			return rep, fmt.Errorf("step %d: %w", i+1, err)
		}

		sr := StepResult{
			Index:   i + 1,
			Field:   match.Field(st.Field),
			Value:   st.Value,
			Outcome: res.Decision.Outcome,
			State:   res.State,
			Alerts:  alerts.Messages()[seen:],
			Prompts: prompts.prompts,
			View:    surf.View(),
		}
		sr.Failures = Verify(sr, st.Expect)
		rep.Failures += len(sr.Failures)
		rep.Steps = append(rep.Steps, sr)
	}
	return rep, nil
}

// promptLog answers with the step's confirm value and records the prompts.
type promptLog struct {
	answer  *bool
	prompts []guard.Prompt
}

func (p *promptLog) Confirm(_ context.Context, pr guard.Prompt) (bool, error) {
	p.prompts = append(p.prompts, pr)
	if p.answer == nil {
		return false, nil
	}
	return *p.answer, nil
}
