// Package guard vets attempted writes to the lifecycle fields of a match
// (started, tie, closed, walkover) before they take effect.
package guard

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/placar/internal/domain/match"
	"github.com/okian/placar/internal/domain/visibility"
	"github.com/okian/placar/pkg/logger"
	"github.com/okian/placar/pkg/metrics"
)

// Operator-facing messages.
const (
	msgTeamsRequired = "Select team A and team B before starting the match."
	msgSameTeam      = "Team A and team B cannot be the same."
	msgTieUnequal    = "A tie can only be declared when score A and score B are equal."
	msgReadOnly      = "This field is locked while a tie is declared."
	msgNotStarted    = "Start the match before closing it."

	msgUnstart = "Attention!\n\nUn-starting the match erases its result and any data already sent to the next phase.\n\nDo you want to continue?"
	msgClose   = "Attention!\n\nClosing the match sends its result to the next phase.\n\nCheck that everything is correct!"
	msgReopen  = "Attention!\n\nReopening the match removes its result from the next phase.\n\nCheck that this is what you want and that everything is correct before saving!"
)

// UnstartResets are cleared when a started match is set back to not started.
var UnstartResets = append(append([]match.Field{
	match.FieldWalkover, match.FieldWalkoverTeam,
	match.FieldScoreA, match.FieldScoreB,
	match.FieldTieOccurred, match.FieldTieBreakA, match.FieldTieBreakB,
}, match.SetFields...), match.FieldWinner)

// WalkoverResets are cleared when the walkover decision changes. The tie
// fields go with the scores so a declared tie never outlives them.
var WalkoverResets = []match.Field{
	match.FieldWalkoverTeam,
	match.FieldScoreA, match.FieldScoreB,
	match.FieldTieOccurred, match.FieldTieBreakA, match.FieldTieBreakB,
	match.FieldWinner,
}

// Outcome of a guarded write.
type Outcome string

const (
	Accepted Outcome = "accepted"
	Rejected Outcome = "rejected"
	Declined Outcome = "declined"
)

// Change is an attempted write. Previous is the raw value currently stored.
type Change struct {
	Field    match.Field
	Value    string
	Previous string
}

// Decision is the guard's verdict. Value is what the field must hold
// afterwards: the new value when accepted, Previous otherwise.
type Decision struct {
	Field     match.Field
	Outcome   Outcome
	Value     string
	Resets    []match.Field
	ForceOpen bool
	Prompt    *Prompt
	Message   string
	Err       error
}

// Accepted reports whether the write stands.
func (d Decision) Accepted() bool { return d.Outcome == Accepted }

// Guard evaluates changes against the snapshot taken before the write.
type Guard struct {
	confirmer Confirmer
	notifier  Notifier
	logger    logger.Logger
}

// New creates a Guard. Without options it cannot prompt (RequireAnswer) and
// drops notifications.
func New(opts ...Option) *Guard {
	g := &Guard{
		confirmer: RequireAnswer(),
		notifier:  NotifyFunc(func(context.Context, string) {}),
		logger:    logger.Get().Named("guard"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// WithConfirmer returns a copy of g that asks c instead.
func (g *Guard) WithConfirmer(c Confirmer) *Guard {
	if c == nil {
		return g
	}
	cp := *g
	cp.confirmer = c
	return &cp
}

// Evaluate decides whether ch may take effect. current is the policy in
// force before the write; read-only fields and scores under a declared tie
// refuse writes.
func (g *Guard) Evaluate(ctx context.Context, before match.Snapshot, current visibility.Policy, ch Change) Decision {
	var d Decision
	switch ch.Field {
	case match.FieldStarted:
		d = g.started(ctx, before, ch)
	case match.FieldTieOccurred:
		d = g.tie(before, ch)
	case match.FieldClosed:
		d = g.closed(ctx, before, ch)
	case match.FieldWalkover:
		d = g.walkover(before, ch)
	default:
		if ch.Value != ch.Previous && (current.State(ch.Field).ReadOnly || frozenByTie(before, ch.Field)) {
			d = g.reject(ch, ErrReadOnly, msgReadOnly)
		} else {
			d = accept(ch, ch.Value)
		}
	}

	switch d.Outcome {
	case Rejected:
		g.notifier.Notify(ctx, d.Message)
		g.logger.Warn(ctx, "transition rejected",
			logger.String("field", string(ch.Field)),
			logger.String("value", ch.Value),
			logger.Error(d.Err),
		)
	case Declined:
		g.logger.Warn(ctx, "transition not confirmed",
			logger.String("field", string(ch.Field)),
			logger.Error(d.Err),
		)
	default:
		g.logger.Debug(ctx, "transition accepted",
			logger.String("field", string(ch.Field)),
			logger.Int("resets", len(d.Resets)),
		)
	}
	metrics.RecordTransition(string(ch.Field), string(d.Outcome))
	return d
}

// frozenByTie reports whether f is a score locked by a declared tie. The lock
// holds while the score is hidden too, so a modality round-trip cannot
// leave a tie with unequal scores.
func frozenByTie(before match.Snapshot, f match.Field) bool {
	return before.TieOccurred && (f == match.FieldScoreA || f == match.FieldScoreB)
}

func (g *Guard) started(ctx context.Context, before match.Snapshot, ch Change) Decision {
	next := match.ParseBool(ch.Value)
	switch {
	case next == before.Started:
		return accept(ch, match.FormatBool(next))
	case next:
		if before.TeamA == "" || before.TeamB == "" {
			return g.reject(ch, ErrTeamsRequired, msgTeamsRequired)
		}
		if before.TeamA == before.TeamB {
			return g.reject(ch, ErrSameTeam, msgSameTeam)
		}
		return accept(ch, match.FormatBool(true))
	default:
		p := Prompt{Kind: PromptUnstart, Message: msgUnstart}
		if d, ok := g.confirm(ctx, ch, p); !ok {
			return d
		}
		d := accept(ch, match.FormatBool(false))
		d.Prompt = &p
		d.Resets = UnstartResets
		d.ForceOpen = true
		return d
	}
}

func (g *Guard) tie(before match.Snapshot, ch Change) Decision {
	if match.ParseBool(ch.Value) && !match.ParseBool(ch.Previous) && !before.ScoresLevel() {
		return g.reject(ch, ErrTieScoresUnequal, msgTieUnequal)
	}
	return accept(ch, ch.Value)
}

func (g *Guard) closed(ctx context.Context, before match.Snapshot, ch Change) Decision {
	next := match.ParseBool(ch.Value)
	if next == before.Closed {
		return accept(ch, match.FormatBool(next))
	}
	if next && !before.Started {
		return g.reject(ch, ErrNotStarted, msgNotStarted)
	}
	p := Prompt{Kind: PromptReopen, Message: msgReopen}
	if next {
		p = Prompt{Kind: PromptClose, Message: msgClose}
	}
	if d, ok := g.confirm(ctx, ch, p); !ok {
		return d
	}
	d := accept(ch, match.FormatBool(next))
	d.Prompt = &p
	return d
}

func (g *Guard) walkover(before match.Snapshot, ch Change) Decision {
	d := accept(ch, ch.Value)
	if match.ParseWalkover(ch.Value) != before.Walkover {
		d.Resets = WalkoverResets
		d.ForceOpen = true
	}
	return d
}

// confirm asks the operator; ok is false when the change must be reverted.
func (g *Guard) confirm(ctx context.Context, ch Change, p Prompt) (Decision, bool) {
	accepted, err := g.confirmer.Confirm(ctx, p)
	metrics.RecordConfirmation(string(p.Kind), accepted && err == nil)
	if err == nil && accepted {
		return Decision{}, true
	}
	d := Decision{
		Field:   ch.Field,
		Outcome: Declined,
		Value:   ch.Previous,
		Prompt:  &p,
		Err:     ErrDeclined,
	}
	switch {
	case errors.Is(err, ErrConfirmationRequired):
		d.Err = ErrConfirmationRequired
	case err != nil:
		d.Err = fmt.Errorf("%w: %w", ErrDeclined, err)
	}
	return d, false
}

func (g *Guard) reject(ch Change, err error, msg string) Decision {
	return Decision{
		Field:   ch.Field,
		Outcome: Rejected,
		Value:   ch.Previous,
		Message: msg,
		Err:     err,
	}
}

func accept(ch Change, value string) Decision {
	return Decision{Field: ch.Field, Outcome: Accepted, Value: value}
}
