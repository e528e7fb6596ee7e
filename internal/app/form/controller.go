// Package form wires field-change notifications through the transition guard
// and the visibility deriver onto a live form surface.
package form

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/placar/internal/domain/guard"
	"github.com/okian/placar/internal/domain/lifecycle"
	"github.com/okian/placar/internal/domain/match"
	"github.com/okian/placar/internal/domain/model"
	"github.com/okian/placar/internal/domain/roster"
	"github.com/okian/placar/internal/domain/visibility"
	"github.com/okian/placar/pkg/logger"
	"github.com/okian/placar/pkg/metrics"
)

// Controller owns the live form. Every method runs to completion before the
// next one starts; the session dispatcher provides arrival order.
type Controller struct {
	mu sync.Mutex

	bindings      Bindings
	meta          match.Metadata
	guard         *guard.Guard
	requestRoster RosterRequester
	tracker       roster.Tracker
	logger        logger.Logger

	policy visibility.Policy
	state  lifecycle.State
}

// New creates a controller over a complete bindings table.
func New(bindings Bindings, meta match.Metadata, opts ...Option) (*Controller, error) {
	if err := bindings.Validate(); err != nil {
		return nil, err
	}
	c := &Controller{
		bindings:      bindings,
		meta:          meta,
		guard:         guard.New(),
		requestRoster: func(context.Context, string, string) {},
		logger:        logger.Get().Named("form"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ChangeOption tunes a single OnFieldChanged call.
type ChangeOption func(*changeOptions)

type changeOptions struct {
	confirmer guard.Confirmer
}

// Confirming answers this change's prompts with cf instead of the guard's
// default confirmer.
func Confirming(cf guard.Confirmer) ChangeOption {
	return func(o *changeOptions) { o.confirmer = cf }
}

// Render runs a derive-and-apply pass over the current values.
func (c *Controller) Render(ctx context.Context) model.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.apply(ctx, guard.Decision{})
}

// LoadRoster requests the roster of the championship currently selected.
func (c *Controller) LoadRoster(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.beginRoster(ctx, c.bindings.Get(match.FieldChampionship))
}

// OnFieldChanged handles an attempted write: guard, write or revert, resets,
// then a full derive-and-apply pass.
func (c *Controller) OnFieldChanged(ctx context.Context, f match.Field, value string, opts ...ChangeOption) (model.Result, error) {
	if !f.Known() {
		return model.Result{}, fmt.Errorf("%w: %q", match.ErrUnknownField, f)
	}
	var o changeOptions
	for _, opt := range opts {
		opt(&o)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	metrics.RecordFieldChange(string(f))
	acc := c.bindings[f]
	previous := acc.Get()

	if f == match.FieldChampionship {
		acc.Set(value)
		if value != previous {
			c.beginRoster(ctx, value)
		}
		return c.apply(ctx, guard.Decision{Field: f, Outcome: guard.Accepted, Value: value}), nil
	}

	g := c.guard
	if o.confirmer != nil {
		g = g.WithConfirmer(o.confirmer)
	}
	before := c.bindings.Snapshot()
	d := g.Evaluate(ctx, before, c.policy, guard.Change{Field: f, Value: value, Previous: previous})
	acc.Set(d.Value)

	if d.Accepted() {
		c.reset(ctx, f, d)
	}
	return c.apply(ctx, d), nil
}

// OnRosterLoaded replaces the options of every team select. Responses for a
// superseded request are discarded; a failed fetch leaves empty lists.
func (c *Controller) OnRosterLoaded(ctx context.Context, championshipID, token string, teams []roster.Team, fetchErr error) model.Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.tracker.Current(championshipID, token) || c.bindings.Get(match.FieldChampionship) != championshipID {
		metrics.RecordRosterStale()
		c.logger.Warn(ctx, "discarding stale roster response",
			logger.String("championship", championshipID),
		)
		return model.Result{Policy: c.policy, State: c.state, Snapshot: c.bindings.Snapshot(), Stale: true}
	}
	if fetchErr != nil {
		c.logger.Warn(ctx, "roster fetch failed",
			logger.String("championship", championshipID),
			logger.Error(fetchErr),
		)
		teams = nil
	}

	for _, f := range match.TeamFields {
		acc := c.bindings[f]
		sel, ok := acc.(OptionsAccessor)
		if !ok {
			continue
		}
		current := acc.Get()
		sel.SetOptions(teams)
		acc.Set(roster.Keep(teams, current))
	}
	return c.apply(ctx, guard.Decision{})
}

// Handle runs a queued command.
func (c *Controller) Handle(ctx context.Context, cmd model.Command) (model.Result, error) {
	switch cmd.Kind {
	case model.FieldChanged:
		var opts []ChangeOption
		if cmd.Confirmer != nil {
			opts = append(opts, Confirming(cmd.Confirmer))
		}
		return c.OnFieldChanged(ctx, cmd.Field, cmd.Value, opts...)
	case model.RosterLoaded:
		return c.OnRosterLoaded(ctx, cmd.Championship, cmd.Token, cmd.Teams, cmd.FetchErr), nil
	case model.Refresh:
		return c.Render(ctx), nil
	default:
		return model.Result{}, fmt.Errorf("unknown command kind %q", cmd.Kind)
	}
}

// Metadata returns the modality metadata the form was built with.
func (c *Controller) Metadata() match.Metadata { return c.meta }

func (c *Controller) reset(ctx context.Context, f match.Field, d guard.Decision) {
	for _, r := range d.Resets {
		c.bindings[r].Set("")
	}
	if d.ForceOpen {
		c.bindings[match.FieldClosed].Set(match.FormatBool(false))
	}
	if len(d.Resets) > 0 || d.ForceOpen {
		metrics.RecordReset(string(f))
		c.logger.Info(ctx, "dependent fields reset",
			logger.String("trigger", string(f)),
			logger.Int("fields", len(d.Resets)),
			logger.Bool("force_open", d.ForceOpen),
		)
	}
}

func (c *Controller) beginRoster(ctx context.Context, championshipID string) {
	token := c.tracker.Begin(championshipID)
	c.requestRoster(ctx, championshipID, token)
}

// apply derives the policy for the current values and renders every managed
// field. Stored values are never cleared here.
func (c *Controller) apply(ctx context.Context, d guard.Decision) model.Result {
	start := time.Now()
	snap := c.bindings.Snapshot()
	p := visibility.Derive(snap, c.meta)
	metrics.RecordDerivation(float64(time.Since(start).Microseconds()) / 1000)

	for _, f := range match.ManagedFields {
		c.bindings[f].Render(p.State(f))
	}

	next := lifecycle.Classify(snap, c.meta)
	if c.state != "" && !lifecycle.Allowed(c.state, next) {
		metrics.RecordErrorByComponent("form", "unexpected_lifecycle_edge")
		c.logger.Warn(ctx, "lifecycle edge outside the transition table",
			logger.String("from", string(c.state)),
			logger.String("to", string(next)),
		)
	}
	c.policy = p
	c.state = next

	return model.Result{Decision: d, Policy: p, State: next, Snapshot: snap}
}
