package form

import (
	"context"

	"github.com/okian/placar/internal/domain/guard"
	"github.com/okian/placar/pkg/logger"
)

// Option applies a configuration option to the Controller.
type Option func(*Controller)

// RosterRequester starts an asynchronous roster fetch. It is called with the
// controller locked, so the response must come back later through
// OnRosterLoaded with the same token, never from inside the call.
type RosterRequester func(ctx context.Context, championshipID, token string)

// WithGuard sets the transition guard.
func WithGuard(g *guard.Guard) Option {
	return func(c *Controller) {
		if g != nil {
			c.guard = g
		}
	}
}

// WithRosterRequester sets the hook used when the championship changes.
func WithRosterRequester(r RosterRequester) Option {
	return func(c *Controller) {
		if r != nil {
			c.requestRoster = r
		}
	}
}

// WithLogger sets a custom logger for the controller.
func WithLogger(l logger.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}
