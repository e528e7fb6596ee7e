// Package model contains the envelopes passed between the transport, the
// session queue and the form controller.
package model

import (
	"time"

	"github.com/okian/placar/internal/domain/guard"
	"github.com/okian/placar/internal/domain/lifecycle"
	"github.com/okian/placar/internal/domain/match"
	"github.com/okian/placar/internal/domain/roster"
	"github.com/okian/placar/internal/domain/visibility"
)

// CommandKind selects what the controller does with a command.
type CommandKind string

const (
	FieldChanged CommandKind = "field_changed"
	RosterLoaded CommandKind = "roster_loaded"
	Refresh      CommandKind = "refresh"
)

// Command is one unit of work for a form session. Commands of a session are
// handled one at a time in arrival order.
type Command struct {
	ID   string // client change id, used for idempotency
	Kind CommandKind

	// FieldChanged
	Field     match.Field
	Value     string
	Confirmer guard.Confirmer // nil uses the session default

	// RosterLoaded
	Championship string
	Token        string
	Teams        []roster.Team
	FetchErr     error

	Enqueued time.Time
	Reply    chan Reply // buffered; nil for fire-and-forget commands
}

// Result is the outcome of a handled command.
type Result struct {
	Decision  guard.Decision
	Policy    visibility.Policy
	State     lifecycle.State
	Snapshot  match.Snapshot
	Duplicate bool
	Stale     bool
}

// Reply carries a Result back to the submitter.
type Reply struct {
	Result Result
	Err    error
}

// NewCommand returns a command with a one-slot reply channel.
func NewCommand(kind CommandKind) Command {
	return Command{Kind: kind, Enqueued: time.Now(), Reply: make(chan Reply, 1)}
}

// Respond delivers a reply without blocking; a submitter that gave up is
// not waited for.
func (c Command) Respond(res Result, err error) {
	if c.Reply == nil {
		return
	}
	select {
	case c.Reply <- Reply{Result: res, Err: err}:
	default:
	}
}
