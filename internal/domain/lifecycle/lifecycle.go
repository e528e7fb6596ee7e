// Package lifecycle names the coarse states a match record moves through
// and the edges between them.
package lifecycle

import "github.com/okian/placar/internal/domain/match"

// State of a match record as seen by the form.
type State string

const (
	NotStarted               State = "not_started"
	AwaitingWalkoverDecision State = "awaiting_walkover_decision"
	NoScoreWinnerPending     State = "no_score_winner_pending"
	NoScoreWalkoverPending   State = "no_score_walkover_pending"
	ScorePending             State = "score_pending"
	ScoreWalkoverPending     State = "score_walkover_pending"
	ScoreTiePending          State = "score_tie_pending"
	Closed                   State = "closed"
)

// States lists every state in lifecycle order.
var States = []State{
	NotStarted,
	AwaitingWalkoverDecision,
	NoScoreWinnerPending,
	NoScoreWalkoverPending,
	ScorePending,
	ScoreWalkoverPending,
	ScoreTiePending,
	Closed,
}

var pending = []State{
	NoScoreWinnerPending,
	NoScoreWalkoverPending,
	ScorePending,
	ScoreWalkoverPending,
	ScoreTiePending,
}

// Classify maps a snapshot onto its lifecycle state.
func Classify(s match.Snapshot, meta match.Metadata) State {
	switch {
	case !s.Started:
		return NotStarted
	case s.Closed:
		return Closed
	case s.Walkover == match.WalkoverUndecided:
		return AwaitingWalkoverDecision
	}

	if !meta.Lookup(s.Modality).HasScore {
		if s.Walkover == match.WalkoverYes {
			return NoScoreWalkoverPending
		}
		return NoScoreWinnerPending
	}
	switch {
	case s.Walkover == match.WalkoverYes:
		return ScoreWalkoverPending
	case s.TieOccurred:
		return ScoreTiePending
	default:
		return ScorePending
	}
}

// edges is the transition table. Staying put is always allowed and not listed.
var edges = func() map[State]map[State]bool {
	t := make(map[State]map[State]bool, len(States))
	add := func(from State, to ...State) {
		if t[from] == nil {
			t[from] = make(map[State]bool)
		}
		for _, s := range to {
			t[from][s] = true
		}
	}

	add(NotStarted, AwaitingWalkoverDecision)
	add(AwaitingWalkoverDecision, pending...)
	add(AwaitingWalkoverDecision, Closed, NotStarted)
	for _, p := range pending {
		// Walkover and modality edits move between pending states; a walkover
		// reset returns to the decision.
		add(p, pending...)
		add(p, AwaitingWalkoverDecision, Closed, NotStarted)
	}
	// Reopening returns to whichever state the values describe.
	add(Closed, AwaitingWalkoverDecision, NotStarted)
	add(Closed, pending...)
	return t
}()

// Allowed reports whether a record may move from one state to another.
func Allowed(from, to State) bool {
	if from == to {
		return true
	}
	return edges[from][to]
}

// Next lists the states reachable from s in one step, in lifecycle order.
func Next(s State) []State {
	var out []State
	for _, to := range States {
		if to != s && edges[s][to] {
			out = append(out, to)
		}
	}
	return out
}
