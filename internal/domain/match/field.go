// Package match contains the match-entry form vocabulary: field names,
// modality metadata and the snapshot read from the live form.
package match

import "fmt"

// Field names a single input of the match-entry form.
type Field string

// Form fields. Values double as the wire names used by the HTTP API.
const (
	FieldChampionship Field = "championship"
	FieldModality     Field = "modality"
	FieldStarted      Field = "started"
	FieldTeamA        Field = "team_a"
	FieldTeamB        Field = "team_b"
	FieldWalkover     Field = "walkover"
	FieldWalkoverTeam Field = "walkover_team"
	FieldScoreA       Field = "score_a"
	FieldScoreB       Field = "score_b"
	FieldTieOccurred  Field = "tie_occurred"
	FieldTieBreakA    Field = "tie_break_a"
	FieldTieBreakB    Field = "tie_break_b"
	FieldWinner       Field = "winner"
	FieldClosed       Field = "closed"
	FieldSet1A        Field = "set1_a"
	FieldSet1B        Field = "set1_b"
	FieldSet2A        Field = "set2_a"
	FieldSet2B        Field = "set2_b"
	FieldSet3A        Field = "set3_a"
	FieldSet3B        Field = "set3_b"
)

// SetFields lists the per-set score inputs, first set first, side A before B.
var SetFields = []Field{
	FieldSet1A, FieldSet1B,
	FieldSet2A, FieldSet2B,
	FieldSet3A, FieldSet3B,
}

// BaseFields are always visible, whatever the rest of the form holds.
var BaseFields = []Field{FieldModality, FieldStarted, FieldTeamA, FieldTeamB}

// ManagedFields is every field whose visibility the policy governs, in form order.
var ManagedFields = []Field{
	FieldModality, FieldStarted, FieldTeamA, FieldTeamB,
	FieldWalkover, FieldWalkoverTeam,
	FieldScoreA, FieldScoreB,
	FieldTieOccurred, FieldTieBreakA, FieldTieBreakB,
	FieldSet1A, FieldSet1B, FieldSet2A, FieldSet2B, FieldSet3A, FieldSet3B,
	FieldWinner, FieldClosed,
}

// TeamFields are the selects populated from the championship roster.
var TeamFields = []Field{FieldTeamA, FieldTeamB, FieldWalkoverTeam, FieldWinner}

// AllFields is ManagedFields plus the unmanaged championship selector.
var AllFields = append([]Field{FieldChampionship}, ManagedFields...)

var known = func() map[Field]struct{} {
	m := make(map[Field]struct{}, len(AllFields))
	for _, f := range AllFields {
		m[f] = struct{}{}
	}
	return m
}()

// Known reports whether f is one of the form's fields.
func (f Field) Known() bool {
	_, ok := known[f]
	return ok
}

// Managed reports whether the visibility policy governs f.
func (f Field) Managed() bool {
	return f.Known() && f != FieldChampionship
}

// IsTeam reports whether f is a roster-backed select.
func (f Field) IsTeam() bool {
	for _, t := range TeamFields {
		if t == f {
			return true
		}
	}
	return false
}

// ParseField validates a wire name.
func ParseField(name string) (Field, error) {
	f := Field(name)
	if !f.Known() {
		return "", fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return f, nil
}
