package visibility

import "github.com/okian/placar/internal/domain/match"

// Derive computes the field policy for s. It is pure and total; the first
// terminal branch wins.
func Derive(s match.Snapshot, meta match.Metadata) Policy {
	var p Policy
	for _, f := range match.BaseFields {
		p.show(f, false)
	}

	if !s.Started {
		return p
	}

	p.show(match.FieldWalkover, true)
	if s.Walkover == match.WalkoverUndecided {
		return p
	}

	mod := meta.Lookup(s.Modality)
	walkover := s.Walkover == match.WalkoverYes

	if !mod.HasScore {
		if walkover {
			p.show(match.FieldWalkoverTeam, true)
		} else {
			p.show(match.FieldWinner, true)
		}
		p.show(match.FieldClosed, false)
		return p
	}

	if walkover {
		p.show(match.FieldWalkoverTeam, true)
		p.show(match.FieldClosed, false)
		return p
	}

	p.show(match.FieldScoreA, true)
	p.show(match.FieldScoreB, true)
	p.show(match.FieldTieOccurred, false)
	p.show(match.FieldClosed, false)

	if s.TieOccurred {
		p.show(match.FieldTieBreakA, true)
		p.show(match.FieldTieBreakB, true)
		// scores freeze once a tie is declared
		p.lock(match.FieldScoreA)
		p.lock(match.FieldScoreB)
	}

	if mod.HasSets {
		for _, f := range match.SetFields {
			p.show(f, false)
		}
	}
	return p
}
