package match

import (
	"strconv"
	"strings"
)

// Walkover is the tri-state walkover decision. Undecided is not a falsy "no".
type Walkover int

const (
	WalkoverUndecided Walkover = iota
	WalkoverYes
	WalkoverNo
)

func (w Walkover) String() string {
	switch w {
	case WalkoverYes:
		return "yes"
	case WalkoverNo:
		return "no"
	default:
		return "undecided"
	}
}

// ParseWalkover maps a raw select value: empty is undecided, a truthy token
// is yes and any other non-empty value is no.
func ParseWalkover(raw string) Walkover {
	v := strings.TrimSpace(raw)
	switch {
	case v == "":
		return WalkoverUndecided
	case ParseBool(v):
		return WalkoverYes
	default:
		return WalkoverNo
	}
}

// ParseBool accepts the tokens checkboxes and yes/no selects post.
func ParseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "sim", "yes", "on", "1":
		return true
	default:
		return false
	}
}

// FormatBool is the canonical raw value written back for a boolean field.
func FormatBool(b bool) string {
	if b {
		return "true"
	}
	return ""
}

// OptionalInt is a numeric input that may be left blank.
type OptionalInt struct {
	Value int
	Valid bool
}

// Int returns a present OptionalInt.
func Int(v int) OptionalInt { return OptionalInt{Value: v, Valid: true} }

// ParseOptionalInt treats blank or non-numeric input as absent.
func ParseOptionalInt(raw string) OptionalInt {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return OptionalInt{}
	}
	return Int(n)
}

// EqualPresent reports whether both values are present and numerically equal.
func (o OptionalInt) EqualPresent(other OptionalInt) bool {
	return o.Valid && other.Valid && o.Value == other.Value
}

func (o OptionalInt) String() string {
	if !o.Valid {
		return ""
	}
	return strconv.Itoa(o.Value)
}

// SetScore holds one set's score, side A and side B.
type SetScore struct {
	A OptionalInt
	B OptionalInt
}

// Snapshot is an immutable read of every form value at one point in time.
type Snapshot struct {
	Championship string
	Modality     ModalityID
	Started      bool
	TeamA        string
	TeamB        string
	Walkover     Walkover
	WalkoverTeam string
	ScoreA       OptionalInt
	ScoreB       OptionalInt
	TieOccurred  bool
	TieBreakA    OptionalInt
	TieBreakB    OptionalInt
	Winner       string
	Closed       bool
	SetScores    [3]SetScore
}

// Read builds a Snapshot from raw values looked up through get.
func Read(get func(Field) string) Snapshot {
	s := Snapshot{
		Championship: strings.TrimSpace(get(FieldChampionship)),
		Modality:     ModalityID(strings.TrimSpace(get(FieldModality))),
		Started:      ParseBool(get(FieldStarted)),
		TeamA:        strings.TrimSpace(get(FieldTeamA)),
		TeamB:        strings.TrimSpace(get(FieldTeamB)),
		Walkover:     ParseWalkover(get(FieldWalkover)),
		WalkoverTeam: strings.TrimSpace(get(FieldWalkoverTeam)),
		ScoreA:       ParseOptionalInt(get(FieldScoreA)),
		ScoreB:       ParseOptionalInt(get(FieldScoreB)),
		TieOccurred:  ParseBool(get(FieldTieOccurred)),
		TieBreakA:    ParseOptionalInt(get(FieldTieBreakA)),
		TieBreakB:    ParseOptionalInt(get(FieldTieBreakB)),
		Winner:       strings.TrimSpace(get(FieldWinner)),
		Closed:       ParseBool(get(FieldClosed)),
	}
	for i := range s.SetScores {
		s.SetScores[i] = SetScore{
			A: ParseOptionalInt(get(SetFields[2*i])),
			B: ParseOptionalInt(get(SetFields[2*i+1])),
		}
	}
	return s
}

// ReadValues is Read over a plain map.
func ReadValues(values map[Field]string) Snapshot {
	return Read(func(f Field) string { return values[f] })
}

// TeamsReady reports whether both teams are chosen and distinct.
func (s Snapshot) TeamsReady() bool {
	return s.TeamA != "" && s.TeamB != "" && s.TeamA != s.TeamB
}

// ScoresLevel reports whether both scores are present and equal.
func (s Snapshot) ScoresLevel() bool {
	return s.ScoreA.EqualPresent(s.ScoreB)
}
