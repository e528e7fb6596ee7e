package guard

import "errors"

// Sentinel kinds for rejected or unconfirmed transitions.
var (
	ErrTeamsRequired        = errors.New("both teams must be selected before starting")
	ErrSameTeam             = errors.New("team A and team B must differ")
	ErrTieScoresUnequal     = errors.New("tie requires equal scores")
	ErrReadOnly             = errors.New("field is read-only")
	ErrNotStarted           = errors.New("match has not started")
	ErrDeclined             = errors.New("confirmation declined")
	ErrConfirmationRequired = errors.New("confirmation required")
)
