package form

import (
	"errors"
	"fmt"

	"github.com/okian/placar/internal/domain/match"
)

// Sentinel kinds for controller errors.
var (
	ErrUnbound = errors.New("field has no accessor")
)

// UnboundError names the field missing from a Bindings table.
type UnboundError struct {
	Field match.Field
}

func (e *UnboundError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUnbound, e.Field)
}

func (e *UnboundError) Unwrap() error { return ErrUnbound }
