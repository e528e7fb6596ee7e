package match

import "errors"

// Sentinel kinds for match errors.
var (
	ErrUnknownField      = errors.New("unknown field")
	ErrMalformedMetadata = errors.New("malformed modality metadata")
)
