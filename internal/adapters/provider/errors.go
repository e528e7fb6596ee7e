package provider

import "errors"

// Sentinel kinds for roster provider errors.
var (
	ErrUpstream      = errors.New("roster upstream error")
	ErrUnknownSource = errors.New("unknown roster source")
)
