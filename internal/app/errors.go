package service

import (
	"errors"

	"github.com/okian/placar/internal/adapters/repository"
)

// Sentinel kinds returned by the service.
var (
	ErrNotStarted      = errors.New("service not started")
	ErrBackpressure    = errors.New("session command queue is full")
	ErrSessionClosed   = errors.New("session closed")
	ErrSessionNotFound = repository.ErrSessionNotFound
)
