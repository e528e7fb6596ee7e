// Package api exposes match-entry forms over HTTP and websocket.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	service "github.com/okian/placar/internal/app"
	"github.com/okian/placar/internal/domain/match"
	"github.com/okian/placar/internal/domain/roster"
	"github.com/okian/placar/pkg/logger"
)

// Dependencies required by HTTP handlers.
type Dependencies interface {
	StatsProvider

	Open(ctx context.Context, req service.OpenRequest) (*service.Session, error)
	Session(ctx context.Context, id string) (*service.Session, error)
	Close(ctx context.Context, id string) error

	Metadata() match.Metadata
	Teams(ctx context.Context, championshipID string) ([]roster.Team, error)
}

// Server wires HTTP routes for the form API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	formsHandler  *FormsHandler
	wsHandler     *WSHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, l logger.Logger) *Server {
	if l == nil {
		l = logger.Get().Named("api")
	}
	return &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(deps),
		formsHandler:  NewFormsHandler(deps, l),
		wsHandler:     NewWSHandler(deps, l),
	}
}

// Register attaches all API routes to r.
func (s *Server) Register(_ context.Context, r chi.Router) {
	r.Use(MetricsMiddleware)

	r.Get("/healthz", s.healthHandler.HandleHealth)
	r.Get("/metrics", s.healthHandler.HandleMetrics)
	r.Get("/stats", s.statsHandler.HandleStats)

	r.Get("/modalities", s.formsHandler.HandleModalities)
	r.Get("/championships/{id}/teams", s.formsHandler.HandleTeams)

	r.Route("/forms", func(r chi.Router) {
		r.Post("/", s.formsHandler.HandleOpen)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.formsHandler.HandleGet)
			r.Delete("/", s.formsHandler.HandleClose)
			r.Post("/changes", s.formsHandler.HandleChange)
			r.Get("/ws", s.wsHandler.ServeHTTP)
		})
	})
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError maps service failures onto status codes.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
	case errors.Is(err, service.ErrBackpressure):
		writeError(w, http.StatusTooManyRequests, "backpressure", WrapKind(op, ErrBackpressure, err))
	case errors.Is(err, service.ErrSessionClosed):
		writeError(w, http.StatusGone, "gone", WrapKind(op, ErrGone, err))
	case errors.Is(err, match.ErrUnknownField):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal", err)
	}
}
