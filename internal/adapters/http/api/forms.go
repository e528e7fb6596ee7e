package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/okian/placar/internal/adapters/surface"
	service "github.com/okian/placar/internal/app"
	"github.com/okian/placar/internal/domain/guard"
	"github.com/okian/placar/internal/domain/lifecycle"
	"github.com/okian/placar/internal/domain/match"
	"github.com/okian/placar/internal/domain/model"
	"github.com/okian/placar/internal/domain/roster"
	"github.com/okian/placar/pkg/logger"
)

// openRequest mirrors the OpenAPI schema for POST /forms. The two metadata
// maps are the raw JSON the back office embeds; either one switches the
// form to per-form metadata.
type openRequest struct {
	Championship string            `json:"championship"`
	Values       map[string]string `json:"values"`
	HasScoreMap  json.RawMessage   `json:"has_score_map,omitempty"`
	HasSetsMap   json.RawMessage   `json:"has_sets_map,omitempty"`
}

// changeRequest mirrors the OpenAPI schema for POST /forms/{id}/changes.
type changeRequest struct {
	ID      string `json:"id"`
	Field   string `json:"field"`
	Value   string `json:"value"`
	Confirm *bool  `json:"confirm,omitempty"`
}

type formResponse struct {
	ID    string          `json:"id"`
	State lifecycle.State `json:"state"`
	Form  surface.View    `json:"form"`
}

type changeResponse struct {
	Code      string          `json:"code,omitempty"`
	Outcome   guard.Outcome   `json:"outcome"`
	Duplicate bool            `json:"duplicate"`
	State     lifecycle.State `json:"state"`
	Message   string          `json:"message,omitempty"`
	Prompt    *guard.Prompt   `json:"prompt,omitempty"`
	Resets    []match.Field   `json:"resets,omitempty"`
	Form      surface.View    `json:"form"`
}

// FormsHandler serves form sessions.
type FormsHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewFormsHandler creates a new forms handler.
func NewFormsHandler(deps Dependencies, l logger.Logger) *FormsHandler {
	return &FormsHandler{deps: deps, logger: l}
}

// HandleModalities handles GET /modalities.
func (h *FormsHandler) HandleModalities(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Metadata().List())
}

// HandleTeams handles GET /championships/{id}/teams.
func (h *FormsHandler) HandleTeams(w http.ResponseWriter, r *http.Request) {
	const op = "api.teams"
	teams, err := h.deps.Teams(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadGateway, "upstream", fmt.Errorf("%s: %w", op, err))
		return
	}
	if teams == nil {
		teams = []roster.Team{}
	}
	writeJSON(w, http.StatusOK, teams)
}

// HandleOpen handles POST /forms.
func (h *FormsHandler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	const op = "api.open_form"
	var req openRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
	}

	values := make(map[match.Field]string, len(req.Values))
	for k, v := range req.Values {
		f, err := match.ParseField(k)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		values[f] = v
	}

	open := service.OpenRequest{Championship: strings.TrimSpace(req.Championship), Values: values}
	if len(req.HasScoreMap) > 0 || len(req.HasSetsMap) > 0 {
		meta, err := match.ParseMetadata(req.HasScoreMap, req.HasSetsMap)
		if err != nil {
			h.logger.Warn(r.Context(), "malformed modality metadata, using what parsed", logger.Error(err))
		}
		open.Metadata = &meta
	}

	sess, err := h.deps.Open(r.Context(), open)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, formResponse{ID: sess.ID(), State: sess.Current().State, Form: sess.View()})
}

// HandleGet handles GET /forms/{id}.
func (h *FormsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_form"
	sess, err := h.deps.Session(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, formResponse{ID: sess.ID(), State: sess.Current().State, Form: sess.View()})
}

// HandleClose handles DELETE /forms/{id}.
func (h *FormsHandler) HandleClose(w http.ResponseWriter, r *http.Request) {
	const op = "api.close_form"
	if err := h.deps.Close(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleChange handles POST /forms/{id}/changes. Without an explicit
// confirm, a change that needs confirmation answers 409 with the prompt and
// can be resubmitted with the same id and an answer.
func (h *FormsHandler) HandleChange(w http.ResponseWriter, r *http.Request) {
	const op = "api.change"
	sess, err := h.deps.Session(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, op, err)
		return
	}

	var req changeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	f, err := match.ParseField(req.Field)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	var cf guard.Confirmer
	if req.Confirm != nil {
		cf = guard.Answer(*req.Confirm)
	}

	res, err := sess.Change(r.Context(), req.ID, f, req.Value, cf)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}

	status, body := changeOutcome(res, sess.View())
	writeJSON(w, status, body)
}

// changeOutcome maps a handled change onto a status code and body.
func changeOutcome(res model.Result, view surface.View) (int, changeResponse) {
	d := res.Decision
	body := changeResponse{
		Outcome:   d.Outcome,
		Duplicate: res.Duplicate,
		State:     res.State,
		Message:   d.Message,
		Prompt:    d.Prompt,
		Resets:    d.Resets,
		Form:      view,
	}
	switch {
	case res.Duplicate:
		body.Outcome = ""
		return http.StatusOK, body
	case errors.Is(d.Err, guard.ErrConfirmationRequired):
		body.Code = "confirmation_required"
		body.Message = ErrConfirmation.Error()
		return http.StatusConflict, body
	case d.Outcome == guard.Rejected:
		body.Code = "rejected"
		return http.StatusUnprocessableEntity, body
	default:
		return http.StatusOK, body
	}
}
