package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/cabina/internal/adapters/repository"
	"github.com/okian/cabina/internal/domain/model"
)

const (
	defaultIncidentLimit = 20
	maxIncidentLimit     = 100
)

// IncidentDependencies reads recorded incidents.
type IncidentDependencies interface {
	Incidents(ctx context.Context, limit int) ([]model.Incident, error)
	Incident(ctx context.Context, id string) (model.Incident, error)
}

// IncidentsHandler handles the incident read endpoints.
type IncidentsHandler struct {
	deps IncidentDependencies
}

// NewIncidentsHandler creates a new incidents handler.
func NewIncidentsHandler(deps IncidentDependencies) *IncidentsHandler {
	return &IncidentsHandler{deps: deps}
}

type incidentsResponse struct {
	Items []model.Incident `json:"items"`
	Count int              `json:"count"`
}

// HandleList handles GET /api/incidents?limit=N.
func (h *IncidentsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	limit := defaultIncidentLimit
	if q := r.URL.Query().Get("limit"); q != "" {
		v, err := strconv.Atoi(q)
		if err != nil || v <= 0 || v > maxIncidentLimit {
			writeError(w, http.StatusBadRequest, "bad_request",
				fmt.Errorf("%w: limit must be between 1 and %d", ErrBadRequest, maxIncidentLimit))
			return
		}
		limit = v
	}

	items, err := h.deps.Incidents(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	if items == nil {
		items = []model.Incident{}
	}
	writeJSON(w, http.StatusOK, incidentsResponse{Items: items, Count: len(items)})
}

// HandleGet handles GET /api/incidents/{id}.
func (h *IncidentsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/incidents/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	inc, err := h.deps.Incident(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, inc)
}
