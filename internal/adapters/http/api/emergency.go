package api

import (
	"context"
	"net/http"

	"github.com/okian/cabina/internal/domain/model"
)

// EmergencyDependencies escalates the current state on request.
type EmergencyDependencies interface {
	Emergency(ctx context.Context) (model.Incident, error)
}

// EmergencyHandler handles POST /api/emergency.
type EmergencyHandler struct {
	deps EmergencyDependencies
}

// NewEmergencyHandler creates a new emergency handler.
func NewEmergencyHandler(deps EmergencyDependencies) *EmergencyHandler {
	return &EmergencyHandler{deps: deps}
}

type emergencyResponse struct {
	Status     string `json:"status"`
	Action     string `json:"action"`
	Number     string `json:"number"`
	IncidentID string `json:"incident_id"`
}

// HandleEmergency activates the emergency protocol.
func (h *EmergencyHandler) HandleEmergency(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	inc, err := h.deps.Emergency(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, emergencyResponse{
		Status:     "emergency_activated",
		Action:     "calling_crisis_line",
		Number:     inc.Number,
		IncidentID: inc.ID,
	})
}
