package api

import (
	"net/http"

	"github.com/okian/cabina/internal/domain/model"
	"github.com/okian/cabina/internal/domain/protocol"
)

// StateDependencies exposes the latest published snapshot.
type StateDependencies interface {
	Latest() model.Snapshot
	Running() bool
}

// StateHandler handles GET /api/state.
type StateHandler struct {
	deps StateDependencies
}

// NewStateHandler creates a new state handler.
func NewStateHandler(deps StateDependencies) *StateHandler {
	return &StateHandler{deps: deps}
}

type stateResponse struct {
	model.Snapshot
	Running  bool              `json:"running"`
	Protocol protocol.Protocol `json:"protocol"`
}

// HandleGetState returns the latest snapshot with its response protocol.
func (h *StateHandler) HandleGetState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	snap := h.deps.Latest()
	writeJSON(w, http.StatusOK, stateResponse{
		Snapshot: snap,
		Running:  h.deps.Running(),
		Protocol: protocol.For(snap.Result.State),
	})
}
