package api

import "net/http"

// ControlDependencies starts and stops the monitor loop.
type ControlDependencies interface {
	// StartMonitor returns false when the loop was already running.
	StartMonitor() bool
	StopMonitor() bool
}

// ControlHandler handles the start and stop endpoints.
type ControlHandler struct {
	deps ControlDependencies
}

// NewControlHandler creates a new control handler.
func NewControlHandler(deps ControlDependencies) *ControlHandler {
	return &ControlHandler{deps: deps}
}

// HandleStart handles POST /api/start.
func (h *ControlHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	status := "started"
	if !h.deps.StartMonitor() {
		status = "already_running"
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: status})
}

// HandleStop handles POST /api/stop. Stopping an idle monitor is not an error.
func (h *ControlHandler) HandleStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	h.deps.StopMonitor()
	writeJSON(w, http.StatusOK, statusResponse{Status: "stopped"})
}
