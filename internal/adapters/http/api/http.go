// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	ControlDependencies
	StateDependencies
	AnalyzeDependencies
	EmergencyDependencies
	IncidentDependencies
	StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	controlHandler   *ControlHandler
	stateHandler     *StateHandler
	analyzeHandler   *AnalyzeHandler
	emergencyHandler *EmergencyHandler
	incidentsHandler *IncidentsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...AnalyzeOption) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(deps),
		controlHandler:   NewControlHandler(deps),
		stateHandler:     NewStateHandler(deps),
		analyzeHandler:   NewAnalyzeHandler(deps, opts...),
		emergencyHandler: NewEmergencyHandler(deps),
		incidentsHandler: NewIncidentsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/api/start", MetricsMiddleware(s.controlHandler.HandleStart, "start"))
	mux.HandleFunc("/api/stop", MetricsMiddleware(s.controlHandler.HandleStop, "stop"))
	mux.HandleFunc("/api/state", MetricsMiddleware(s.stateHandler.HandleGetState, "state"))
	mux.HandleFunc("/api/analyze", MetricsMiddleware(s.analyzeHandler.HandleAnalyze, "analyze"))
	mux.HandleFunc("/api/emergency", MetricsMiddleware(s.emergencyHandler.HandleEmergency, "emergency"))
	mux.HandleFunc("/api/incidents", MetricsMiddleware(s.incidentsHandler.HandleList, "incidents"))
	mux.HandleFunc("/api/incidents/", MetricsMiddleware(s.incidentsHandler.HandleGet, "incident"))
}

type statusResponse struct {
	Status string `json:"status"`
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
