package handlers

import (
	"delivery-route-planner/internal/services"
	"net/http"
)

// HealthHandler reports readiness once the route has a committed plan.
type HealthHandler struct {
	Route *services.Route
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if h.Route == nil || !h.Route.Built() {
		writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{"status": "planning"})
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}
