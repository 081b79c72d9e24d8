package api

import (
	"delivery-route-planner/internal/api/handlers"
	"delivery-route-planner/internal/services"
	"net/http"
)

// NewRouter wires the reporting handlers over a built route. metrics may be
// nil, in which case /metrics is not served.
func NewRouter(route *services.Route, metrics http.Handler) http.Handler {
	mux := http.NewServeMux()

	healthHandler := &handlers.HealthHandler{Route: route}
	pkgHandler := &handlers.PackageHandler{Route: route}
	planHandler := &handlers.PlanHandler{Route: route}

	mux.HandleFunc("/health", healthHandler.Health)
	mux.HandleFunc("/packages", pkgHandler.List)
	mux.HandleFunc("/plans", planHandler.Plan)
	if metrics != nil {
		mux.Handle("/metrics", metrics)
	}

	return loggingMiddleware(mux)
}
