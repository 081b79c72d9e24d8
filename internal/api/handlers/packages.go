package handlers

import (
	"delivery-route-planner/internal/api/dto"
	"delivery-route-planner/internal/domain"
	"delivery-route-planner/internal/services"
	"net/http"
	"strings"
)

// PackageHandler reports package status against the committed plan.
type PackageHandler struct {
	Route *services.Route
}

// List returns every package ordered by id. The optional "at" query (HH:MM)
// selects the time of day; it defaults to end of day.
func (h *PackageHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	at := domain.EndOfDay
	if q := strings.TrimSpace(r.URL.Query().Get("at")); q != "" {
		t, err := domain.ParseClock(q)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "at must be HH:MM")
			return
		}
		at = t
	}

	statuses := h.Route.StatusAt(at)
	res := dto.ListPackagesResponse{
		At:       domain.FormatClock(at),
		Packages: make([]dto.PackageResponse, 0, len(statuses)),
	}
	for _, ps := range statuses {
		p := ps.Package
		item := dto.PackageResponse{
			PackageID:   p.PackageID,
			Address:     p.Address,
			City:        p.City,
			Zip:         p.Zip,
			Weight:      p.Weight,
			Deadline:    domain.FormatClock(p.Deadline),
			Status:      ps.Status.String(),
			Truck:       ps.Truck,
			DepartAt:    domain.FormatClock(ps.Departure),
			ScheduledAt: domain.FormatClock(ps.DeliveryAt),
			Note:        p.Note,
		}
		if ps.Status == domain.Delivered {
			item.DeliveredAt = item.ScheduledAt
		}
		res.Packages = append(res.Packages, item)
	}

	writeJSON(w, r, http.StatusOK, res)
}
