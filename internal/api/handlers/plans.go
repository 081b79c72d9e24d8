package handlers

import (
	"delivery-route-planner/internal/api/dto"
	"delivery-route-planner/internal/domain"
	"delivery-route-planner/internal/services"
	"math"
	"net/http"
)

type PlanHandler struct {
	Route *services.Route
}

// Plan returns the committed segments with their stop timelines.
func (h *PlanHandler) Plan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	summary := h.Route.Summary()
	res := dto.PlanResponse{
		TotalMiles: roundMiles(h.Route.TotalLength()),
		TruckMiles: make(map[int]float64),
		Segments:   make([]dto.SegmentResponse, 0, len(summary)),
	}
	for id, miles := range h.Route.Mileage() {
		res.TruckMiles[id] = roundMiles(miles)
	}

	for _, s := range summary {
		seg := dto.SegmentResponse{
			TruckID:         s.Truck,
			DepartAt:        domain.FormatClock(s.Start),
			ReturnAt:        domain.FormatClock(s.End),
			LengthMiles:     roundMiles(s.Length),
			MissedDeadlines: s.MissedDeadlines,
			PackageIDs:      s.PackageIDs,
			Stops:           make([]dto.PlanStopResponse, 0, len(s.Stops)),
		}
		for _, st := range s.Stops {
			ids := st.PackageIDs
			if ids == nil {
				ids = []int{}
			}
			seg.Stops = append(seg.Stops, dto.PlanStopResponse{
				Address:    st.Address,
				ArriveAt:   domain.FormatClock(st.Arrival),
				PackageIDs: ids,
			})
		}
		res.MissedDeadlines += s.MissedDeadlines
		res.Segments = append(res.Segments, seg)
	}

	writeJSON(w, r, http.StatusOK, res)
}

func roundMiles(m float64) float64 {
	return math.Round(m*10) / 10
}
