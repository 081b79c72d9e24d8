package services

import (
	"delivery-route-planner/internal/domain"
	"math"
)

// PackageStatus is a package's state at a queried hour.
type PackageStatus struct {
	Package    domain.Package
	Truck      int
	Departure  float64
	Status     domain.Status
	DeliveryAt float64
}

// StatusOf classifies a package whose segment leaves at start and reaches the
// package at delivery.
func StatusOf(start, delivery, t float64) domain.Status {
	switch {
	case t < start:
		return domain.NotDelivered
	case t >= delivery:
		return domain.Delivered
	default:
		return domain.InTransit
	}
}

// StatusAt reports every package's status at hour t, ordered by package id.
// Packages outside the committed plan are reported as not delivered.
func (r *Route) StatusAt(t float64) []PackageStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := r.Packages.All()
	out := make([]PackageStatus, 0, len(all))
	for _, p := range all {
		ps := PackageStatus{
			Package:    p,
			Status:     domain.NotDelivered,
			Departure:  math.Inf(1),
			DeliveryAt: p.DeliveryTime,
		}
		if seg, ok := r.Plan.SegmentOf(p.PackageID); ok {
			ps.Truck = seg.Truck.TruckID
			ps.Departure = seg.StartTime
			ps.Status = StatusOf(seg.StartTime, p.DeliveryTime, t)
		}
		out = append(out, ps)
	}
	return out
}

// StopSummary is one visited address on a segment.
type StopSummary struct {
	Address    string
	Arrival    float64
	PackageIDs []int
}

// SegmentSummary describes one truck trip of the committed plan.
type SegmentSummary struct {
	Truck           int
	Start           float64
	End             float64
	Length          float64
	MissedDeadlines int
	PackageIDs      []int
	Stops           []StopSummary
}

// Summary lists the committed segments in plan order.
func (r *Route) Summary() []SegmentSummary {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]SegmentSummary, 0, len(r.Plan))
	for _, seg := range r.Plan {
		s := SegmentSummary{
			Truck:           seg.Truck.TruckID,
			Start:           seg.StartTime,
			End:             seg.EndTime,
			Length:          seg.Length,
			MissedDeadlines: seg.MissedDeadlines,
			PackageIDs:      seg.PackageIDs(),
			Stops:           make([]StopSummary, 0, len(seg.Stops)),
		}

		delivered := make(map[int]struct{}, len(seg.Packages))
		byAddress := seg.ByAddress()
		for i, stop := range seg.Stops {
			st := StopSummary{Address: stop}
			if i < len(seg.Arrivals) {
				st.Arrival = seg.Arrivals[i]
			}
			if i == 0 {
				s.Stops = append(s.Stops, st)
				continue
			}
			for _, p := range byAddress[stop] {
				if _, done := delivered[p.PackageID]; done {
					continue
				}
				delivered[p.PackageID] = struct{}{}
				st.PackageIDs = append(st.PackageIDs, p.PackageID)
			}
			s.Stops = append(s.Stops, st)
		}
		out = append(out, s)
	}
	return out
}

// TotalLength is the committed plan's length in miles.
func (r *Route) TotalLength() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Plan.Length()
}

// Mileage returns each truck's accumulated miles keyed by truck id.
func (r *Route) Mileage() map[int]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[int]float64, len(r.Trucks))
	for _, t := range r.Trucks {
		out[t.TruckID] = t.Miles
	}
	return out
}
