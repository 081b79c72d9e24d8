package services

import (
	"delivery-route-planner/internal/domain"
	"errors"
	"fmt"
	"math"
	"slices"
)

// SegmentEvaluator simulates a truck driving a segment's stop sequence.
type SegmentEvaluator struct {
	table *DistanceTable
}

func NewSegmentEvaluator(table *DistanceTable) *SegmentEvaluator {
	return &SegmentEvaluator{table: table}
}

// Simulate computes arrival and delivery times, length, end time and missed
// deadlines for seg. Results are written to the segment and its private
// package copies only.
//
// With optimize set, every cyclic rotation of the interior stops is tried and
// the one with the fewest missed deadlines (then shortest length) is kept. If
// that rotation still misses a deadline, the interior is reordered by each
// stop's earliest deadline instead, trading length for punctuality.
func (e *SegmentEvaluator) Simulate(seg *domain.Segment, optimize bool) error {
	if !optimize {
		return e.simulate(seg)
	}

	best, err := e.bestRotation(seg)
	if err != nil {
		return err
	}

	seg.Stops = best
	if err := e.simulate(seg); err != nil {
		return err
	}
	if seg.MissedDeadlines == 0 {
		return nil
	}

	seg.Stops = deadlineOrder(seg)
	return e.simulate(seg)
}

// Commit re-simulates seg as planned and writes its delivery times into the
// canonical store. The truck's mileage grows by the segment length.
func (e *SegmentEvaluator) Commit(seg *domain.Segment, store *domain.PackageStore) error {
	if err := e.simulate(seg); err != nil {
		return fmt.Errorf("commit segment: %w", err)
	}

	for _, id := range seg.PackageIDs() {
		at, ok := seg.Deliveries[id]
		if !ok {
			return fmt.Errorf("commit segment: package %d has no stop on truck %d's route", id, seg.Truck.TruckID)
		}
		if err := store.SetDelivery(id, at); err != nil {
			return fmt.Errorf("commit segment: %w", err)
		}
	}

	if err := seg.Truck.Drive(seg.Length); err != nil {
		return fmt.Errorf("commit segment: %w", err)
	}
	return nil
}

func (e *SegmentEvaluator) simulate(seg *domain.Segment) error {
	if seg.Truck == nil {
		return errors.New("simulate segment: truck must be non-nil")
	}
	if len(seg.Stops) < 2 {
		return fmt.Errorf("simulate segment: truck %d: need depot at both ends, got %d stops", seg.Truck.TruckID, len(seg.Stops))
	}

	byAddress := seg.ByAddress()
	deliveries := make(map[int]float64, len(seg.Packages))
	arrivals := make([]float64, len(seg.Stops))

	clock := seg.StartTime
	length := 0.0
	missed := 0

	for i, stop := range seg.Stops {
		if i > 0 {
			d, err := e.table.Distance(seg.Stops[i-1], stop)
			if err != nil {
				return fmt.Errorf("simulate segment: truck %d: %w", seg.Truck.TruckID, err)
			}
			length += d
			clock += seg.Truck.Travel(d)
		}
		arrivals[i] = clock
		if i == 0 {
			// Nothing is delivered on departure; depot packages drop off on return.
			continue
		}

		for _, p := range byAddress[stop] {
			if _, done := deliveries[p.PackageID]; done {
				continue
			}
			deliveries[p.PackageID] = clock
			if p.Deadline < clock {
				missed++
			}
		}
	}

	for i := range seg.Packages {
		if at, ok := deliveries[seg.Packages[i].PackageID]; ok {
			seg.Packages[i].DeliveryTime = at
		}
	}

	seg.Length = length
	seg.EndTime = clock
	seg.MissedDeadlines = missed
	seg.MeetsDeadlines = missed == 0
	seg.Arrivals = arrivals
	seg.Deliveries = deliveries
	return nil
}

// bestRotation evaluates every rotation of the interior stops, starting with
// the identity, and returns the best stop list. seg is left simulated on it.
func (e *SegmentEvaluator) bestRotation(seg *domain.Segment) ([]string, error) {
	original := slices.Clone(seg.Stops)
	interior := len(original) - 2
	if interior <= 1 {
		return original, nil
	}

	var best []string
	bestMissed := math.MaxInt
	bestLength := math.Inf(1)

	for shift := 0; shift < interior; shift++ {
		seg.Stops = rotateInterior(original, shift)
		if err := e.simulate(seg); err != nil {
			return nil, err
		}
		if seg.MissedDeadlines < bestMissed ||
			(seg.MissedDeadlines == bestMissed && seg.Length < bestLength) {
			best = seg.Stops
			bestMissed = seg.MissedDeadlines
			bestLength = seg.Length
		}
	}

	return best, nil
}

// rotateInterior shifts the stops between the fixed first and last entries
// right by shift places.
func rotateInterior(stops []string, shift int) []string {
	if len(stops) <= 3 {
		return slices.Clone(stops)
	}

	interior := stops[1 : len(stops)-1]
	k := len(interior)
	shift %= k
	if shift < 0 {
		shift += k
	}

	out := make([]string, 0, len(stops))
	out = append(out, stops[0])
	out = append(out, interior[k-shift:]...)
	out = append(out, interior[:k-shift]...)
	out = append(out, stops[len(stops)-1])
	return out
}

// deadlineOrder sorts the interior stops by their earliest package deadline,
// keeping the current order among equal deadlines. Stops without packages
// have no constraint and go last.
func deadlineOrder(seg *domain.Segment) []string {
	stops := seg.Stops
	if len(stops) <= 3 {
		return slices.Clone(stops)
	}

	effective := make(map[string]float64)
	for _, p := range seg.Packages {
		d, ok := effective[p.Address]
		if !ok || p.Deadline < d {
			effective[p.Address] = p.Deadline
		}
	}
	deadlineOf := func(address string) float64 {
		if d, ok := effective[address]; ok {
			return d
		}
		return math.Inf(1)
	}

	interior := slices.Clone(stops[1 : len(stops)-1])
	slices.SortStableFunc(interior, func(a, b string) int {
		da, db := deadlineOf(a), deadlineOf(b)
		switch {
		case da < db:
			return -1
		case da > db:
			return 1
		}
		return 0
	})

	out := make([]string, 0, len(stops))
	out = append(out, stops[0])
	out = append(out, interior...)
	out = append(out, stops[len(stops)-1])
	return out
}
