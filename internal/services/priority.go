package services

import (
	"delivery-route-planner/internal/domain"
	"math"
	"slices"
)

// PriorityFunc scores an address for loading; lower scores load first.
type PriorityFunc func(address string, angle float64, pool *domain.PackageStore) float64

// Priority is a named address ordering used by plan search.
type Priority struct {
	Name string
	Key  PriorityFunc
}

// AddressPriority is one entry of a sorted loading order.
type AddressPriority struct {
	Address string
	Angle   float64
	Key     float64
}

// PriorityAngle sweeps addresses by ascending embedded angle.
func PriorityAngle(_ string, angle float64, _ *domain.PackageStore) float64 {
	return angle
}

// PriorityDeadlineAngle orders by earliest deadline at the address, with the
// angle as a fractional tie-break.
func PriorityDeadlineAngle(address string, angle float64, pool *domain.PackageStore) float64 {
	deadline, _ := earliestDeadline(address, pool)
	return deadline + angle/10
}

// PriorityTruckDeadlineAngle is PriorityDeadlineAngle with truck-pinned
// addresses pulled to the front.
func PriorityTruckDeadlineAngle(address string, angle float64, pool *domain.PackageStore) float64 {
	deadline, pinned := earliestDeadline(address, pool)
	key := deadline + angle/10
	if pinned {
		return key / 10
	}
	return key
}

func earliestDeadline(address string, pool *domain.PackageStore) (float64, bool) {
	deadline := domain.EndOfDay
	pinned := false
	for _, p := range pool.AtAddress(address) {
		deadline = math.Min(deadline, p.Deadline)
		if p.Pinned() {
			pinned = true
		}
	}
	return deadline, pinned
}

// Priorities lists the orderings plan search tries.
func Priorities() []Priority {
	return []Priority{
		{Name: "angle", Key: PriorityAngle},
		{Name: "deadline-angle", Key: PriorityDeadlineAngle},
		{Name: "truck-deadline-angle", Key: PriorityTruckDeadlineAngle},
	}
}

// PrioritizeAddresses scores every address in addresses and sorts them
// ascending; equal scores keep the input order.
func PrioritizeAddresses(addresses []string, coords Embedding, pool *domain.PackageStore, key PriorityFunc) []AddressPriority {
	out := make([]AddressPriority, 0, len(addresses))
	for _, a := range addresses {
		c, ok := coords[a]
		if !ok {
			continue
		}
		out = append(out, AddressPriority{
			Address: a,
			Angle:   c.Angle,
			Key:     key(a, c.Angle, pool),
		})
	}

	slices.SortStableFunc(out, func(x, y AddressPriority) int {
		switch {
		case x.Key < y.Key:
			return -1
		case x.Key > y.Key:
			return 1
		}
		return 0
	})
	return out
}
