package services

import (
	"delivery-route-planner/internal/domain"
	"errors"
	"fmt"
	"math"
)

// Dispatch is a truck becoming available at the depot at a given hour.
type Dispatch struct {
	Truck *domain.Truck
	At    float64
}

// DispatchQueue is the FIFO of trucks waiting to open a segment.
type DispatchQueue []Dispatch

func (q *DispatchQueue) Len() int { return len(*q) }

func (q *DispatchQueue) Pop() (Dispatch, bool) {
	if len(*q) == 0 {
		return Dispatch{}, false
	}
	d := (*q)[0]
	*q = (*q)[1:]
	return d, true
}

func (q *DispatchQueue) Peek() (Dispatch, bool) {
	if len(*q) == 0 {
		return Dispatch{}, false
	}
	return (*q)[0], true
}

func (q *DispatchQueue) PushBack(d Dispatch) { *q = append(*q, d) }

func (q *DispatchQueue) PushFront(d Dispatch) {
	*q = append(DispatchQueue{d}, *q...)
}

// TruckLoader turns a pool of packages into segments, one truck trip at a time.
type TruckLoader struct {
	sequencer    *SectorSequencer
	turnaround   float64
	recycleDelay float64
}

func NewTruckLoader(sequencer *SectorSequencer, turnaround, recycleDelay float64) (*TruckLoader, error) {
	if sequencer == nil {
		return nil, errors.New("new truck loader: sequencer must be non-nil")
	}
	if recycleDelay <= 0 {
		return nil, fmt.Errorf("new truck loader: recycle delay must be positive, got %v", recycleDelay)
	}
	if turnaround < 0 {
		return nil, fmt.Errorf("new truck loader: turnaround must not be negative, got %v", turnaround)
	}
	return &TruckLoader{
		sequencer:    sequencer,
		turnaround:   turnaround,
		recycleDelay: recycleDelay,
	}, nil
}

// Load drains pool into a plan. pool is consumed; pass a clone.
//
// Each segment takes the next dispatch from queue and walks order once,
// loading every address whose packages (plus their tie-groups) fit the
// truck's pin, availability and capacity constraints as one group. A truck
// that loads nothing is re-queued recycleDelay later, ahead of the queue if
// it was due before the next truck; otherwise it returns after driving the
// sequenced route plus the turnaround.
func (l *TruckLoader) Load(pool *domain.PackageStore, order []AddressPriority, queue DispatchQueue) (domain.Plan, error) {
	fleet := make(map[int]struct{})
	for _, d := range queue {
		fleet[d.Truck.TruckID] = struct{}{}
	}

	plan := domain.Plan{}
	stuck := make(map[int]struct{})

	for pool.Len() > 0 {
		d, ok := queue.Pop()
		if !ok {
			return nil, fmt.Errorf("load trucks: %d packages left and no trucks due: %w", pool.Len(), domain.ErrNoFeasibleAssignment)
		}

		seg := domain.NewSegment(d.Truck, d.At)
		if err := l.fill(seg, pool, order); err != nil {
			return nil, fmt.Errorf("load trucks: %w", err)
		}

		if len(seg.Packages) == 0 {
			// Once every remaining package is available, time no longer
			// changes what a truck can take.
			if d.At >= latestAvailability(pool) {
				stuck[d.Truck.TruckID] = struct{}{}
				if len(stuck) >= len(fleet) {
					return nil, fmt.Errorf("load trucks: no truck can take packages %v: %w", pool.IDs(), domain.ErrNoFeasibleAssignment)
				}
			}

			retry := Dispatch{Truck: d.Truck, At: d.At + l.recycleDelay}
			if next, ok := queue.Peek(); ok && d.At < next.At {
				queue.PushFront(retry)
			} else {
				queue.PushBack(retry)
			}
			continue
		}
		clear(stuck)

		stops, length, err := l.sequencer.Sequence(seg.Addresses())
		if err != nil {
			return nil, fmt.Errorf("load trucks: truck %d at %s: %w", d.Truck.TruckID, domain.FormatClock(d.At), err)
		}
		seg.Stops = stops
		seg.Length = length
		seg.EndTime = d.At + d.Truck.Travel(length)
		plan = append(plan, seg)

		queue.PushBack(Dispatch{Truck: d.Truck, At: seg.EndTime + l.turnaround})
	}

	return plan, nil
}

// fill scans the loading order once and moves admissible groups from pool
// onto seg.
func (l *TruckLoader) fill(seg *domain.Segment, pool *domain.PackageStore, order []AddressPriority) error {
	for _, ap := range order {
		here := pool.AtAddress(ap.Address)
		if len(here) == 0 {
			continue
		}

		seeds := make([]int, 0, len(here))
		for _, p := range here {
			seeds = append(seeds, p.PackageID)
		}
		group := pool.Group(seeds)

		if !admissible(seg, group) {
			continue
		}
		if err := seg.Load(group); err != nil {
			return err
		}
		for _, p := range group {
			if _, err := pool.Remove(p.PackageID); err != nil {
				return err
			}
		}
	}
	return nil
}

func admissible(seg *domain.Segment, group []domain.Package) bool {
	if !seg.Truck.Fits(len(seg.Packages), len(group)) {
		return false
	}
	for _, p := range group {
		if p.Pinned() && p.TruckPin != seg.Truck.TruckID {
			return false
		}
		if p.Availability > seg.StartTime {
			return false
		}
	}
	return true
}

func latestAvailability(pool *domain.PackageStore) float64 {
	latest := math.Inf(-1)
	for _, p := range pool.All() {
		latest = math.Max(latest, p.Availability)
	}
	return latest
}
