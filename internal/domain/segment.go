package domain

import (
	"fmt"
	"math"
	"slices"
)

// Represents one truck trip from the depot back to the depot.
// The loader fills Truck, StartTime, Packages and Stops; the evaluator
// computes Length, EndTime, Arrivals, Deliveries and the deadline counters.
// Packages are private copies, so evaluating a segment never touches the
// canonical PackageStore.
type Segment struct {
	Truck     *Truck
	StartTime float64
	Stops     []string
	Packages  []Package

	Length          float64
	EndTime         float64
	MissedDeadlines int
	MeetsDeadlines  bool
	Arrivals        []float64
	Deliveries      map[int]float64
}

func NewSegment(truck *Truck, start float64) *Segment {
	return &Segment{
		Truck:          truck,
		StartTime:      start,
		Length:         math.Inf(1),
		EndTime:        math.Inf(1),
		MeetsDeadlines: true,
	}
}

// Load adds a group of packages atomically.
func (s *Segment) Load(group []Package) error {
	if !s.Truck.Fits(len(s.Packages), len(group)) {
		return fmt.Errorf(
			"load segment: truck %d cannot take %d more packages (loaded=%d capacity=%d)",
			s.Truck.TruckID, len(group), len(s.Packages), s.Truck.Capacity,
		)
	}
	for _, p := range group {
		if p.Pinned() && p.TruckPin != s.Truck.TruckID {
			return fmt.Errorf("load segment: package %d is pinned to truck %d, not %d", p.PackageID, p.TruckPin, s.Truck.TruckID)
		}
		if p.Availability > s.StartTime {
			return fmt.Errorf("load segment: package %d available at %s, segment starts %s",
				p.PackageID, FormatClock(p.Availability), FormatClock(s.StartTime))
		}
	}
	s.Packages = append(s.Packages, group...)
	return nil
}

// Addresses returns the distinct package addresses in load order.
func (s *Segment) Addresses() []string {
	seen := make(map[string]struct{}, len(s.Packages))
	out := make([]string, 0, len(s.Packages))
	for _, p := range s.Packages {
		if _, ok := seen[p.Address]; ok {
			continue
		}
		seen[p.Address] = struct{}{}
		out = append(out, p.Address)
	}
	return out
}

// ByAddress groups the loaded packages by destination.
func (s *Segment) ByAddress() map[string][]Package {
	out := make(map[string][]Package)
	for _, p := range s.Packages {
		out[p.Address] = append(out[p.Address], p)
	}
	return out
}

// PackageIDs returns the loaded package ids in ascending order.
func (s *Segment) PackageIDs() []int {
	ids := make([]int, 0, len(s.Packages))
	for _, p := range s.Packages {
		ids = append(ids, p.PackageID)
	}
	slices.Sort(ids)
	return ids
}

// Clone deep-copies the segment. The truck is shared.
func (s *Segment) Clone() *Segment {
	c := *s
	c.Stops = slices.Clone(s.Stops)
	c.Arrivals = slices.Clone(s.Arrivals)
	c.Packages = make([]Package, 0, len(s.Packages))
	for _, p := range s.Packages {
		c.Packages = append(c.Packages, p.clone())
	}
	if s.Deliveries != nil {
		c.Deliveries = make(map[int]float64, len(s.Deliveries))
		for k, v := range s.Deliveries {
			c.Deliveries[k] = v
		}
	}
	return &c
}

// Plan is an ordered list of segments covering every package exactly once.
type Plan []*Segment

// Length sums segment lengths.
func (p Plan) Length() float64 {
	total := 0.0
	for _, s := range p {
		total += s.Length
	}
	return total
}

// MissedDeadlines sums missed deadlines across segments.
func (p Plan) MissedDeadlines() int {
	total := 0
	for _, s := range p {
		total += s.MissedDeadlines
	}
	return total
}

// SegmentOf returns the segment carrying the package.
func (p Plan) SegmentOf(packageID int) (*Segment, bool) {
	for _, s := range p {
		for _, pkg := range s.Packages {
			if pkg.PackageID == packageID {
				return s, true
			}
		}
	}
	return nil, false
}

// Covers verifies the coverage invariant: the union of all segment loads equals
// ids with no duplicates and no omissions.
func (p Plan) Covers(ids []int) error {
	want := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}

	seen := make(map[int]struct{}, len(ids))
	for i, s := range p {
		for _, pkg := range s.Packages {
			if _, dup := seen[pkg.PackageID]; dup {
				return fmt.Errorf("plan coverage: package %d loaded twice (segment %d)", pkg.PackageID, i)
			}
			if _, ok := want[pkg.PackageID]; !ok {
				return fmt.Errorf("plan coverage: package %d is not in the store", pkg.PackageID)
			}
			seen[pkg.PackageID] = struct{}{}
		}
	}

	if len(seen) != len(want) {
		missing := make([]int, 0)
		for id := range want {
			if _, ok := seen[id]; !ok {
				missing = append(missing, id)
			}
		}
		slices.Sort(missing)
		return fmt.Errorf("plan coverage: packages not loaded: %v", missing)
	}

	return nil
}
