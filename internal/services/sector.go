package services

import (
	"delivery-route-planner/internal/domain"
	"errors"
	"fmt"
	"math"
	"slices"
)

// sectorMargin widens the angular bounds so no stop sits exactly on a radial edge.
const sectorMargin = 0.01

// Sector edges in perimeter order.
const (
	edgeInnerOut = iota
	edgeMinAngle
	edgeOuter
	edgeMaxAngle
	edgeInnerBack
)

// SectorSequencer orders a set of stops by sweeping the perimeter of the
// smallest annular sector (around the depot) that encloses them.
type SectorSequencer struct {
	table  *DistanceTable
	coords Embedding
}

func NewSectorSequencer(table *DistanceTable, coords Embedding) (*SectorSequencer, error) {
	if table == nil {
		return nil, errors.New("new sector sequencer: table must be non-nil")
	}
	if len(coords) == 0 {
		return nil, errors.New("new sector sequencer: embedding is empty")
	}
	return &SectorSequencer{table: table, coords: coords}, nil
}

type sectorStop struct {
	address  string
	position float64
}

// Sequence returns the visiting order (depot first and last) and its length
// measured with shortest-path distances.
//
// The enclosing sector is walked as five edges: the first half of the inner
// arc, the radial edge at the minimum angle, the outer arc, the radial edge at
// the maximum angle, and the second half of the inner arc back. Each stop is
// projected onto its nearest edge and the stops are sorted by that position
// along the perimeter. Arc lengths are radius × angle and radial lengths are
// radius differences, so positions are comparable across edges.
func (s *SectorSequencer) Sequence(addresses []string) ([]string, float64, error) {
	depot := s.table.Depot()

	stops := make([]string, 0, len(addresses))
	seen := make(map[string]struct{}, len(addresses))
	for _, a := range addresses {
		if a == depot {
			continue
		}
		if _, ok := seen[a]; ok {
			continue
		}
		if _, ok := s.coords[a]; !ok {
			return nil, 0, fmt.Errorf("sequence stops: %q: %w", a, domain.ErrUnknownAddress)
		}
		seen[a] = struct{}{}
		stops = append(stops, a)
	}

	if len(stops) == 0 {
		return []string{depot, depot}, 0, nil
	}

	minR, maxR := math.Inf(1), math.Inf(-1)
	minA, maxA := math.Inf(1), math.Inf(-1)
	for _, a := range stops {
		c := s.coords[a]
		minR = math.Min(minR, c.Radius)
		maxR = math.Max(maxR, c.Radius)
		minA = math.Min(minA, c.Angle)
		maxA = math.Max(maxA, c.Angle)
	}
	minA -= sectorMargin
	maxA += sectorMargin

	sweep := maxA - minA
	depth := maxR - minR
	edgeLen := [5]float64{
		minR * sweep / 2,
		depth,
		maxR * sweep,
		depth,
		minR * sweep / 2,
	}
	offset := func(edge int) float64 {
		total := 0.0
		for _, l := range edgeLen[:edge] {
			total += l
		}
		return total
	}

	placed := make([]sectorStop, 0, len(stops))
	for _, a := range stops {
		c := s.coords[a]
		r, ang := c.Radius, c.Angle

		dist := [5]float64{
			r - minR,
			(ang - minA) * r,
			maxR - r,
			(maxA - ang) * r,
			r - minR,
		}
		edge := 0
		for i := 1; i < len(dist); i++ {
			if dist[i] < dist[edge] {
				edge = i
			}
		}

		var pos float64
		switch edge {
		case edgeInnerOut, edgeInnerBack:
			if (ang-minA)/sweep < 0.5 {
				pos = minR * (ang - minA)
			} else {
				pos = offset(edgeInnerBack) + minR*(maxA-ang)
			}
		case edgeMinAngle:
			pos = offset(edgeMinAngle) + (r - minR)
		case edgeOuter:
			pos = offset(edgeOuter) + maxR*(ang-minA)
		case edgeMaxAngle:
			pos = offset(edgeMaxAngle) + (maxR - r)
		}

		placed = append(placed, sectorStop{address: a, position: pos})
	}

	slices.SortStableFunc(placed, func(x, y sectorStop) int {
		switch {
		case x.position < y.position:
			return -1
		case x.position > y.position:
			return 1
		}
		return 0
	})

	sequence := make([]string, 0, len(placed)+2)
	sequence = append(sequence, depot)
	for _, p := range placed {
		sequence = append(sequence, p.address)
	}
	sequence = append(sequence, depot)

	length, err := s.table.RouteLength(sequence)
	if err != nil {
		return nil, 0, fmt.Errorf("sequence stops: %w", err)
	}

	return sequence, length, nil
}
