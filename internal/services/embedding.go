package services

import (
	"context"
	"delivery-route-planner/internal/domain"
	"delivery-route-planner/internal/platform/obs"
	"fmt"
	"math"
)

// Embedding maps every address to a polar placement around the depot.
type Embedding map[string]domain.EmbeddedCoordinate

// Embed projects the pruned distance table onto a plane.
//
// Addresses are placed in table order. Each radius is the shortest distance
// from the depot; the angle comes from the law of cosines against the
// previously placed address, which leaves two mirrored candidates. The
// candidate whose implied distances to all earlier placements best match the
// table (sum of squared errors) wins. The result is approximate; routing
// lengths are always taken from the table.
func Embed(ctx context.Context, table *DistanceTable) (_ Embedding, err error) {
	defer obs.Time(ctx, "embedding.Embed")(&err)

	addresses := table.Addresses()
	depot := table.Depot()
	out := make(Embedding, len(addresses))
	placed := make([]string, 0, len(addresses))

	prev := depot
	for _, cur := range addresses {
		r, err := table.Distance(cur, depot)
		if err != nil {
			return nil, fmt.Errorf("embed %q: radius: %w", cur, err)
		}
		d, err := table.Distance(prev, cur)
		if err != nil {
			return nil, fmt.Errorf("embed %q: hop from %q: %w", cur, prev, err)
		}

		p := out[prev]
		a1, a2 := candidateAngles(p.Radius, r, d, p.Angle)

		var err1, err2 float64
		for _, other := range placed {
			o := out[other]
			want, err := table.Distance(other, cur)
			if err != nil {
				return nil, fmt.Errorf("embed %q: compare %q: %w", cur, other, err)
			}
			e1 := want - domain.PolarDistance(o.Radius, r, o.Angle, a1)
			e2 := want - domain.PolarDistance(o.Radius, r, o.Angle, a2)
			err1 += e1 * e1
			err2 += e2 * e2
		}

		angle := a2
		if err1 < err2 {
			angle = a1
		}

		out[cur] = domain.NewPolar(r, angle)
		placed = append(placed, cur)
		prev = cur
	}

	return out, nil
}

// candidateAngles returns the two absolute angles, in [0, 2π), of a point at
// radius r2 that lies d away from a point at (r1, a1).
func candidateAngles(r1, r2, d, a1 float64) (float64, float64) {
	if r1 == 0 || r2 == 0 {
		return 0, 0
	}

	cos := (r1*r1 + r2*r2 - d*d) / (2 * r1 * r2)
	between := math.Acos(math.Max(-1, math.Min(1, cos)))

	return normalizeAngle(a1 + between), normalizeAngle(a1 - between)
}

func normalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}

// Distance is the planar distance between two embedded addresses.
func (e Embedding) Distance(a, b string) (float64, error) {
	ca, ok := e[a]
	if !ok {
		return 0, fmt.Errorf("embedded distance %q: %w", a, domain.ErrUnknownAddress)
	}
	cb, ok := e[b]
	if !ok {
		return 0, fmt.Errorf("embedded distance %q: %w", b, domain.ErrUnknownAddress)
	}
	return domain.PolarDistance(ca.Radius, cb.Radius, ca.Angle, cb.Angle), nil
}

// Angle returns the embedded angle of an address.
func (e Embedding) Angle(address string) (float64, error) {
	c, ok := e[address]
	if !ok {
		return 0, fmt.Errorf("embedded angle %q: %w", address, domain.ErrUnknownAddress)
	}
	return c.Angle, nil
}
