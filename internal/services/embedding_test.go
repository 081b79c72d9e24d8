package services

import (
	"context"
	"delivery-route-planner/internal/domain"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedPlanarUniverse(t *testing.T) {
	table := prunedTable(t, townPoints)

	coords, err := Embed(context.Background(), table)
	require.NoError(t, err)
	require.Len(t, coords, len(townPoints))

	depot := coords["HUB"]
	assert.Zero(t, depot.Radius)

	for _, p := range townPoints {
		c := coords[p.name]
		assert.InDelta(t, math.Hypot(p.x, p.y), c.Radius, 1e-9, p.name)
		assert.GreaterOrEqual(t, c.Angle, 0.0)
		assert.Less(t, c.Angle, 2*math.Pi)
	}

	// Straight-line distances embed exactly, up to rotation and reflection.
	for _, a := range townPoints {
		for _, b := range townPoints {
			want, err := table.Distance(a.name, b.name)
			require.NoError(t, err)
			got, err := coords.Distance(a.name, b.name)
			require.NoError(t, err)
			assert.InDelta(t, want, got, 1e-6, "%s-%s", a.name, b.name)
		}
	}
}

func TestEmbedRequiresPrunedTable(t *testing.T) {
	addresses, matrix := planarMatrix(townPoints)
	table, err := NewDistanceTable(addresses, matrix)
	require.NoError(t, err)

	_, err = Embed(context.Background(), table)
	assert.ErrorIs(t, err, domain.ErrStaleDistanceLookup)
}

func TestCandidateAngles(t *testing.T) {
	a1, a2 := candidateAngles(0, 5, 5, 1)
	assert.Zero(t, a1)
	assert.Zero(t, a2)

	// Right triangle with legs 3 and 4.
	a1, a2 = candidateAngles(3, 4, 5, 0)
	assert.InDelta(t, math.Pi/2, a1, 1e-9)
	assert.InDelta(t, 3*math.Pi/2, a2, 1e-9)

	// Rounding past the triangle inequality clamps instead of producing NaN.
	a1, a2 = candidateAngles(1, 1, 2.0000001, 0)
	assert.InDelta(t, math.Pi, a1, 1e-9)
	assert.InDelta(t, math.Pi, a2, 1e-9)
}

func TestEmbeddingLookups(t *testing.T) {
	coords := Embedding{"HUB": domain.NewPolar(0, 0)}

	_, err := coords.Angle("missing")
	assert.ErrorIs(t, err, domain.ErrUnknownAddress)
	_, err = coords.Distance("HUB", "missing")
	assert.ErrorIs(t, err, domain.ErrUnknownAddress)
}
