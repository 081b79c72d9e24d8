package services

import (
	"context"
	"delivery-route-planner/internal/domain"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

type point struct {
	name string
	x, y float64
}

// planarMatrix returns the lower-triangular matrix of straight-line distances
// between pts. The first point is the depot.
func planarMatrix(pts []point) ([]string, [][]float64) {
	addresses := make([]string, 0, len(pts))
	matrix := make([][]float64, len(pts))
	for i, p := range pts {
		addresses = append(addresses, p.name)
		matrix[i] = make([]float64, i+1)
		for j := 0; j < i; j++ {
			matrix[i][j] = math.Hypot(p.x-pts[j].x, p.y-pts[j].y)
		}
	}
	return addresses, matrix
}

func prunedTable(t *testing.T, pts []point) *DistanceTable {
	t.Helper()
	addresses, matrix := planarMatrix(pts)
	table, err := NewDistanceTable(addresses, matrix)
	require.NoError(t, err)
	require.NoError(t, table.Prune(context.Background(), 4))
	return table
}

func polarPoint(name string, radius, degrees float64) point {
	rad := degrees * math.Pi / 180
	return point{name: name, x: radius * math.Cos(rad), y: radius * math.Sin(rad)}
}

// townPoints is a small service area around a depot at the origin.
var townPoints = []point{
	{name: "HUB", x: 0, y: 0},
	{name: "A", x: 2, y: 1},
	{name: "B", x: 4, y: 3},
	{name: "C", x: -1, y: 3},
	{name: "D", x: -3, y: -2},
	{name: "E", x: 1, y: -4},
	{name: "F", x: 5, y: -1},
	{name: "G", x: -5, y: 2},
	{name: "H", x: 3, y: 6},
}

func pkg(id int, address string) domain.Package {
	return domain.NewPackage(id, address, "")
}

// townPackages exercises every constraint kind: deadlines, a late arrival, a
// pin, and a tie-group.
func townPackages() []domain.Package {
	var out []domain.Package
	addresses := []string{"A", "B", "C", "D", "E", "F", "G", "H"}
	for i := 0; i < 24; i++ {
		out = append(out, pkg(i+1, addresses[i%len(addresses)]))
	}

	out[0].Deadline = domain.Clock(10, 30)
	out[5].Deadline = domain.Clock(9, 0)
	out[8].Availability = domain.Clock(9, 5)
	out[11].TruckPin = 2
	out[13].Availability = domain.Clock(10, 20)
	out[13].Deadline = domain.Clock(12, 0)
	for _, i := range []int{2, 3, 14} {
		out[i].TieGroup = []int{3, 4, 15}
	}
	return out
}

func townStore(t *testing.T) *domain.PackageStore {
	t.Helper()
	store, err := domain.NewPackageStoreFrom(townPackages())
	require.NoError(t, err)
	return store
}

func segmentIndex(plan domain.Plan) map[int]int {
	out := make(map[int]int)
	for i, seg := range plan {
		for _, p := range seg.Packages {
			out[p.PackageID] = i
		}
	}
	return out
}
