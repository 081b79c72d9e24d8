package services

import (
	"delivery-route-planner/internal/domain"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func townLoader(t *testing.T) (*TruckLoader, Embedding, []string) {
	t.Helper()
	seq := townSequencer(t)
	loader, err := NewTruckLoader(seq, domain.Clock(0, 30), domain.Clock(0, 5))
	require.NoError(t, err)
	return loader, seq.coords, seq.table.Addresses()
}

func TestLoadTiedGroupFollowsPin(t *testing.T) {
	loader, coords, addresses := townLoader(t)
	fleet := domain.NewFleet(2, 16, 18)

	tied := []int{1, 2, 3, 4, 5, 6}
	var pkgs []domain.Package
	for _, id := range tied {
		p := pkg(id, "B")
		p.TieGroup = tied
		if id <= 2 {
			p.TruckPin = 2
		}
		pkgs = append(pkgs, p)
	}
	pkgs = append(pkgs, pkg(7, "D"))

	pool, err := domain.NewPackageStoreFrom(pkgs)
	require.NoError(t, err)

	order := PrioritizeAddresses(addresses, coords, pool, PriorityAngle)
	queue := DispatchQueue{
		{Truck: fleet[0], At: domain.Clock(8, 0)},
		{Truck: fleet[1], At: domain.Clock(9, 5)},
	}

	plan, err := loader.Load(pool, order, queue)
	require.NoError(t, err)
	require.NoError(t, plan.Covers([]int{1, 2, 3, 4, 5, 6, 7}))

	seg, ok := plan.SegmentOf(1)
	require.True(t, ok)
	assert.Equal(t, 2, seg.Truck.TruckID)
	assert.ElementsMatch(t, tied, seg.PackageIDs())

	first, ok := plan.SegmentOf(7)
	require.True(t, ok)
	assert.Equal(t, 1, first.Truck.TruckID)
	assert.Zero(t, pool.Len())
}

func TestLoadWaitsForAvailability(t *testing.T) {
	loader, coords, addresses := townLoader(t)
	fleet := domain.NewFleet(2, 16, 18)

	late := pkg(1, "C")
	late.Availability = domain.Clock(10, 20)
	late.Deadline = domain.Clock(10, 30)
	pool, err := domain.NewPackageStoreFrom([]domain.Package{late, pkg(2, "C"), pkg(3, "F")})
	require.NoError(t, err)

	order := PrioritizeAddresses(addresses, coords, pool, PriorityDeadlineAngle)
	plan, err := loader.Load(pool, order, DispatchQueue{
		{Truck: fleet[0], At: domain.Clock(8, 0)},
		{Truck: fleet[1], At: domain.Clock(9, 5)},
	})
	require.NoError(t, err)
	require.NoError(t, plan.Covers([]int{1, 2, 3}))

	seg, ok := plan.SegmentOf(1)
	require.True(t, ok)
	assert.GreaterOrEqual(t, seg.StartTime, late.Availability)

	for _, s := range plan {
		assert.Equal(t, "HUB", s.Stops[0])
		assert.Equal(t, "HUB", s.Stops[len(s.Stops)-1])
	}
}

func TestLoadRespectsCapacity(t *testing.T) {
	loader, coords, addresses := townLoader(t)
	fleet := domain.NewFleet(2, 4, 18)

	var pkgs []domain.Package
	for i := 1; i <= 19; i++ {
		pkgs = append(pkgs, pkg(i, addresses[1+i%(len(addresses)-1)]))
	}
	pool, err := domain.NewPackageStoreFrom(pkgs)
	require.NoError(t, err)
	ids := pool.IDs()

	order := PrioritizeAddresses(addresses, coords, pool, PriorityAngle)
	plan, err := loader.Load(pool, order, DispatchQueue{
		{Truck: fleet[0], At: domain.Clock(8, 0)},
		{Truck: fleet[1], At: domain.Clock(8, 0)},
	})
	require.NoError(t, err)
	require.NoError(t, plan.Covers(ids))
	assert.GreaterOrEqual(t, len(plan), 5)

	for i, seg := range plan {
		assert.LessOrEqual(t, len(seg.Packages), seg.Truck.Capacity, "segment %d", i)
		assert.Greater(t, seg.EndTime, seg.StartTime)
	}
}

func TestLoadReturnsToDepotBeforeNextTrip(t *testing.T) {
	loader, coords, addresses := townLoader(t)
	truck := domain.NewTruck(1, 2, 18)

	pool, err := domain.NewPackageStoreFrom([]domain.Package{pkg(1, "A"), pkg(2, "B"), pkg(3, "H")})
	require.NoError(t, err)

	order := PrioritizeAddresses(addresses, coords, pool, PriorityAngle)
	plan, err := loader.Load(pool, order, DispatchQueue{{Truck: truck, At: domain.Clock(8, 0)}})
	require.NoError(t, err)
	require.Len(t, plan, 2)
	assert.InDelta(t, plan[0].EndTime+domain.Clock(0, 30), plan[1].StartTime, 1e-9)
}

func TestLoadFailsWhenNoTruckCanTake(t *testing.T) {
	loader, coords, addresses := townLoader(t)
	fleet := domain.NewFleet(2, 16, 18)

	orphan := pkg(1, "E")
	orphan.TruckPin = 3
	pool, err := domain.NewPackageStoreFrom([]domain.Package{orphan})
	require.NoError(t, err)

	order := PrioritizeAddresses(addresses, coords, pool, PriorityAngle)
	_, err = loader.Load(pool, order, DispatchQueue{
		{Truck: fleet[0], At: domain.Clock(8, 0)},
		{Truck: fleet[1], At: domain.Clock(9, 5)},
	})
	assert.ErrorIs(t, err, domain.ErrNoFeasibleAssignment)
}

func TestDispatchQueue(t *testing.T) {
	fleet := domain.NewFleet(3, 16, 18)
	q := DispatchQueue{{Truck: fleet[0], At: 8}}
	q.PushBack(Dispatch{Truck: fleet[1], At: 9})
	q.PushFront(Dispatch{Truck: fleet[2], At: 7})
	require.Equal(t, 3, q.Len())

	d, ok := q.Peek()
	require.True(t, ok)
	assert.Equal(t, 3, d.Truck.TruckID)

	var got []int
	for {
		d, ok := q.Pop()
		if !ok {
			break
		}
		got = append(got, d.Truck.TruckID)
	}
	assert.Equal(t, []int{3, 1, 2}, got)
}

func TestNewTruckLoaderValidates(t *testing.T) {
	seq := townSequencer(t)

	_, err := NewTruckLoader(nil, 0, 1)
	assert.Error(t, err)
	_, err = NewTruckLoader(seq, 0, 0)
	assert.Error(t, err)
	_, err = NewTruckLoader(seq, -1, 1)
	assert.Error(t, err)
}
