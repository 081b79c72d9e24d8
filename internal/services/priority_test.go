package services

import (
	"delivery-route-planner/internal/domain"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// priorityFixture: A has a 10:30 deadline, B none, C is pinned with a noon
// deadline, D has a 9:00 deadline and shares C's angle.
func priorityFixture(t *testing.T) (*domain.PackageStore, Embedding) {
	t.Helper()

	a := pkg(1, "A")
	a.Deadline = domain.Clock(10, 30)
	b := pkg(2, "B")
	c := pkg(3, "C")
	c.Deadline = domain.Clock(12, 0)
	c.TruckPin = 2
	d := pkg(4, "D")
	d.Deadline = domain.Clock(9, 0)
	late := pkg(5, "D")
	late.Deadline = domain.Clock(17, 0)

	pool, err := domain.NewPackageStoreFrom([]domain.Package{a, b, c, d, late})
	require.NoError(t, err)

	coords := Embedding{
		"A": domain.NewPolar(3, 1.0),
		"B": domain.NewPolar(2, 2.0),
		"C": domain.NewPolar(4, 0.5),
		"D": domain.NewPolar(1, 0.5),
	}
	return pool, coords
}

func TestPriorityKeys(t *testing.T) {
	pool, coords := priorityFixture(t)

	tests := []struct {
		name    string
		key     PriorityFunc
		address string
		want    float64
	}{
		{"angle", PriorityAngle, "A", 1.0},
		{"angle ignores deadline", PriorityAngle, "D", 0.5},
		{"deadline plus angle", PriorityDeadlineAngle, "A", 10.5 + 0.1},
		{"no deadline uses end of day", PriorityDeadlineAngle, "B", 24 + 0.2},
		{"earliest deadline at address", PriorityDeadlineAngle, "D", 9 + 0.05},
		{"pin ignored without truck rule", PriorityDeadlineAngle, "C", 12 + 0.05},
		{"pinned address divided by ten", PriorityTruckDeadlineAngle, "C", (12 + 0.05) / 10},
		{"unpinned address unchanged", PriorityTruckDeadlineAngle, "D", 9 + 0.05},
		{"unpinned without deadline", PriorityTruckDeadlineAngle, "B", 24 + 0.2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.key(tt.address, coords[tt.address].Angle, pool)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestPrioritizeAddresses(t *testing.T) {
	pool, coords := priorityFixture(t)
	names := func(order []AddressPriority) []string {
		out := make([]string, 0, len(order))
		for _, ap := range order {
			out = append(out, ap.Address)
		}
		return out
	}

	t.Run("pinned late deadline loads first", func(t *testing.T) {
		order := PrioritizeAddresses([]string{"A", "B", "C", "D"}, coords, pool, PriorityTruckDeadlineAngle)
		assert.Equal(t, []string{"C", "D", "A", "B"}, names(order))
		assert.InDelta(t, 0.5, order[0].Angle, 1e-9)
		assert.InDelta(t, 1.205, order[0].Key, 1e-9)
	})

	t.Run("deadline order without pin rule", func(t *testing.T) {
		order := PrioritizeAddresses([]string{"A", "B", "C", "D"}, coords, pool, PriorityDeadlineAngle)
		assert.Equal(t, []string{"D", "A", "C", "B"}, names(order))
	})

	t.Run("equal keys keep input order", func(t *testing.T) {
		order := PrioritizeAddresses([]string{"A", "B", "C", "D"}, coords, pool, PriorityAngle)
		assert.Equal(t, []string{"C", "D", "A", "B"}, names(order))

		order = PrioritizeAddresses([]string{"D", "B", "A", "C"}, coords, pool, PriorityAngle)
		assert.Equal(t, []string{"D", "C", "A", "B"}, names(order))
	})

	t.Run("addresses without coordinates are skipped", func(t *testing.T) {
		order := PrioritizeAddresses([]string{"Nowhere", "B", "A"}, coords, pool, PriorityAngle)
		assert.Equal(t, []string{"A", "B"}, names(order))
	})
}

func TestPriorities(t *testing.T) {
	got := Priorities()
	require.Len(t, got, 3)

	var names []string
	for _, p := range got {
		names = append(names, p.Name)
		assert.NotNil(t, p.Key, p.Name)
	}
	assert.Equal(t, []string{"angle", "deadline-angle", "truck-deadline-angle"}, names)
}
