package config

import (
	"delivery-route-planner/internal/domain"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"TRUCK_COUNT", "TRUCK_CAPACITY", "TRUCK_SPEED", "LATE_DEPARTURE", "DISTANCE_SOURCE", "SEARCH_WORKERS"} {
		t.Setenv(k, "")
	}

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2, c.TruckCount)
	assert.Equal(t, 16, c.TruckCapacity)
	assert.Equal(t, 18.0, c.TruckSpeed)
	assert.Equal(t, domain.Clock(9, 5), c.LateDeparture)
	assert.Equal(t, SourceDB, c.DistanceSource)
	assert.Positive(t, c.SearchWorkers)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TRUCK_COUNT", "3")
	t.Setenv("EARLY_DEPARTURE", "07:45")
	t.Setenv("DISTANCE_SOURCE", "ORS")
	t.Setenv("ORS_API_KEY", "k")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3, c.TruckCount)
	assert.Equal(t, domain.Clock(7, 45), c.EarlyDeparture)
	assert.Equal(t, SourceORS, c.DistanceSource)
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string][2]string{
		"count":  {"TRUCK_COUNT", "zero"},
		"none":   {"TRUCK_COUNT", "0"},
		"clock":  {"TURNAROUND", "half an hour"},
		"source": {"DISTANCE_SOURCE", "maps"},
		"ors":    {"DISTANCE_SOURCE", "ors"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("ORS_API_KEY", "")
			t.Setenv(kv[0], kv[1])
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadOverrides(t *testing.T) {
	got, err := LoadOverrides(filepath.Join("testdata", "overrides.yaml"))
	require.NoError(t, err)

	assert.Equal(t, []domain.Override{
		{Kind: domain.OverridePin, PackageID: 3, Truck: 2},
		{Kind: domain.OverrideAvailability, PackageID: 6, Availability: domain.Clock(9, 5)},
		{Kind: domain.OverrideAddress, PackageID: 9, Street: "410 S State St", Zip: "84111"},
		{Kind: domain.OverrideTie, PackageID: 13, TieGroup: []int{13, 15, 19}},
	}, got)

	missing, err := LoadOverrides(filepath.Join("testdata", "absent.yaml"))
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestParseOverridesRejects(t *testing.T) {
	cases := map[string]string{
		"kind":    "overrides:\n  - kind: reroute\n    package: 1\n",
		"package": "overrides:\n  - kind: pin\n    truck: 1\n",
		"clock":   "overrides:\n  - kind: availability\n    package: 1\n    at: soon\n",
		"yaml":    "overrides: [",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseOverrides([]byte(doc))
			assert.Error(t, err)
		})
	}
	_, err := ParseOverrides([]byte("overrides:\n  - kind: reroute\n    package: 1\n"))
	assert.ErrorIs(t, err, domain.ErrInvalidOverride)
}
