package repositories

import (
	"context"
	"database/sql"
	"delivery-route-planner/internal/domain"
	"delivery-route-planner/internal/platform/db"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	conn, err := db.OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.NoError(t, InitSchema(ctx, conn))
	require.NoError(t, SeedFromJSON(ctx, conn, filepath.Join("testdata", "universe.json")))
	return conn
}

func TestSeedIsIdempotent(t *testing.T) {
	conn := seededDB(t)
	require.NoError(t, SeedFromJSON(context.Background(), conn, filepath.Join("testdata", "universe.json")))

	var n int
	require.NoError(t, conn.QueryRow(`SELECT COUNT(*) FROM packages`).Scan(&n))
	assert.Equal(t, 3, n)
	require.NoError(t, conn.QueryRow(`SELECT COUNT(*) FROM distances`).Scan(&n))
	assert.Equal(t, 3, n)
}

func TestListPackages(t *testing.T) {
	repo := NewSqlitePackageRepository(seededDB(t))

	pkgs, err := repo.ListPackages(context.Background())
	require.NoError(t, err)
	require.Len(t, pkgs, 3)

	first := pkgs[0]
	assert.Equal(t, 1, first.PackageID)
	assert.Equal(t, "20 Elm St (84102)", first.Address)
	assert.Equal(t, domain.Clock(10, 30), first.Deadline)
	assert.Equal(t, "Salt Lake City", first.City)
	assert.Nil(t, first.TieGroup)
	assert.False(t, first.Pinned())
	assert.False(t, first.Scheduled())

	assert.Equal(t, domain.EndOfDay, pkgs[1].Deadline)
	assert.Equal(t, "fragile", pkgs[1].Note)
	assert.Equal(t, domain.EndOfDay, pkgs[2].Deadline)
}

func TestDistanceRepository(t *testing.T) {
	repo := NewSqliteDistanceRepository(seededDB(t))
	ctx := context.Background()

	addresses, err := repo.ListAddresses(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"1 Main St (84101)", "20 Elm St (84102)", "300 Oak Ave (84103)"}, addresses)

	matrix, err := repo.DirectMatrix(ctx, addresses)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{0}, {2.5, 0}, {10, 3, 0}}, matrix)

	// Reordered input is realigned.
	swapped, err := repo.DirectMatrix(ctx, []string{addresses[2], addresses[0]})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{0}, {10, 0}}, swapped)

	_, err = repo.DirectMatrix(ctx, []string{addresses[0], "nowhere"})
	assert.ErrorIs(t, err, domain.ErrUnknownAddress)
}

func TestSaveDeliveries(t *testing.T) {
	repo := NewSqlitePackageRepository(seededDB(t))
	ctx := context.Background()

	pkgs, err := repo.ListPackages(ctx)
	require.NoError(t, err)

	seg := domain.NewSegment(domain.NewTruck(2, 16, 18), domain.Clock(9, 5))
	require.NoError(t, seg.Load(pkgs))
	seg.Deliveries = map[int]float64{1: 9.5, 2: 9.75, 3: 9.75}

	require.NoError(t, repo.SaveDeliveries(ctx, domain.Plan{seg}))
	require.NoError(t, repo.SaveDeliveries(ctx, domain.Plan{seg}))

	got, err := repo.ListDeliveries(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, Delivery{PackageID: 2, TruckID: 2, Departure: domain.Clock(9, 5), DeliveredAt: 9.75}, got[1])

	seg.Deliveries = map[int]float64{1: 9.5}
	assert.Error(t, repo.SaveDeliveries(ctx, domain.Plan{seg}))
}

func TestLoadUniverseRejectsBadSeeds(t *testing.T) {
	cases := map[string]string{
		"unknown address": `{"addresses":[{"street":"A"}],"distances":[[0]],"packages":[{"package_id":1,"street":"B"}]}`,
		"duplicate id":    `{"addresses":[{"street":"A"}],"distances":[[0]],"packages":[{"package_id":1,"street":"A"},{"package_id":1,"street":"A"}]}`,
		"short matrix":    `{"addresses":[{"street":"A"},{"street":"B"}],"distances":[[0]]}`,
		"bad deadline":    `{"addresses":[{"street":"A"}],"distances":[[0]],"packages":[{"package_id":1,"street":"A","deadline":"noon"}]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "universe.json")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
			_, err := LoadUniverse(path)
			assert.Error(t, err)
		})
	}
}
