package cache

import (
	"context"
	"database/sql"
	"delivery-route-planner/internal/adapters/repositories"
	"delivery-route-planner/internal/domain"
	"delivery-route-planner/internal/platform/db"
	"delivery-route-planner/internal/ports"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()
	conn, err := db.OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, repositories.InitSchema(ctx, conn))
	return conn
}

func TestSqlitePathCacheRoundTrip(t *testing.T) {
	c := NewSqlitePathCache(memoryDB(t))
	ctx := context.Background()

	entries := []ports.PathEntry{
		{Origin: "HUB", Target: "A", Length: 2, Path: []string{"HUB", "A"}},
		{Origin: "HUB", Target: "C", Length: 4, Path: []string{"HUB", "B", "C"}},
	}
	require.NoError(t, c.PutMany(ctx, "f1", entries))
	require.NoError(t, c.PutMany(ctx, "f1", entries))

	got, err := c.GetMany(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, entries, got)

	other, err := c.GetMany(ctx, "f2")
	require.NoError(t, err)
	assert.Empty(t, other)

	_, err = c.GetMany(ctx, " ")
	assert.Error(t, err)
	assert.Error(t, c.PutMany(ctx, "f1", []ports.PathEntry{{Origin: "", Target: "A"}}))
}

func TestSqliteGeocodeCache(t *testing.T) {
	c := NewSqliteGeocodeCache(memoryDB(t))
	ctx := context.Background()

	require.NoError(t, c.PutMany(ctx, map[string]domain.GeoPoint{
		"1 Main  St": {Lon: -111.89, Lat: 40.76},
		"20 Elm St":  {Lon: -111.88, Lat: 40.75},
	}))

	got, err := c.GetMany(ctx, []string{"1 Main St", " 1 Main St ", "missing", ""})
	require.NoError(t, err)
	assert.Equal(t, map[string]domain.GeoPoint{"1 Main St": {Lon: -111.89, Lat: 40.76}}, got)

	none, err := c.GetMany(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestNilDB(t *testing.T) {
	ctx := context.Background()

	_, err := NewSqlitePathCache(nil).GetMany(ctx, "f")
	assert.Error(t, err)
	_, err = NewSQLPathCache(nil).GetMany(ctx, "f")
	assert.Error(t, err)
	_, err = NewSQLGeocodeCache(nil).GetMany(ctx, []string{"a"})
	assert.Error(t, err)
}

func TestUniqueKeys(t *testing.T) {
	assert.Equal(t, []string{"a b", "c"}, uniqueKeys([]string{" a  b", "c", "a b", "", "  "}))
}
