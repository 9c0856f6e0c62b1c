package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tky-kevin/LazyTravelogue-sub000/internal/domain"
	"github.com/tky-kevin/LazyTravelogue-sub000/internal/platform/db"
	"github.com/tky-kevin/LazyTravelogue-sub000/internal/ports"
)

var (
	origin = domain.LatLng{Lat: 25.033964, Lng: 121.564468}
	destA  = domain.LatLng{Lat: 25.047675, Lng: 121.517055}
	destB  = domain.LatLng{Lat: 25.102, Lng: 121.548}
)

func newSqliteCache(t *testing.T, ttl time.Duration) *SqliteMatrixCache {
	t.Helper()

	conn, err := db.OpenSqlite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, InitSchema(context.Background(), conn))
	return NewSqliteMatrixCache(conn, ttl, nil)
}

func TestSqliteMatrixCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := newSqliteCache(t, 0)

	err := c.PutMany(ctx, domain.ModeDriving, origin, map[string]ports.PairCost{
		destA.Key(): {DistanceMeters: 6200, DurationSeconds: 780},
	})
	require.NoError(t, err)

	got, err := c.GetMany(ctx, domain.ModeDriving, origin, []domain.LatLng{destA, destB, destA})
	require.NoError(t, err)
	assert.Equal(t, map[string]ports.PairCost{destA.Key(): {DistanceMeters: 6200, DurationSeconds: 780}}, got)

	other, err := c.GetMany(ctx, domain.ModeWalking, origin, []domain.LatLng{destA})
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestSqliteMatrixCacheOverwrites(t *testing.T) {
	ctx := context.Background()
	c := newSqliteCache(t, 0)

	require.NoError(t, c.PutMany(ctx, domain.ModeTransit, origin, map[string]ports.PairCost{destB.Key(): {DistanceMeters: 1, DurationSeconds: 1}}))
	require.NoError(t, c.PutMany(ctx, domain.ModeTransit, origin, map[string]ports.PairCost{destB.Key(): {DistanceMeters: 9000, DurationSeconds: 1500}}))

	got, err := c.GetMany(ctx, domain.ModeTransit, origin, []domain.LatLng{destB})
	require.NoError(t, err)
	assert.Equal(t, 1500, got[destB.Key()].DurationSeconds)
}

func TestSqliteMatrixCacheExpires(t *testing.T) {
	ctx := context.Background()
	c := newSqliteCache(t, time.Hour)

	written := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return written }
	require.NoError(t, c.PutMany(ctx, domain.ModeDriving, origin, map[string]ports.PairCost{destA.Key(): {DistanceMeters: 10, DurationSeconds: 10}}))

	c.now = func() time.Time { return written.Add(30 * time.Minute) }
	got, err := c.GetMany(ctx, domain.ModeDriving, origin, []domain.LatLng{destA})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	c.now = func() time.Time { return written.Add(2 * time.Hour) }
	got, err = c.GetMany(ctx, domain.ModeDriving, origin, []domain.LatLng{destA})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSqliteMatrixCacheRejectsEmptyKey(t *testing.T) {
	c := newSqliteCache(t, 0)
	err := c.PutMany(context.Background(), domain.ModeDriving, origin, map[string]ports.PairCost{" ": {}})
	assert.Error(t, err)
}
