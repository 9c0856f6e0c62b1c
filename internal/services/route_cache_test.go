package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tky-kevin/LazyTravelogue-sub000/internal/adapters/directions"
	"github.com/tky-kevin/LazyTravelogue-sub000/internal/domain"
)

var (
	shilin  = domain.LatLng{Lat: 25.0878, Lng: 121.5241}
	ximen   = domain.LatLng{Lat: 25.0421, Lng: 121.5081}
	daan    = domain.LatLng{Lat: 25.0330, Lng: 121.5354}
	beitou  = domain.LatLng{Lat: 25.1367, Lng: 121.5066}
	songsan = domain.LatLng{Lat: 25.0497, Lng: 121.5779}
)

func fixedNow(cache *RouteCache, now time.Time) {
	cache.now = func() time.Time { return now }
}

func TestRouteCacheConcurrentCallsShareOneFetch(t *testing.T) {
	entered := make(chan struct{}, 1)
	release := make(chan struct{})

	oracle := directions.NewMockRouteOracle(func(ctx context.Context, o, d domain.LatLng, mode domain.TransportMode, at *time.Time) (*domain.RouteResponse, error) {
		entered <- struct{}{}
		<-release
		return directions.SingleLegResponse(mode, 600, 4000), nil
	})

	cache := NewRouteCache(oracle, nil)
	now := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	fixedNow(cache, now)
	depart := now.Add(time.Hour)

	var wg sync.WaitGroup
	results := make([]*domain.RouteResponse, 2)
	errs := make([]error, 2)
	call := func(i int) {
		defer wg.Done()
		results[i], errs[i] = cache.GetRoute(context.Background(), shilin, ximen, domain.ModeTransit, &depart)
	}

	wg.Add(2)
	go call(0)
	<-entered
	go call(1)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Same(t, results[0], results[1])
	assert.Equal(t, 1, oracle.Calls())

	again, err := cache.GetRoute(context.Background(), shilin, ximen, domain.ModeTransit, &depart)
	require.NoError(t, err)
	assert.Same(t, results[0], again)
	assert.Equal(t, 1, oracle.Calls())
}

func TestRouteCacheDoesNotStoreFailures(t *testing.T) {
	boom := errors.New("oracle exploded")
	fail := true

	oracle := directions.NewMockRouteOracle(func(ctx context.Context, o, d domain.LatLng, mode domain.TransportMode, at *time.Time) (*domain.RouteResponse, error) {
		if fail {
			fail = false
			return nil, boom
		}
		return directions.SingleLegResponse(mode, 60, 100), nil
	})

	cache := NewRouteCache(oracle, nil)
	now := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	fixedNow(cache, now)

	_, err := cache.GetRoute(context.Background(), shilin, ximen, domain.ModeDriving, nil)
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, cache.Len())

	resp, err := cache.GetRoute(context.Background(), shilin, ximen, domain.ModeDriving, nil)
	require.NoError(t, err)
	assert.NotNil(t, resp)
	assert.Equal(t, 2, oracle.Calls())
	assert.Equal(t, 1, cache.Len())
}

func TestRouteCacheClampsPastDepartures(t *testing.T) {
	var seen []time.Time
	oracle := directions.NewMockRouteOracle(func(ctx context.Context, o, d domain.LatLng, mode domain.TransportMode, at *time.Time) (*domain.RouteResponse, error) {
		seen = append(seen, *at)
		return directions.SingleLegResponse(mode, 60, 100), nil
	})

	cache := NewRouteCache(oracle, nil)
	now := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	fixedNow(cache, now)

	past := now.Add(-2 * time.Hour)
	_, err := cache.GetRoute(context.Background(), daan, beitou, domain.ModeWalking, &past)
	require.NoError(t, err)
	_, err = cache.GetRoute(context.Background(), daan, beitou, domain.ModeWalking, nil)
	require.NoError(t, err)

	// Both clamp to now and therefore share a key.
	assert.Equal(t, 1, oracle.Calls())
	assert.Equal(t, []time.Time{now}, seen)
}

func TestRouteCacheKeysByModeAndDeparture(t *testing.T) {
	oracle := directions.NewMockRouteOracle(func(ctx context.Context, o, d domain.LatLng, mode domain.TransportMode, at *time.Time) (*domain.RouteResponse, error) {
		return directions.SingleLegResponse(mode, 60, 100), nil
	})

	cache := NewRouteCache(oracle, nil)
	now := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	fixedNow(cache, now)

	nine := now.Add(time.Hour)
	ten := now.Add(2 * time.Hour)
	ctx := context.Background()

	_, _ = cache.GetRoute(ctx, daan, songsan, domain.ModeDriving, &nine)
	_, _ = cache.GetRoute(ctx, daan, songsan, domain.ModeTransit, &nine)
	_, _ = cache.GetRoute(ctx, daan, songsan, domain.ModeDriving, &ten)
	_, _ = cache.GetRoute(ctx, songsan, daan, domain.ModeDriving, &nine)
	_, _ = cache.GetRoute(ctx, daan, songsan, domain.ModeDriving, &nine)

	assert.Equal(t, 4, oracle.Calls())
	assert.Equal(t, 4, cache.Len())

	cache.Reset()
	assert.Zero(t, cache.Len())
	_, _ = cache.GetRoute(ctx, daan, songsan, domain.ModeDriving, &nine)
	assert.Equal(t, 5, oracle.Calls())
}

func TestRouteCacheCallerCancellationKeepsFetch(t *testing.T) {
	release := make(chan struct{})
	oracle := directions.NewMockRouteOracle(func(ctx context.Context, o, d domain.LatLng, mode domain.TransportMode, at *time.Time) (*domain.RouteResponse, error) {
		<-release
		return directions.SingleLegResponse(mode, 60, 100), nil
	})

	cache := NewRouteCache(oracle, nil)
	now := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	fixedNow(cache, now)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := cache.GetRoute(ctx, shilin, beitou, domain.ModeDriving, nil)
	assert.ErrorIs(t, err, context.Canceled)

	close(release)
	require.Eventually(t, func() bool { return cache.Len() == 1 }, time.Second, 5*time.Millisecond)

	_, err = cache.GetRoute(context.Background(), shilin, beitou, domain.ModeDriving, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, oracle.Calls())
}
