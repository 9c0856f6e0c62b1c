package services

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/tky-kevin/LazyTravelogue-sub000/internal/domain"
	"github.com/tky-kevin/LazyTravelogue-sub000/internal/ports"
)

// RouteCache memoizes single-pair route queries for one planning session.
//
// Concurrent requests for the same key share one oracle call. Successful
// answers are kept until Reset; failures are never stored, so the next
// request for the key asks the oracle again. Returned responses are shared
// between callers and must not be modified.
type RouteCache struct {
	oracle ports.RouteCostOracle
	log    *zap.Logger
	now    func() time.Time

	group singleflight.Group
	done  *xsync.MapOf[string, *domain.RouteResponse]

	// generation is bumped by Reset so fetches started earlier neither
	// publish into nor share flights with the new generation.
	generation atomic.Uint64
}

func NewRouteCache(oracle ports.RouteCostOracle, log *zap.Logger) *RouteCache {
	if log == nil {
		log = zap.NewNop()
	}
	return &RouteCache{
		oracle: oracle,
		log:    log,
		now:    time.Now,
		done:   xsync.NewMapOf[string, *domain.RouteResponse](),
	}
}

// CacheKey identifies a route query by exact coordinates, mode and departure
// at millisecond resolution.
func CacheKey(origin, destination domain.LatLng, mode domain.TransportMode, departAt time.Time) string {
	return origin.Key() + "|" + destination.Key() + "|" + string(mode) + "|" + strconv.FormatInt(departAt.UnixMilli(), 10)
}

// EffectiveDeparture replaces a missing, zero or past departure with now.
func EffectiveDeparture(departAt *time.Time, now time.Time) time.Time {
	if departAt == nil || departAt.IsZero() || departAt.Before(now) {
		return now
	}
	return *departAt
}

// GetRoute returns the route for the query, calling the oracle at most once
// per key while a result is cached or in flight. A caller whose context ends
// stops waiting, but the shared fetch runs to completion and is still cached.
func (c *RouteCache) GetRoute(
	ctx context.Context,
	origin domain.LatLng,
	destination domain.LatLng,
	mode domain.TransportMode,
	departAt *time.Time,
) (*domain.RouteResponse, error) {
	depart := EffectiveDeparture(departAt, c.now())
	key := CacheKey(origin, destination, mode, depart)

	if resp, ok := c.done.Load(key); ok {
		return resp, nil
	}

	gen := c.generation.Load()
	flightKey := strconv.FormatUint(gen, 10) + "#" + key
	fetchCtx := context.WithoutCancel(ctx)

	ch := c.group.DoChan(flightKey, func() (any, error) {
		if resp, ok := c.done.Load(key); ok {
			return resp, nil
		}

		resp, err := c.oracle.Route(fetchCtx, origin, destination, mode, &depart)
		if err != nil {
			c.log.Debug("route fetch failed", zap.String("key", key), zap.Error(err))
			return nil, err
		}
		if resp == nil {
			return nil, fmt.Errorf("route %s: empty oracle response: %w", key, ports.ErrOracleUnavailable)
		}

		if c.generation.Load() == gen {
			c.done.Store(key, resp)
		}
		return resp, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		resp, _ := res.Val.(*domain.RouteResponse)
		return resp, nil
	}
}

// Reset drops every cached result. Fetches already in flight still answer
// their callers but are not cached.
func (c *RouteCache) Reset() {
	c.generation.Add(1)
	c.done.Clear()
}

// Len reports the number of cached results.
func (c *RouteCache) Len() int {
	return c.done.Size()
}
