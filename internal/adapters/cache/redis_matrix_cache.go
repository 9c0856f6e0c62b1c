package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/tky-kevin/LazyTravelogue-sub000/internal/domain"
	"github.com/tky-kevin/LazyTravelogue-sub000/internal/platform/obs"
	"github.com/tky-kevin/LazyTravelogue-sub000/internal/ports"
)

// RedisMatrixCache keeps one hash per (mode, origin) with a field per
// destination holding "meters,seconds". The TTL is refreshed on every write.
type RedisMatrixCache struct {
	rdb redis.Cmdable
	ttl time.Duration
	log *zap.Logger
}

func NewRedisMatrixCache(rdb redis.Cmdable, ttl time.Duration, log *zap.Logger) *RedisMatrixCache {
	return &RedisMatrixCache{rdb: rdb, ttl: ttl, log: log}
}

func redisKey(mode domain.TransportMode, origin domain.LatLng) string {
	return "matrix:" + string(mode) + ":" + origin.Key()
}

func (r *RedisMatrixCache) GetMany(
	ctx context.Context,
	mode domain.TransportMode,
	origin domain.LatLng,
	destinations []domain.LatLng,
) (_ map[string]ports.PairCost, err error) {
	defer obs.Time(ctx, r.log, "matrix.cache.redis.GetMany")(&err)

	if r.rdb == nil {
		return nil, errors.New("matrix cache: redis client is nil")
	}

	uniq := uniqueKeys(destinations)
	if len(uniq) == 0 {
		return map[string]ports.PairCost{}, nil
	}

	vals, err := r.rdb.HMGet(ctx, redisKey(mode, origin), uniq...).Result()
	if err != nil {
		return nil, fmt.Errorf("get matrix cache: hmget: %w", err)
	}

	out := make(map[string]ports.PairCost, len(uniq))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		pc, err := decodePairCost(s)
		if err != nil {
			return nil, fmt.Errorf("get matrix cache dest=%q: %w", uniq[i], err)
		}
		out[uniq[i]] = pc
	}

	return out, nil
}

func (r *RedisMatrixCache) PutMany(
	ctx context.Context,
	mode domain.TransportMode,
	origin domain.LatLng,
	results map[string]ports.PairCost,
) (err error) {
	defer obs.Time(ctx, r.log, "matrix.cache.redis.PutMany")(&err)

	if r.rdb == nil {
		return errors.New("matrix cache: redis client is nil")
	}

	if len(results) == 0 {
		return nil
	}

	fields := make(map[string]any, len(results))
	for dest, pc := range results {
		if strings.TrimSpace(dest) == "" {
			return fmt.Errorf("insert matrix cache: empty destination key")
		}
		fields[dest] = encodePairCost(pc)
	}

	key := redisKey(mode, origin)
	pipe := r.rdb.TxPipeline()
	pipe.HSet(ctx, key, fields)
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("insert matrix cache: exec pipeline: %w", err)
	}

	return nil
}

func encodePairCost(pc ports.PairCost) string {
	return strconv.Itoa(pc.DistanceMeters) + "," + strconv.Itoa(pc.DurationSeconds)
}

func decodePairCost(s string) (ports.PairCost, error) {
	meters, seconds, ok := strings.Cut(s, ",")
	if !ok {
		return ports.PairCost{}, fmt.Errorf("malformed cache value %q", s)
	}
	m, err := strconv.Atoi(meters)
	if err != nil {
		return ports.PairCost{}, fmt.Errorf("parse meters: %w", err)
	}
	sec, err := strconv.Atoi(seconds)
	if err != nil {
		return ports.PairCost{}, fmt.Errorf("parse seconds: %w", err)
	}
	return ports.PairCost{DistanceMeters: m, DurationSeconds: sec}, nil
}
