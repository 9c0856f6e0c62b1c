package directions

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/tky-kevin/LazyTravelogue-sub000/internal/domain"
	"github.com/tky-kevin/LazyTravelogue-sub000/internal/platform/obs"
	"github.com/tky-kevin/LazyTravelogue-sub000/internal/ports"
)

// CachingMatrixOracle serves matrix queries from a persistent pair cache.
//
// The wrapped oracle is skipped only when every off-diagonal pair is cached;
// otherwise the full matrix is fetched in one call so the cost matrix is
// never assembled from mixed sources. OK elements are written back and
// unreachable pairs are never cached. Cache read and write failures are
// logged and degrade to the wrapped oracle.
type CachingMatrixOracle struct {
	next  ports.BatchCostOracle
	cache ports.MatrixCache
	log   *zap.Logger
}

func NewCachingMatrixOracle(next ports.BatchCostOracle, cache ports.MatrixCache, log *zap.Logger) *CachingMatrixOracle {
	if log == nil {
		log = zap.NewNop()
	}
	return &CachingMatrixOracle{next: next, cache: cache, log: log}
}

func (c *CachingMatrixOracle) Matrix(
	ctx context.Context,
	origins []domain.LatLng,
	destinations []domain.LatLng,
	mode domain.TransportMode,
) (_ *domain.MatrixResponse, err error) {
	defer obs.Time(ctx, c.log, "cache.Matrix")(&err)

	if resp, ok := c.lookup(ctx, origins, destinations, mode); ok {
		c.log.Debug("matrix served from cache", zap.Int("origins", len(origins)), zap.Int("destinations", len(destinations)))
		return resp, nil
	}

	resp, err := c.next.Matrix(ctx, origins, destinations, mode)
	if err != nil {
		return nil, err
	}

	c.store(ctx, origins, destinations, mode, resp)
	return resp, nil
}

func (c *CachingMatrixOracle) lookup(
	ctx context.Context,
	origins []domain.LatLng,
	destinations []domain.LatLng,
	mode domain.TransportMode,
) (*domain.MatrixResponse, bool) {
	rows := make([]domain.MatrixRow, len(origins))

	for i, o := range origins {
		others := make([]domain.LatLng, 0, len(destinations))
		for _, d := range destinations {
			if d != o {
				others = append(others, d)
			}
		}

		hits := map[string]ports.PairCost{}
		if len(others) > 0 {
			var err error
			hits, err = c.cache.GetMany(ctx, mode, o, others)
			if err != nil {
				c.log.Warn("matrix cache read failed", zap.Error(err))
				return nil, false
			}
		}

		elements := make([]domain.MatrixElement, len(destinations))
		for j, d := range destinations {
			if d == o {
				elements[j] = okElement(0, 0)
				continue
			}
			hit, ok := hits[d.Key()]
			if !ok {
				return nil, false
			}
			elements[j] = okElement(hit.DurationSeconds, hit.DistanceMeters)
		}
		rows[i] = domain.MatrixRow{Elements: elements}
	}

	return &domain.MatrixResponse{Status: domain.StatusOK, Rows: rows}, true
}

func (c *CachingMatrixOracle) store(
	ctx context.Context,
	origins []domain.LatLng,
	destinations []domain.LatLng,
	mode domain.TransportMode,
	resp *domain.MatrixResponse,
) {
	for i, o := range origins {
		if i >= len(resp.Rows) {
			return
		}
		elements := resp.Rows[i].Elements

		results := make(map[string]ports.PairCost)
		for j, d := range destinations {
			if d == o || j >= len(elements) || elements[j].Status != domain.StatusOK {
				continue
			}
			results[d.Key()] = ports.PairCost{
				DistanceMeters:  int(math.Round(elements[j].Distance.Value)),
				DurationSeconds: int(math.Round(elements[j].Duration.Value)),
			}
		}
		if len(results) == 0 {
			continue
		}

		if err := c.cache.PutMany(ctx, mode, o, results); err != nil {
			c.log.Warn("matrix cache write failed", zap.String("origin", o.Key()), zap.Error(err))
		}
	}
}
