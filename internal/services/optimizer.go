package services

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/tky-kevin/LazyTravelogue-sub000/internal/domain"
	"github.com/tky-kevin/LazyTravelogue-sub000/internal/platform/obs"
	"github.com/tky-kevin/LazyTravelogue-sub000/internal/ports"
)

// RouteOptimizer reorders the interior stops of a day while keeping the
// first and last stop fixed.
type RouteOptimizer struct {
	oracle   ports.BatchCostOracle
	strategy TourStrategy
	log      *zap.Logger
}

func NewRouteOptimizer(oracle ports.BatchCostOracle, strategy TourStrategy, log *zap.Logger) *RouteOptimizer {
	if strategy == nil {
		strategy = NearestNeighborTwoOpt{Lookahead: DefaultLookahead}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RouteOptimizer{oracle: oracle, strategy: strategy, log: log}
}

// Optimize returns the stops in a new order. Days with two stops or fewer
// come back as the same slice. Any failure is returned without a partial
// ordering; the caller keeps its current order.
func (o *RouteOptimizer) Optimize(ctx context.Context, stops []domain.Stop) (_ []domain.Stop, err error) {
	if len(stops) <= 2 {
		return stops, nil
	}
	defer obs.Time(ctx, o.log, "optimize_route")(&err)

	mode := DominantMode(stops)
	points := lo.Map(stops, func(s domain.Stop, _ int) domain.LatLng { return s.Location })

	m, err := BuildCostMatrix(ctx, o.oracle, points, mode)
	if err != nil {
		return nil, fmt.Errorf("optimize route: %w", err)
	}

	n := len(stops)
	order, err := o.strategy.Solve(m, 0, n-1)
	if err != nil {
		return nil, fmt.Errorf("optimize route: %w", err)
	}
	if err := checkPermutation(order, n); err != nil {
		return nil, fmt.Errorf("optimize route: %w", err)
	}

	identity := lo.Range(n)
	o.log.Debug("route optimized",
		zap.Int("stops", n),
		zap.String("mode", string(mode)),
		zap.Float64("cost_before", m.TourCost(identity)),
		zap.Float64("cost_after", m.TourCost(order)),
	)

	return lo.Map(order, func(i int, _ int) domain.Stop { return stops[i] }), nil
}

// DominantMode returns the most frequent outgoing mode among stops. Ties go
// to the mode seen first; stops without a mode count as driving.
func DominantMode(stops []domain.Stop) domain.TransportMode {
	counts := make(map[domain.TransportMode]int)
	order := make([]domain.TransportMode, 0, 3)
	for _, s := range stops {
		m := s.Mode()
		if counts[m] == 0 {
			order = append(order, m)
		}
		counts[m]++
	}

	best := domain.ModeDriving
	bestCount := 0
	for _, m := range order {
		if counts[m] > bestCount {
			best = m
			bestCount = counts[m]
		}
	}
	return best
}

// BuildCostMatrix fills an N x N duration matrix from a single batched oracle
// query. Elements that are not OK stay at +Inf. A failed query or a response
// whose shape does not match the input fails the whole build.
func BuildCostMatrix(ctx context.Context, oracle ports.BatchCostOracle, points []domain.LatLng, mode domain.TransportMode) (domain.CostMatrix, error) {
	n := len(points)
	resp, err := oracle.Matrix(ctx, points, points, mode)
	if err != nil {
		return nil, fmt.Errorf("build cost matrix: %w", err)
	}
	if resp == nil || len(resp.Rows) != n {
		return nil, fmt.Errorf("build cost matrix: expected %d rows, got %d", n, rowCount(resp))
	}

	m := domain.NewCostMatrix(n)
	for i, row := range resp.Rows {
		if len(row.Elements) != n {
			return nil, fmt.Errorf("build cost matrix: row %d has %d elements, want %d", i, len(row.Elements), n)
		}
		for j, el := range row.Elements {
			if i == j || el.Status != domain.StatusOK {
				continue
			}
			m[i][j] = el.Duration.Value
		}
	}
	return m, nil
}

func rowCount(resp *domain.MatrixResponse) int {
	if resp == nil {
		return 0
	}
	return len(resp.Rows)
}

func checkPermutation(order []int, n int) error {
	if len(order) != n || order[0] != 0 || order[n-1] != n-1 {
		return fmt.Errorf("strategy returned invalid tour %v", order)
	}
	seen := make([]bool, n)
	for _, i := range order {
		if i < 0 || i >= n || seen[i] {
			return fmt.Errorf("strategy returned invalid tour %v", order)
		}
		seen[i] = true
	}
	return nil
}
