package services

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tky-kevin/LazyTravelogue-sub000/internal/adapters/directions"
	"github.com/tky-kevin/LazyTravelogue-sub000/internal/domain"
	"github.com/tky-kevin/LazyTravelogue-sub000/internal/ports"
)

var inf = math.Inf(1)

func stopAt(id string, lng float64, mode domain.TransportMode) domain.Stop {
	return domain.Stop{ID: id, Location: domain.LatLng{Lat: 0, Lng: lng}, TransportMode: mode}
}

func ids(stops []domain.Stop) []string {
	out := make([]string, len(stops))
	for i, s := range stops {
		out[i] = s.ID
	}
	return out
}

func randomMatrix(rng *rand.Rand, n int) domain.CostMatrix {
	m := domain.NewCostMatrix(n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i != j {
				m[i][j] = float64(1 + rng.IntN(1000))
			}
		}
	}
	return m
}

type matrixFunc func(ctx context.Context, origins, destinations []domain.LatLng, mode domain.TransportMode) (*domain.MatrixResponse, error)

func (f matrixFunc) Matrix(ctx context.Context, origins, destinations []domain.LatLng, mode domain.TransportMode) (*domain.MatrixResponse, error) {
	return f(ctx, origins, destinations, mode)
}

func TestOptimizeShortDaysAreReturnedAsIs(t *testing.T) {
	oracle := directions.NewMockMatrixOracle(nil)
	opt := NewRouteOptimizer(oracle, nil, nil)

	for n := 0; n <= 2; n++ {
		stops := make([]domain.Stop, n)
		for i := range stops {
			stops[i] = stopAt(string(rune('a'+i)), float64(i), "")
		}

		got, err := opt.Optimize(context.Background(), stops)
		require.NoError(t, err)
		assert.Len(t, got, n)
		if n > 0 {
			assert.Same(t, &stops[0], &got[0])
		}
	}
	assert.Zero(t, oracle.Calls())
}

func TestOptimizeOrdersAlongTheWay(t *testing.T) {
	stops := []domain.Stop{
		stopAt("hotel", 0.00, domain.ModeDriving),
		stopAt("far", 0.03, domain.ModeDriving),
		stopAt("near", 0.01, domain.ModeDriving),
		stopAt("middle", 0.02, domain.ModeDriving),
		stopAt("station", 0.04, domain.ModeDriving),
	}

	opt := NewRouteOptimizer(directions.NewEstimatingOracle(), nil, nil)
	got, err := opt.Optimize(context.Background(), stops)
	require.NoError(t, err)

	assert.Equal(t, []string{"hotel", "near", "middle", "far", "station"}, ids(got))
	assert.Equal(t, []string{"hotel", "far", "near", "middle", "station"}, ids(stops), "input order must be kept")
}

func TestOptimizeKeepsEndpointsAndIdentities(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	for round := 0; round < 20; round++ {
		n := 3 + rng.IntN(8)
		stops := make([]domain.Stop, n)
		for i := range stops {
			stops[i] = domain.Stop{
				ID:       string(rune('A' + i)),
				Location: domain.LatLng{Lat: 25 + rng.Float64()/10, Lng: 121.5 + rng.Float64()/10},
			}
		}

		got, err := NewRouteOptimizer(directions.NewEstimatingOracle(), nil, nil).Optimize(context.Background(), stops)
		require.NoError(t, err)
		require.Len(t, got, n)
		assert.Equal(t, stops[0].ID, got[0].ID)
		assert.Equal(t, stops[n-1].ID, got[n-1].ID)
		assert.ElementsMatch(t, ids(stops), ids(got))
	}
}

func TestOptimizeBatchFailureAborts(t *testing.T) {
	oracle := directions.NewMockMatrixOracle(nil)
	oracle.FailWith(ports.ErrOracleUnavailable)

	stops := []domain.Stop{stopAt("a", 0, ""), stopAt("b", 1, ""), stopAt("c", 2, "")}
	got, err := NewRouteOptimizer(oracle, nil, nil).Optimize(context.Background(), stops)
	assert.ErrorIs(t, err, ports.ErrOracleUnavailable)
	assert.Nil(t, got)
	assert.Equal(t, 1, oracle.Calls())
}

func TestOptimizeUsesDominantMode(t *testing.T) {
	var seen domain.TransportMode
	oracle := matrixFunc(func(ctx context.Context, o, d []domain.LatLng, mode domain.TransportMode) (*domain.MatrixResponse, error) {
		seen = mode
		return directions.NewEstimatingOracle().Matrix(ctx, o, d, mode)
	})

	stops := []domain.Stop{
		stopAt("a", 0, domain.ModeTransit),
		stopAt("b", 1, domain.ModeWalking),
		stopAt("c", 2, domain.ModeTransit),
		stopAt("d", 3, ""),
	}
	_, err := NewRouteOptimizer(oracle, nil, nil).Optimize(context.Background(), stops)
	require.NoError(t, err)
	assert.Equal(t, domain.ModeTransit, seen)
}

func TestDominantMode(t *testing.T) {
	cases := []struct {
		name  string
		modes []domain.TransportMode
		want  domain.TransportMode
	}{
		{name: "majority", modes: []domain.TransportMode{domain.ModeWalking, domain.ModeTransit, domain.ModeTransit}, want: domain.ModeTransit},
		{name: "tie goes to first seen", modes: []domain.TransportMode{domain.ModeWalking, domain.ModeDriving, domain.ModeDriving, domain.ModeWalking}, want: domain.ModeWalking},
		{name: "missing counts as driving", modes: []domain.TransportMode{"", "", domain.ModeWalking}, want: domain.ModeDriving},
		{name: "empty", modes: nil, want: domain.ModeDriving},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stops := make([]domain.Stop, len(tc.modes))
			for i, m := range tc.modes {
				stops[i].TransportMode = m
			}
			assert.Equal(t, tc.want, DominantMode(stops))
		})
	}
}

func TestBuildCostMatrixMarksUnreachable(t *testing.T) {
	points := []domain.LatLng{{Lat: 1}, {Lat: 2}, {Lat: 3}}
	oracle := directions.NewMockMatrixOracleFromCosts(points, [][]float64{
		{0, 10, inf},
		{20, 0, 30},
		{40, 50, 0},
	})

	m, err := BuildCostMatrix(context.Background(), oracle, points, domain.ModeDriving)
	require.NoError(t, err)
	assert.Equal(t, domain.CostMatrix{{0, 10, inf}, {20, 0, 30}, {40, 50, 0}}, m)
}

func TestBuildCostMatrixRejectsWrongShape(t *testing.T) {
	points := []domain.LatLng{{Lat: 1}, {Lat: 2}, {Lat: 3}}
	short := matrixFunc(func(ctx context.Context, o, d []domain.LatLng, mode domain.TransportMode) (*domain.MatrixResponse, error) {
		return &domain.MatrixResponse{Status: domain.StatusOK, Rows: []domain.MatrixRow{{}, {}}}, nil
	})
	_, err := BuildCostMatrix(context.Background(), short, points, domain.ModeDriving)
	assert.Error(t, err)

	ragged := matrixFunc(func(ctx context.Context, o, d []domain.LatLng, mode domain.TransportMode) (*domain.MatrixResponse, error) {
		return &domain.MatrixResponse{Status: domain.StatusOK, Rows: []domain.MatrixRow{{}, {}, {}}}, nil
	})
	_, err = BuildCostMatrix(context.Background(), ragged, points, domain.ModeDriving)
	assert.Error(t, err)
}

func TestNearestNeighborLookahead(t *testing.T) {
	m := domain.CostMatrix{
		{0, 10, 11, 50},
		{10, 0, 5, 100},
		{11, 5, 0, 1},
		{50, 100, 1, 0},
	}

	assert.Equal(t, []int{0, 2, 1, 3}, NearestNeighborTour(m, 0, 3, DefaultLookahead))
	assert.Equal(t, []int{0, 1, 2, 3}, NearestNeighborTour(m, 0, 3, 0))
}

func TestNearestNeighborCompletesWhenUnreachable(t *testing.T) {
	m := domain.NewCostMatrix(5)
	m[0][4] = 1

	assert.Equal(t, []int{0, 1, 2, 3, 4}, NearestNeighborTour(m, 0, 4, DefaultLookahead))
}

func TestTwoOptNeverWorsensTheTour(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for round := 0; round < 200; round++ {
		n := 4 + rng.IntN(9)
		m := randomMatrix(rng, n)

		nn := NearestNeighborTour(m, 0, n-1, DefaultLookahead)
		before := m.TourCost(nn)

		refined := TwoOpt(m, append([]int(nil), nn...))
		assert.LessOrEqual(t, m.TourCost(refined), before)
		assert.Equal(t, 0, refined[0])
		assert.Equal(t, n-1, refined[n-1])
		assert.ElementsMatch(t, nn, refined)
	}
}

func TestTwoOptUncrossesSymmetricTour(t *testing.T) {
	// Points on a line at 0, 2, 1, 3: visiting them in that order crosses itself.
	pos := []float64{0, 2, 1, 3}
	m := domain.NewCostMatrix(4)
	for i := range pos {
		for j := range pos {
			m[i][j] = math.Abs(pos[i] - pos[j])
		}
	}

	assert.Equal(t, []int{0, 2, 1, 3}, TwoOpt(m, []int{0, 1, 2, 3}))
}

// fullPassTwoOpt is the textbook symmetric 2-opt: every pair of a pass is
// scanned on the current route and passes repeat until none improves.
func fullPassTwoOpt(m domain.CostMatrix, route []int) []int {
	last := len(route) - 1
	for improved := true; improved; {
		improved = false
		for i := 1; i < last-1; i++ {
			for j := i + 1; j < last; j++ {
				a, b, c, d := route[i-1], route[i], route[j], route[j+1]
				if m[a][c]+m[b][d]-m[a][b]-m[c][d] < 0 {
					for l, r := i, j; l < r; l, r = l+1, r-1 {
						route[l], route[r] = route[r], route[l]
					}
					improved = true
				}
			}
		}
	}
	return route
}

func TestTwoOptKeepsScanningAfterAMove(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	for round := 0; round < 300; round++ {
		n := 5 + rng.IntN(10)
		xs := make([]float64, n)
		ys := make([]float64, n)
		for i := range xs {
			xs[i], ys[i] = rng.Float64()*100, rng.Float64()*100
		}
		m := domain.NewCostMatrix(n)
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				m[i][j] = math.Hypot(xs[i]-xs[j], ys[i]-ys[j])
			}
		}

		nn := NearestNeighborTour(m, 0, n-1, DefaultLookahead)
		want := fullPassTwoOpt(m, append([]int(nil), nn...))
		got := TwoOpt(m, append([]int(nil), nn...))
		require.Equal(t, want, got, "round %d", round)
	}
}

func TestTwoOptIgnoresUnreachableSwaps(t *testing.T) {
	m := domain.NewCostMatrix(4)
	m[0][1], m[1][2], m[2][3] = 1, 1, 1

	assert.Equal(t, []int{0, 1, 2, 3}, TwoOpt(m, []int{0, 1, 2, 3}))
}

func TestExactDPIsNoWorseThanHeuristic(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	heuristic := NearestNeighborTwoOpt{Lookahead: DefaultLookahead}
	exact := ExactDP{MaxNodes: DefaultExactMaxNodes, Fallback: heuristic}

	for round := 0; round < 50; round++ {
		n := 3 + rng.IntN(7)
		m := randomMatrix(rng, n)

		h, err := heuristic.Solve(m, 0, n-1)
		require.NoError(t, err)
		e, err := exact.Solve(m, 0, n-1)
		require.NoError(t, err)

		assert.LessOrEqual(t, m.TourCost(e), m.TourCost(h))
		assert.Equal(t, 0, e[0])
		assert.Equal(t, n-1, e[n-1])
		assert.ElementsMatch(t, h, e)
	}
}

type countingStrategy struct {
	calls int
}

func (c *countingStrategy) Solve(m domain.CostMatrix, start, end int) ([]int, error) {
	c.calls++
	return NearestNeighborTwoOpt{}.Solve(m, start, end)
}

func TestExactDPFallsBack(t *testing.T) {
	fallback := &countingStrategy{}
	exact := ExactDP{MaxNodes: 5, Fallback: fallback}

	big := randomMatrix(rand.New(rand.NewPCG(5, 6)), 6)
	_, err := exact.Solve(big, 0, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, fallback.calls)

	// No finite path through the interior.
	_, err = exact.Solve(domain.NewCostMatrix(4), 0, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, fallback.calls)
}

func TestStrategiesRejectBadEndpoints(t *testing.T) {
	m := domain.NewCostMatrix(3)
	_, err := NearestNeighborTwoOpt{}.Solve(m, 0, 3)
	assert.True(t, errors.Is(err, ErrInvalidTourEndpoints))
	_, err = ExactDP{MaxNodes: 10}.Solve(m, -1, 2)
	assert.True(t, errors.Is(err, ErrInvalidTourEndpoints))
}

func TestNewTourStrategy(t *testing.T) {
	s, err := NewTourStrategy("exact", 0.2)
	require.NoError(t, err)
	assert.IsType(t, ExactDP{}, s)

	s, err = NewTourStrategy("", 0.2)
	require.NoError(t, err)
	assert.Equal(t, NearestNeighborTwoOpt{Lookahead: 0.2}, s)

	_, err = NewTourStrategy("annealing", 0.1)
	assert.Error(t, err)
}
