package directions

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tky-kevin/LazyTravelogue-sub000/internal/domain"
)

type MockPair struct {
	From, To domain.LatLng
	Meters   int
	Seconds  int
}

// MockMatrixOracle answers matrix queries from a fixed set of pairs.
// Pairs that were not registered are reported as ZERO_RESULTS.
type MockMatrixOracle struct {
	mu    sync.Mutex
	m     map[string]MockPair
	err   error
	calls atomic.Int64
}

func NewMockMatrixOracle(pairs []MockPair) *MockMatrixOracle {
	m := make(map[string]MockPair, len(pairs))
	for _, p := range pairs {
		m[p.From.Key()+"|"+p.To.Key()] = p
	}
	return &MockMatrixOracle{m: m}
}

// NewMockMatrixOracleFromCosts registers costs[i][j] seconds between
// points[i] and points[j]. Infinite entries are left unregistered.
func NewMockMatrixOracleFromCosts(points []domain.LatLng, costs [][]float64) *MockMatrixOracle {
	pairs := make([]MockPair, 0, len(points)*len(points))
	for i, from := range points {
		for j, to := range points {
			if i == j || math.IsInf(costs[i][j], 1) {
				continue
			}
			pairs = append(pairs, MockPair{From: from, To: to, Meters: int(costs[i][j]) * 10, Seconds: int(costs[i][j])})
		}
	}
	return NewMockMatrixOracle(pairs)
}

// FailWith makes every subsequent call return err.
func (p *MockMatrixOracle) FailWith(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

func (p *MockMatrixOracle) Calls() int { return int(p.calls.Load()) }

func (p *MockMatrixOracle) Matrix(
	ctx context.Context,
	origins []domain.LatLng,
	destinations []domain.LatLng,
	mode domain.TransportMode,
) (*domain.MatrixResponse, error) {
	p.calls.Add(1)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}

	resp := &domain.MatrixResponse{Status: domain.StatusOK, Rows: make([]domain.MatrixRow, len(origins))}
	for i, o := range origins {
		row := make([]domain.MatrixElement, len(destinations))
		for j, d := range destinations {
			if o == d {
				row[j] = okElement(0, 0)
				continue
			}
			pair, ok := p.m[o.Key()+"|"+d.Key()]
			if !ok {
				row[j] = domain.MatrixElement{Status: domain.StatusZeroResults}
				continue
			}
			row[j] = okElement(pair.Seconds, pair.Meters)
		}
		resp.Rows[i] = domain.MatrixRow{Elements: row}
	}

	return resp, nil
}

// RouteFunc computes a directions answer for MockRouteOracle.
type RouteFunc func(ctx context.Context, origin, destination domain.LatLng, mode domain.TransportMode, departAt *time.Time) (*domain.RouteResponse, error)

// MockRouteOracle delegates to a RouteFunc and counts calls.
type MockRouteOracle struct {
	fn    RouteFunc
	calls atomic.Int64
}

func NewMockRouteOracle(fn RouteFunc) *MockRouteOracle {
	return &MockRouteOracle{fn: fn}
}

func (p *MockRouteOracle) Calls() int { return int(p.calls.Load()) }

func (p *MockRouteOracle) Route(
	ctx context.Context,
	origin domain.LatLng,
	destination domain.LatLng,
	mode domain.TransportMode,
	departAt *time.Time,
) (*domain.RouteResponse, error) {
	p.calls.Add(1)
	if p.fn == nil {
		return nil, fmt.Errorf("mock route %s -> %s: no route function", origin.Key(), destination.Key())
	}
	return p.fn(ctx, origin, destination, mode, departAt)
}

// SingleLegResponse builds a one-candidate answer with a single step in mode.
func SingleLegResponse(mode domain.TransportMode, seconds, meters int) *domain.RouteResponse {
	leg := domain.Leg{
		Duration: domain.TextValue{Text: FormatDuration(seconds), Value: float64(seconds)},
		Distance: domain.TextValue{Text: FormatDistance(meters), Value: float64(meters)},
		Steps: []domain.Step{{
			TravelMode: mode,
			Duration:   &domain.TextValue{Text: FormatDuration(seconds), Value: float64(seconds)},
			Distance:   &domain.TextValue{Text: FormatDistance(meters), Value: float64(meters)},
		}},
	}
	return &domain.RouteResponse{
		Status: domain.StatusOK,
		Routes: []domain.RouteCandidate{{Summary: string(mode), Legs: []domain.Leg{leg}}},
	}
}

func okElement(seconds, meters int) domain.MatrixElement {
	return domain.MatrixElement{
		Status:   domain.StatusOK,
		Duration: domain.TextValue{Text: FormatDuration(seconds), Value: float64(seconds)},
		Distance: domain.TextValue{Text: FormatDistance(meters), Value: float64(meters)},
	}
}
