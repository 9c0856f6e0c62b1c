package services

import (
	"errors"
	"fmt"

	"github.com/tky-kevin/LazyTravelogue-sub000/internal/domain"
)

var ErrInvalidTourEndpoints = errors.New("tour endpoints out of range")

// TourStrategy orders the nodes of a cost matrix into an open path that
// begins at start, ends at end and visits every other node exactly once.
type TourStrategy interface {
	Solve(m domain.CostMatrix, start, end int) ([]int, error)
}

// NearestNeighborTwoOpt is the default strategy: a lookahead nearest-neighbour
// construction followed by 2-opt refinement.
type NearestNeighborTwoOpt struct {
	Lookahead float64
}

func (s NearestNeighborTwoOpt) Solve(m domain.CostMatrix, start, end int) ([]int, error) {
	if err := checkEndpoints(m, start, end); err != nil {
		return nil, err
	}

	route := NearestNeighborTour(m, start, end, s.Lookahead)
	return TwoOpt(m, route), nil
}

func checkEndpoints(m domain.CostMatrix, start, end int) error {
	n := m.N()
	if start < 0 || start >= n || end < 0 || end >= n {
		return fmt.Errorf("solve tour: start=%d end=%d n=%d: %w", start, end, n, ErrInvalidTourEndpoints)
	}
	for i, row := range m {
		if len(row) != n {
			return fmt.Errorf("solve tour: row %d has %d columns, want %d", i, len(row), n)
		}
	}
	return nil
}

// NewTourStrategy maps a configured strategy name to an implementation.
func NewTourStrategy(name string, lookahead float64) (TourStrategy, error) {
	heuristic := NearestNeighborTwoOpt{Lookahead: lookahead}
	switch name {
	case "", "heuristic":
		return heuristic, nil
	case "exact":
		return ExactDP{MaxNodes: DefaultExactMaxNodes, Fallback: heuristic}, nil
	default:
		return nil, fmt.Errorf("unknown optimizer strategy %q", name)
	}
}
