package services

import (
	"math"

	"github.com/tky-kevin/LazyTravelogue-sub000/internal/domain"
)

// DefaultExactMaxNodes bounds the Held-Karp table to 2^11 subsets.
const DefaultExactMaxNodes = 13

// ExactDP solves the fixed-endpoint open path exactly with Held-Karp dynamic
// programming. Matrices larger than MaxNodes, or instances with no finite
// path, are delegated to Fallback.
type ExactDP struct {
	MaxNodes int
	Fallback TourStrategy
}

func (s ExactDP) Solve(m domain.CostMatrix, start, end int) ([]int, error) {
	if err := checkEndpoints(m, start, end); err != nil {
		return nil, err
	}

	n := m.N()
	if n > s.MaxNodes || start == end {
		return s.fallback(m, start, end)
	}

	interior := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if i != start && i != end {
			interior = append(interior, i)
		}
	}

	k := len(interior)
	if k == 0 {
		return []int{start, end}, nil
	}

	full := 1<<k - 1
	cost := make([][]float64, full+1)
	parent := make([][]int, full+1)
	for mask := range cost {
		cost[mask] = make([]float64, k)
		parent[mask] = make([]int, k)
		for j := range cost[mask] {
			cost[mask][j] = math.Inf(1)
			parent[mask][j] = -1
		}
	}
	for j, node := range interior {
		cost[1<<j][j] = m[start][node]
	}

	for mask := 1; mask <= full; mask++ {
		for j := 0; j < k; j++ {
			if mask&(1<<j) == 0 || math.IsInf(cost[mask][j], 1) {
				continue
			}
			for next := 0; next < k; next++ {
				if mask&(1<<next) != 0 {
					continue
				}
				nm := mask | 1<<next
				c := cost[mask][j] + m[interior[j]][interior[next]]
				if c < cost[nm][next] {
					cost[nm][next] = c
					parent[nm][next] = j
				}
			}
		}
	}

	bestLast := -1
	bestCost := math.Inf(1)
	for j := 0; j < k; j++ {
		c := cost[full][j] + m[interior[j]][end]
		if c < bestCost {
			bestCost = c
			bestLast = j
		}
	}
	if bestLast == -1 {
		return s.fallback(m, start, end)
	}

	route := make([]int, k+2)
	route[0] = start
	route[k+1] = end
	mask := full
	for pos, j := k, bestLast; pos >= 1; pos-- {
		route[pos] = interior[j]
		prev := parent[mask][j]
		mask &^= 1 << j
		j = prev
	}

	return route, nil
}

func (s ExactDP) fallback(m domain.CostMatrix, start, end int) ([]int, error) {
	if s.Fallback == nil {
		return NearestNeighborTwoOpt{Lookahead: DefaultLookahead}.Solve(m, start, end)
	}
	return s.Fallback.Solve(m, start, end)
}
