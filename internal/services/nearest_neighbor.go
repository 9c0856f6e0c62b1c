package services

import (
	"math"

	"github.com/tky-kevin/LazyTravelogue-sub000/internal/domain"
)

// DefaultLookahead weights the distance from a candidate to the fixed end
// stop when scoring the next hop.
const DefaultLookahead = 0.1

// NearestNeighborTour builds an open path from start to end that visits every
// other index of m exactly once.
//
// From the current node each unvisited candidate c is scored as
// m[cur][c] + lookahead*m[c][end]. Candidates are examined in ascending index
// order and only a strictly lower score replaces the current best, so ties
// resolve to the lowest index. When every remaining candidate is unreachable
// the lowest remaining index is taken so the tour always completes.
func NearestNeighborTour(m domain.CostMatrix, start, end int, lookahead float64) []int {
	n := m.N()
	route := make([]int, 0, n)
	route = append(route, start)

	visited := make([]bool, n)
	visited[start] = true
	visited[end] = true
	remaining := n - 2
	if start == end {
		remaining = n - 1
	}

	cur := start
	for ; remaining > 0; remaining-- {
		best := -1
		bestScore := 0.0
		for c := 0; c < n; c++ {
			if visited[c] {
				continue
			}
			score := m[cur][c]
			if lookahead != 0 {
				score += lookahead * m[c][end]
			}
			if math.IsNaN(score) {
				score = math.Inf(1)
			}
			if best == -1 || score < bestScore {
				best = c
				bestScore = score
			}
		}

		visited[best] = true
		route = append(route, best)
		cur = best
	}

	return append(route, end)
}
