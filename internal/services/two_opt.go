package services

import (
	"github.com/samber/lo"

	"github.com/tky-kevin/LazyTravelogue-sub000/internal/domain"
)

// TwoOpt improves route in place with first-improvement 2-opt moves and
// returns it.
//
// The first and last positions are never moved. For a candidate pair (i, j)
// the move replaces edges (i-1,i) and (j,j+1) with (i-1,j) and (i,j+1) and
// reverses route[i..j]. Travel times are not always symmetric, so the delta
// also counts the change of the reversed interior; on a symmetric matrix
// that term is zero. A move is applied only when the delta is strictly
// negative, which rejects NaN deltas arising from unreachable pairs. After a
// move the pass continues from the next pair on the updated route; passes
// repeat until one applies no move.
func TwoOpt(m domain.CostMatrix, route []int) []int {
	last := len(route) - 1
	if last < 3 {
		return route
	}

	for improved := true; improved; {
		improved = false
		for i := 1; i < last-1; i++ {
			for j := i + 1; j < last; j++ {
				a, b := route[i-1], route[i]
				c, d := route[j], route[j+1]

				delta := m[a][c] + m[b][d] - m[a][b] - m[c][d]
				delta += reversalDelta(m, route[i:j+1])
				if delta < 0 {
					lo.Reverse(route[i : j+1])
					improved = true
				}
			}
		}
	}

	return route
}

// reversalDelta is the cost change of walking seg backwards instead of forwards.
func reversalDelta(m domain.CostMatrix, seg []int) float64 {
	forward, backward := 0.0, 0.0
	for k := 0; k+1 < len(seg); k++ {
		forward += m[seg[k]][seg[k+1]]
		backward += m[seg[k+1]][seg[k]]
	}
	return backward - forward
}
