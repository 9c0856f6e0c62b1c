package domain

import "math"

type MatrixElement struct {
	Status   string
	Duration TextValue
	Distance TextValue
}

type MatrixRow struct {
	Elements []MatrixElement
}

// MatrixResponse is the batched pairwise answer: Rows[i].Elements[j]
// describes travel from origins[i] to destinations[j].
type MatrixResponse struct {
	Status string
	Rows   []MatrixRow
}

// CostMatrix holds pairwise travel durations in seconds for one day and
// one mode. Unreachable pairs are +Inf.
type CostMatrix [][]float64

// NewCostMatrix allocates an n x n matrix with a zero diagonal and +Inf elsewhere.
func NewCostMatrix(n int) CostMatrix {
	m := make(CostMatrix, n)
	for i := range m {
		m[i] = make([]float64, n)
		for j := range m[i] {
			if i != j {
				m[i][j] = math.Inf(1)
			}
		}
	}
	return m
}

func (m CostMatrix) N() int { return len(m) }

// TourCost sums the cost of consecutive legs along route.
func (m CostMatrix) TourCost(route []int) float64 {
	total := 0.0
	for i := 0; i+1 < len(route); i++ {
		total += m[route[i]][route[i+1]]
	}
	return total
}
