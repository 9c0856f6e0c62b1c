package ports

import (
	"context"

	"github.com/tky-kevin/LazyTravelogue-sub000/internal/domain"
)

// Batched pairwise lookup: one call covers every origin x destination pair.
// Per-pair failures are reported through element statuses, not the error.
type BatchCostOracle interface {
	Matrix(
		ctx context.Context,
		origins []domain.LatLng,
		destinations []domain.LatLng,
		mode domain.TransportMode,
	) (*domain.MatrixResponse, error)
}
