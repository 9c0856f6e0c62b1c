package ports

import (
	"context"

	"github.com/tky-kevin/LazyTravelogue-sub000/internal/domain"
)

// Travel distance and duration between two points for one mode.
type PairCost struct {
	DistanceMeters  int
	DurationSeconds int
}

// Persistent store of pairwise costs, keyed by (mode, origin, destination).
// Result maps are keyed by destination LatLng.Key().
type MatrixCache interface {
	GetMany(ctx context.Context, mode domain.TransportMode, origin domain.LatLng, destinations []domain.LatLng) (map[string]PairCost, error)
	PutMany(ctx context.Context, mode domain.TransportMode, origin domain.LatLng, results map[string]PairCost) error
}
