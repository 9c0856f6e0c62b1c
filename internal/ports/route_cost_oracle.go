package ports

import (
	"context"
	"time"

	"github.com/tky-kevin/LazyTravelogue-sub000/internal/domain"
)

// Contract for retrieving candidate routes between two points.
type RouteCostOracle interface {
	// Return one or more candidate routes. departAt may be nil.
	// A non-OK status is reported as an error wrapping ErrRouteNotFound.
	Route(
		ctx context.Context,
		origin domain.LatLng,
		destination domain.LatLng,
		mode domain.TransportMode,
		departAt *time.Time,
	) (*domain.RouteResponse, error)
}
