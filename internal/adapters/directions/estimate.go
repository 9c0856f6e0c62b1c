package directions

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/golang/geo/s2"
	"github.com/samber/lo"

	"github.com/tky-kevin/LazyTravelogue-sub000/internal/domain"
)

const earthRadiusMeters = 6371008.8

// Average door-to-door speeds in meters per second.
var defaultSpeeds = map[domain.TransportMode]float64{
	domain.ModeDriving: 40 / 3.6,
	domain.ModeWalking: 5 / 3.6,
	domain.ModeTransit: 25 / 3.6,
}

// EstimatingOracle answers route and matrix queries offline from the
// great-circle distance between points, stretched by a detour factor and
// divided by a per-mode average speed. It never fails and serves as the
// oracle when no routing API key is configured.
type EstimatingOracle struct {
	speeds map[domain.TransportMode]float64
	detour float64
}

func NewEstimatingOracle() *EstimatingOracle {
	return &EstimatingOracle{speeds: defaultSpeeds, detour: 1.3}
}

// Estimate returns road distance in meters and travel time in seconds.
func (e *EstimatingOracle) Estimate(a, b domain.LatLng, mode domain.TransportMode) (meters, seconds int) {
	angle := s2.LatLngFromDegrees(a.Lat, a.Lng).Distance(s2.LatLngFromDegrees(b.Lat, b.Lng))
	d := angle.Radians() * earthRadiusMeters * e.detour

	speed, ok := e.speeds[mode]
	if !ok {
		speed = e.speeds[domain.ModeDriving]
	}
	return int(math.Round(d)), int(math.Round(d / speed))
}

func (e *EstimatingOracle) Route(
	ctx context.Context,
	origin domain.LatLng,
	destination domain.LatLng,
	mode domain.TransportMode,
	departAt *time.Time,
) (*domain.RouteResponse, error) {
	meters, seconds := e.Estimate(origin, destination, mode)
	resp := SingleLegResponse(mode, seconds, meters)
	resp.Routes[0].Summary = "estimated"

	if departAt != nil && !departAt.IsZero() {
		leg := &resp.Routes[0].Legs[0]
		arrive := departAt.Add(time.Duration(seconds) * time.Second)
		leg.DepartureTime = &domain.TimeValue{Text: departAt.Format("15:04"), Value: float64(departAt.Unix())}
		leg.ArrivalTime = &domain.TimeValue{Text: arrive.Format("15:04"), Value: float64(arrive.Unix())}
	}
	return resp, nil
}

func (e *EstimatingOracle) Matrix(
	ctx context.Context,
	origins []domain.LatLng,
	destinations []domain.LatLng,
	mode domain.TransportMode,
) (*domain.MatrixResponse, error) {
	rows := lo.Map(origins, func(o domain.LatLng, _ int) domain.MatrixRow {
		return domain.MatrixRow{
			Elements: lo.Map(destinations, func(d domain.LatLng, _ int) domain.MatrixElement {
				meters, seconds := e.Estimate(o, d, mode)
				return okElement(seconds, meters)
			}),
		}
	})
	return &domain.MatrixResponse{Status: domain.StatusOK, Rows: rows}, nil
}

// FormatDuration renders seconds the way the Directions API does,
// e.g. "1 min", "14 mins", "1 hour 5 mins".
func FormatDuration(seconds int) string {
	mins := int(math.Round(float64(seconds) / 60))
	if mins < 1 {
		mins = 1
	}
	h, m := mins/60, mins%60
	switch {
	case h == 0:
		return plural(m, "min")
	case m == 0:
		return plural(h, "hour")
	default:
		return plural(h, "hour") + " " + plural(m, "min")
	}
}

// FormatDistance renders meters as "850 m" or "3.4 km".
func FormatDistance(meters int) string {
	if meters < 1000 {
		return fmt.Sprintf("%d m", meters)
	}
	return fmt.Sprintf("%.1f km", float64(meters)/1000)
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
