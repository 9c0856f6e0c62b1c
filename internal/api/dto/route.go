package dto

import (
	"fmt"
	"time"

	"github.com/tky-kevin/LazyTravelogue-sub000/internal/domain"
	"github.com/tky-kevin/LazyTravelogue-sub000/internal/services"
)

type RouteRequest struct {
	Origin        LatLng     `json:"origin"`
	Destination   LatLng     `json:"destination"`
	Mode          string     `json:"mode" validate:"omitempty,oneof=DRIVING WALKING TRANSIT"`
	DepartureTime *time.Time `json:"departure_time"`
}

// Points returns the validated origin and destination.
func (r RouteRequest) Points() (domain.LatLng, domain.LatLng, error) {
	origin, destination := r.Origin.ToDomain(), r.Destination.ToDomain()
	if !origin.Valid() {
		return domain.LatLng{}, domain.LatLng{}, fmt.Errorf("origin: %w", ErrInvalidLocation)
	}
	if !destination.Valid() {
		return domain.LatLng{}, domain.LatLng{}, fmt.Errorf("destination: %w", ErrInvalidLocation)
	}
	return origin, destination, nil
}

type RouteResponse struct {
	Index         int           `json:"index"`
	Duration      string        `json:"duration"`
	DurationValue float64       `json:"duration_value"`
	Distance      string        `json:"distance"`
	DistanceValue float64       `json:"distance_value"`
	Segments      []Segment     `json:"segments"`
	Alternatives  []Alternative `json:"alternatives"`
}

func NewRouteResponse(sel services.SelectedRoute) RouteResponse {
	segments := NewSegments(sel.Segments)
	if segments == nil {
		segments = []Segment{}
	}
	alternatives := NewAlternatives(sel.Alternatives)
	if alternatives == nil {
		alternatives = []Alternative{}
	}

	return RouteResponse{
		Index:         sel.Index,
		Duration:      sel.Leg.Duration.Text,
		DurationValue: sel.Leg.Duration.Value,
		Distance:      sel.Leg.Distance.Text,
		DistanceValue: sel.Leg.Distance.Value,
		Segments:      segments,
		Alternatives:  alternatives,
	}
}

type LegResponse struct {
	From          string `json:"from"`
	To            string `json:"to"`
	Mode          string `json:"mode"`
	Duration      string `json:"duration,omitempty"`
	DurationValue int    `json:"duration_value,omitempty"`
	Distance      string `json:"distance,omitempty"`
	DistanceValue int    `json:"distance_value,omitempty"`
	Error         string `json:"error,omitempty"`
}

type RefreshResponse struct {
	Day  DayResponse   `json:"day"`
	Legs []LegResponse `json:"legs"`
}

func NewRefreshResponse(day DayResponse, legs []services.LegDirections) RefreshResponse {
	out := make([]LegResponse, 0, len(legs))
	for _, l := range legs {
		lr := LegResponse{
			From:          l.FromStopID,
			To:            l.ToStopID,
			Mode:          string(l.Mode),
			Duration:      l.DurationText,
			DurationValue: l.DurationValue,
			Distance:      l.DistanceText,
			DistanceValue: l.DistanceValue,
		}
		if l.Err != nil {
			lr.Error = l.Err.Error()
		}
		out = append(out, lr)
	}
	return RefreshResponse{Day: day, Legs: out}
}
