package directions

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tky-kevin/LazyTravelogue-sub000/internal/domain"
	"github.com/tky-kevin/LazyTravelogue-sub000/internal/platform/obs"
)

type textValue struct {
	Text  string  `json:"text"`
	Value float64 `json:"value"`
}

type timeValue struct {
	Text     string  `json:"text"`
	TimeZone string  `json:"time_zone"`
	Value    float64 `json:"value"`
}

type directionsResponse struct {
	Status       string            `json:"status"`
	ErrorMessage string            `json:"error_message"`
	Routes       []directionsRoute `json:"routes"`
}

type directionsRoute struct {
	Summary string          `json:"summary"`
	Legs    []directionsLeg `json:"legs"`
}

type directionsLeg struct {
	Duration      textValue        `json:"duration"`
	Distance      textValue        `json:"distance"`
	DepartureTime *timeValue       `json:"departure_time"`
	ArrivalTime   *timeValue       `json:"arrival_time"`
	Steps         []directionsStep `json:"steps"`
}

type directionsStep struct {
	TravelMode       string          `json:"travel_mode"`
	HTMLInstructions string          `json:"html_instructions"`
	Duration         *textValue      `json:"duration"`
	Distance         *textValue      `json:"distance"`
	TransitDetails   *transitDetails `json:"transit_details"`
}

type transitDetails struct {
	Line struct {
		Name      string `json:"name"`
		ShortName string `json:"short_name"`
		Color     string `json:"color"`
		TextColor string `json:"text_color"`
		Vehicle   struct {
			Name string `json:"name"`
			Type string `json:"type"`
		} `json:"vehicle"`
	} `json:"line"`
	DepartureStop struct {
		Name string `json:"name"`
	} `json:"departure_stop"`
	ArrivalStop struct {
		Name string `json:"name"`
	} `json:"arrival_stop"`
	DepartureTime *timeValue `json:"departure_time"`
	ArrivalTime   *timeValue `json:"arrival_time"`
	NumStops      int        `json:"num_stops"`
	Headsign      string     `json:"headsign"`
}

// GoogleDirections implements ports.RouteCostOracle with the Google
// Directions API.
type GoogleDirections struct {
	client *GoogleClient
}

func NewGoogleDirections(client *GoogleClient) *GoogleDirections {
	return &GoogleDirections{client: client}
}

func (g *GoogleDirections) Route(
	ctx context.Context,
	origin domain.LatLng,
	destination domain.LatLng,
	mode domain.TransportMode,
	departAt *time.Time,
) (_ *domain.RouteResponse, err error) {
	defer obs.Time(ctx, g.client.log, "google.Route")(&err)

	q := url.Values{}
	q.Set("origin", origin.Key())
	q.Set("destination", destination.Key())
	q.Set("mode", strings.ToLower(string(mode)))
	if mode == domain.ModeTransit {
		q.Set("alternatives", "true")
		q.Set("transit_routing_preference", "fewer_transfers")
	}
	if departAt != nil && !departAt.IsZero() {
		q.Set("departure_time", strconv.FormatInt(departAt.Unix(), 10))
	}

	resp, err := g.client.doWithRetry(ctx, func() (*http.Request, error) {
		return g.client.newRequest(ctx, "/directions/json", q)
	})
	if err != nil {
		return nil, fmt.Errorf("directions request failed: %w", err)
	}
	defer resp.Body.Close()

	var dr directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return nil, fmt.Errorf("decode directions response: %w", err)
	}

	if dr.Status != domain.StatusOK {
		return nil, fmt.Errorf("directions %s -> %s: %w", origin.Key(), destination.Key(), statusError(dr.Status, dr.ErrorMessage))
	}

	out := &domain.RouteResponse{Status: dr.Status, Routes: make([]domain.RouteCandidate, 0, len(dr.Routes))}
	for _, r := range dr.Routes {
		out.Routes = append(out.Routes, r.toDomain())
	}
	return out, nil
}

func (r directionsRoute) toDomain() domain.RouteCandidate {
	legs := make([]domain.Leg, 0, len(r.Legs))
	for _, l := range r.Legs {
		steps := make([]domain.Step, 0, len(l.Steps))
		for _, s := range l.Steps {
			steps = append(steps, s.toDomain())
		}
		legs = append(legs, domain.Leg{
			Duration:      domain.TextValue(l.Duration),
			Distance:      domain.TextValue(l.Distance),
			Steps:         steps,
			DepartureTime: l.DepartureTime.toDomain(),
			ArrivalTime:   l.ArrivalTime.toDomain(),
		})
	}
	return domain.RouteCandidate{Summary: r.Summary, Legs: legs}
}

func (s directionsStep) toDomain() domain.Step {
	step := domain.Step{
		TravelMode:   domain.TransportMode(s.TravelMode),
		Duration:     s.Duration.toDomain(),
		Distance:     s.Distance.toDomain(),
		Instructions: s.HTMLInstructions,
	}

	if td := s.TransitDetails; td != nil {
		step.Transit = &domain.TransitDetails{
			Line: domain.TransitLine{
				Name:        td.Line.Name,
				ShortName:   td.Line.ShortName,
				Color:       td.Line.Color,
				TextColor:   td.Line.TextColor,
				VehicleName: td.Line.Vehicle.Name,
				VehicleType: td.Line.Vehicle.Type,
			},
			DepartureStop: td.DepartureStop.Name,
			ArrivalStop:   td.ArrivalStop.Name,
			DepartureTime: td.DepartureTime.toDomain(),
			ArrivalTime:   td.ArrivalTime.toDomain(),
			NumStops:      td.NumStops,
			Headsign:      td.Headsign,
		}
	}
	return step
}

func (t *textValue) toDomain() *domain.TextValue {
	if t == nil {
		return nil
	}
	v := domain.TextValue(*t)
	return &v
}

func (t *timeValue) toDomain() *domain.TimeValue {
	if t == nil {
		return nil
	}
	return &domain.TimeValue{Text: t.Text, TimeZone: t.TimeZone, Value: t.Value}
}
