package services

import (
	"context"
	"errors"
	"math"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tky-kevin/LazyTravelogue-sub000/internal/domain"
	"github.com/tky-kevin/LazyTravelogue-sub000/internal/ports"
)

const DefaultDirectionsConcurrency = 4

// RouteSource answers single-pair route queries; *RouteCache implements it.
type RouteSource interface {
	GetRoute(ctx context.Context, origin, destination domain.LatLng, mode domain.TransportMode, departAt *time.Time) (*domain.RouteResponse, error)
}

// LegDirections is the rendered route from one stop to the next.
// Err is set when the leg could not be routed; the other fields are then empty.
type LegDirections struct {
	FromStopID     string
	ToStopID       string
	Mode           domain.TransportMode
	DurationText   string
	DurationValue  int
	DistanceText   string
	DistanceValue  int
	TransitDetails []domain.Segment
	Alternatives   []domain.AlternativeRoute
	Err            error
}

// DirectionsService fetches the legs between consecutive stops of a day.
type DirectionsService struct {
	concurrency int
	log         *zap.Logger
	now         func() time.Time
}

func NewDirectionsService(concurrency int, log *zap.Logger) *DirectionsService {
	if concurrency <= 0 {
		concurrency = DefaultDirectionsConcurrency
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &DirectionsService{concurrency: concurrency, log: log, now: time.Now}
}

// FetchDayDirections routes every adjacent pair of stops using the first
// stop's outgoing mode and, when scheduled, its end time as departure.
// Legs are fetched concurrently; a failing leg is reported in its Err field
// and never cancels the others. The result has len(stops)-1 entries in
// stop order.
func (s *DirectionsService) FetchDayDirections(ctx context.Context, routes RouteSource, stops []domain.Stop) []LegDirections {
	if len(stops) < 2 {
		return []LegDirections{}
	}

	legs := make([]LegDirections, len(stops)-1)

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i := range legs {
		from, to := stops[i], stops[i+1]
		g.Go(func() error {
			legs[i] = s.fetchLeg(ctx, routes, from, to)
			return nil
		})
	}
	_ = g.Wait()

	return legs
}

func (s *DirectionsService) fetchLeg(ctx context.Context, routes RouteSource, from, to domain.Stop) LegDirections {
	mode := from.Mode()
	leg := LegDirections{FromStopID: from.ID, ToStopID: to.ID, Mode: mode}

	var departAt *time.Time
	if !from.EndAt.IsZero() {
		end := from.EndAt
		departAt = &end
	}

	resp, err := routes.GetRoute(ctx, from.Location, to.Location, mode, departAt)
	if err != nil {
		s.log.Warn("leg directions failed",
			zap.String("from", from.ID),
			zap.String("to", to.ID),
			zap.String("mode", string(mode)),
			zap.Error(err),
		)
		leg.Err = err
		return leg
	}

	base := EffectiveDeparture(departAt, s.now())
	sel, err := SelectRoute(resp, mode, base)
	if err != nil {
		leg.Err = err
		return leg
	}

	leg.DurationText = sel.Leg.Duration.Text
	leg.DurationValue = int(math.Round(sel.Leg.Duration.Value))
	leg.DistanceText = sel.Leg.Distance.Text
	leg.DistanceValue = int(math.Round(sel.Leg.Distance.Value))
	leg.Alternatives = sel.Alternatives
	if mode == domain.ModeTransit {
		leg.TransitDetails = sel.Segments
	}
	return leg
}

// ApplyDirections writes fetched legs onto a copy of stops, matching each
// leg to its stop by ID. Legs whose stop is gone, whose next stop or mode no
// longer match, or whose duration and distance are unchanged are skipped;
// an unchanged leg still fills in transit details and alternatives the stop
// lacks. A transit leg with no route found switches its stop to walking. The
// returned flag reports whether the timing or mode of any stop changed.
func ApplyDirections(stops []domain.Stop, legs []LegDirections) ([]domain.Stop, bool) {
	out := make([]domain.Stop, len(stops))
	copy(out, stops)

	index := make(map[string]int, len(out))
	for i, s := range out {
		index[s.ID] = i
	}

	changed := false
	for _, leg := range legs {
		pos, ok := index[leg.FromStopID]
		if !ok || pos+1 >= len(out) || out[pos+1].ID != leg.ToStopID {
			continue
		}
		stop := &out[pos]
		if stop.Mode() != leg.Mode {
			continue
		}

		if leg.Err != nil {
			if errors.Is(leg.Err, ports.ErrRouteNotFound) && leg.Mode == domain.ModeTransit {
				stop.TransportMode = domain.ModeWalking
				changed = true
			}
			continue
		}

		if stop.DurationText == leg.DurationText &&
			stop.DurationValue != nil && *stop.DurationValue == leg.DurationValue &&
			stop.Distance == leg.DistanceText {
			if len(stop.TransitDetails) == 0 && len(leg.TransitDetails) > 0 {
				stop.TransitDetails = leg.TransitDetails
			}
			if len(stop.Alternatives) == 0 && len(leg.Alternatives) > 0 {
				stop.Alternatives = leg.Alternatives
			}
			continue
		}

		stop.DurationText = leg.DurationText
		stop.DurationValue = domain.IntPtr(leg.DurationValue)
		stop.Distance = leg.DistanceText
		stop.DistanceValue = domain.IntPtr(leg.DistanceValue)
		stop.TransitDetails = leg.TransitDetails
		stop.Alternatives = leg.Alternatives
		changed = true
	}

	return out, changed
}
