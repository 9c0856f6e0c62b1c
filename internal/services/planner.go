package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tky-kevin/LazyTravelogue-sub000/internal/domain"
	"github.com/tky-kevin/LazyTravelogue-sub000/internal/platform/obs"
)

// Planner coordinates scheduling, optimization and leg enrichment for a day.
type Planner struct {
	optimizer  *RouteOptimizer
	directions *DirectionsService
	sessions   *SessionRegistry
	log        *zap.Logger
}

func NewPlanner(optimizer *RouteOptimizer, directions *DirectionsService, sessions *SessionRegistry, log *zap.Logger) *Planner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Planner{optimizer: optimizer, directions: directions, sessions: sessions, log: log}
}

// Schedule recomputes the day's timeline.
func (p *Planner) Schedule(day domain.Day) (domain.Day, error) {
	stops, err := RecalculateDayTimeline(day.Stops, day.StartTime, day.Date)
	if err != nil {
		return day, err
	}
	day.Stops = stops
	return day, nil
}

// OptimizeDay reorders the day's stops and reschedules them. On failure the
// input day is returned unchanged with the error.
func (p *Planner) OptimizeDay(ctx context.Context, day domain.Day) (_ domain.Day, err error) {
	defer obs.Time(ctx, p.log, "plan.OptimizeDay")(&err)

	ordered, err := p.optimizer.Optimize(ctx, day.Stops)
	if err != nil {
		return day, fmt.Errorf("optimize day %q: %w", day.ID, err)
	}

	out := day
	out.Stops = ordered
	out, err = p.Schedule(out)
	if err != nil {
		return day, fmt.Errorf("optimize day %q: %w", day.ID, err)
	}
	return out, nil
}

// RefreshDay schedules the day, fetches directions for every leg through
// the session's route cache, applies them and reschedules so the new travel
// times flow into the timestamps. Leg failures are reported per leg and do
// not fail the refresh.
func (p *Planner) RefreshDay(ctx context.Context, sessionID string, day domain.Day) (_ domain.Day, _ []LegDirections, err error) {
	defer obs.Time(ctx, p.log, "plan.RefreshDay")(&err)

	scheduled, err := p.Schedule(day)
	if err != nil {
		return day, nil, fmt.Errorf("refresh day %q: %w", day.ID, err)
	}

	legs := p.directions.FetchDayDirections(ctx, p.sessions.Get(sessionID), scheduled.Stops)

	stops, changed := ApplyDirections(scheduled.Stops, legs)
	scheduled.Stops = stops
	if !changed {
		return scheduled, legs, nil
	}

	out, err := p.Schedule(scheduled)
	if err != nil {
		return day, nil, fmt.Errorf("refresh day %q: %w", day.ID, err)
	}
	return out, legs, nil
}

// Route answers a single-pair query through the session's route cache and
// renders the chosen candidate.
func (p *Planner) Route(
	ctx context.Context,
	sessionID string,
	origin domain.LatLng,
	destination domain.LatLng,
	mode domain.TransportMode,
	departAt *time.Time,
) (SelectedRoute, error) {
	cache := p.sessions.Get(sessionID)

	resp, err := cache.GetRoute(ctx, origin, destination, mode, departAt)
	if err != nil {
		return SelectedRoute{}, fmt.Errorf("route %s -> %s: %w", origin.Key(), destination.Key(), err)
	}

	sel, err := SelectRoute(resp, mode, EffectiveDeparture(departAt, cache.now()))
	if err != nil {
		return SelectedRoute{}, fmt.Errorf("route %s -> %s: %w", origin.Key(), destination.Key(), err)
	}
	return sel, nil
}

// EndSession drops the session's cached routes.
func (p *Planner) EndSession(id string) bool {
	return p.sessions.End(id)
}
