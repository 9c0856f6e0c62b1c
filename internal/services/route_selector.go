package services

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/tky-kevin/LazyTravelogue-sub000/internal/domain"
	"github.com/tky-kevin/LazyTravelogue-sub000/internal/ports"
)

// Numeric timestamps below this are epoch seconds, at or above it epoch
// milliseconds.
const epochMillisThreshold = 1e10

// SelectedRoute is the chosen candidate of a route response together with
// its rendered segments and the summaries of the other candidates.
type SelectedRoute struct {
	Index        int
	Leg          domain.Leg
	Segments     []domain.Segment
	Alternatives []domain.AlternativeRoute
}

// SelectRouteIndex picks the candidate to display. For transit, the fastest
// candidate containing at least one transit step wins, earliest on ties;
// with no such candidate, or for any other mode, the oracle's first
// candidate is used.
func SelectRouteIndex(resp *domain.RouteResponse, mode domain.TransportMode) int {
	if resp == nil || len(resp.Routes) == 0 || mode != domain.ModeTransit {
		return 0
	}

	type indexed struct {
		index    int
		duration float64
	}

	candidates := make([]indexed, 0, len(resp.Routes))
	for i, r := range resp.Routes {
		leg, ok := r.FirstLeg()
		if !ok || !r.HasTransitStep() {
			continue
		}
		candidates = append(candidates, indexed{index: i, duration: leg.Duration.Value})
	}
	if len(candidates) == 0 {
		return 0
	}

	best := lo.MinBy(candidates, func(a, b indexed) bool { return a.duration < b.duration })
	return best.index
}

// SelectRoute chooses a candidate and renders it. base anchors timestamps
// the oracle did not report, typically the requested departure.
func SelectRoute(resp *domain.RouteResponse, mode domain.TransportMode, base time.Time) (SelectedRoute, error) {
	if resp == nil || len(resp.Routes) == 0 {
		return SelectedRoute{}, ports.ErrRouteNotFound
	}

	idx := SelectRouteIndex(resp, mode)
	leg, ok := resp.Routes[idx].FirstLeg()
	if !ok {
		return SelectedRoute{}, errors.New("select route: chosen candidate has no legs")
	}

	return SelectedRoute{
		Index:        idx,
		Leg:          leg,
		Segments:     NormalizeSteps(leg),
		Alternatives: SummarizeAlternatives(resp, idx, base),
	}, nil
}

// NormalizeSteps converts a leg's steps into display segments. Transit steps
// without details and steps of other modes are dropped.
func NormalizeSteps(leg domain.Leg) []domain.Segment {
	out := make([]domain.Segment, 0, len(leg.Steps))
	for _, s := range leg.Steps {
		switch s.TravelMode {
		case domain.ModeTransit:
			if s.Transit == nil {
				continue
			}
			out = append(out, domain.Segment{Mode: domain.ModeTransit, Transit: transitSegment(s.Transit)})
		case domain.ModeWalking:
			out = append(out, domain.Segment{
				Mode: domain.ModeWalking,
				Walking: &domain.WalkingSegment{
					Duration:    textOf(s.Duration),
					Distance:    textOf(s.Distance),
					Instruction: s.Instructions,
				},
			})
		}
	}
	return out
}

func transitSegment(td *domain.TransitDetails) *domain.TransitSegment {
	line := td.Line.ShortName
	if line == "" {
		line = td.Line.Name
	}
	return &domain.TransitSegment{
		Line:          line,
		Vehicle:       td.Line.VehicleName,
		DepartureStop: td.DepartureStop,
		ArrivalStop:   td.ArrivalStop,
		DepartureTime: timeText(td.DepartureTime),
		ArrivalTime:   timeText(td.ArrivalTime),
		NumStops:      td.NumStops,
		Color:         td.Line.Color,
		TextColor:     td.Line.TextColor,
	}
}

// SummarizeAlternatives describes every candidate except the selected one.
// Departure falls back to base; arrival falls back to departure plus the
// leg duration.
func SummarizeAlternatives(resp *domain.RouteResponse, selected int, base time.Time) []domain.AlternativeRoute {
	if resp == nil {
		return nil
	}

	out := make([]domain.AlternativeRoute, 0, len(resp.Routes))
	for i, r := range resp.Routes {
		if i == selected {
			continue
		}
		leg, ok := r.FirstLeg()
		if !ok {
			continue
		}

		dep := ParseTimestamp(timeValueOf(leg.DepartureTime), base)
		arr, ok := parseTimestamp(timeValueOf(leg.ArrivalTime), base.Location())
		if !ok {
			arr = dep.Add(time.Duration(leg.Duration.Value * float64(time.Second)))
		}

		segments := NormalizeSteps(leg)
		lines := lo.FilterMap(segments, func(s domain.Segment, _ int) (string, bool) {
			if s.Transit == nil {
				return "", false
			}
			return s.Transit.Line, true
		})

		out = append(out, domain.AlternativeRoute{
			Index:         i,
			DepartureAt:   dep,
			ArrivalAt:     arr,
			DepartureText: dep.Format("15:04"),
			ArrivalText:   arr.Format("15:04"),
			DurationText:  leg.Duration.Text,
			DurationValue: int(math.Round(leg.Duration.Value)),
			DistanceText:  leg.Distance.Text,
			Lines:         lines,
			HasTransit:    r.HasTransitStep(),
		})
	}
	return out
}

// ParseTimestamp accepts a time.Time, an epoch number (seconds below 1e10,
// milliseconds otherwise), a numeric string or an ISO-8601 string. Anything
// else, including non-positive epochs, yields fallback. Results are in
// fallback's location.
func ParseTimestamp(v any, fallback time.Time) time.Time {
	if t, ok := parseTimestamp(v, fallback.Location()); ok {
		return t
	}
	return fallback
}

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

func parseTimestamp(v any, loc *time.Location) (time.Time, bool) {
	switch x := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return x.In(loc), !x.IsZero()
	case *time.Time:
		if x == nil {
			return time.Time{}, false
		}
		return parseTimestamp(*x, loc)
	case domain.TimeValue:
		return parseTimestamp(x.Value, loc)
	case *domain.TimeValue:
		if x == nil {
			return time.Time{}, false
		}
		return parseTimestamp(x.Value, loc)
	case int:
		return fromEpoch(float64(x), loc)
	case int64:
		return fromEpoch(float64(x), loc)
	case float64:
		return fromEpoch(x, loc)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return time.Time{}, false
		}
		return fromEpoch(f, loc)
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return time.Time{}, false
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return fromEpoch(f, loc)
		}
		for _, layout := range isoLayouts {
			if t, err := time.ParseInLocation(layout, s, loc); err == nil {
				return t.In(loc), true
			}
		}
	}
	return time.Time{}, false
}

func fromEpoch(f float64, loc *time.Location) (time.Time, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return time.Time{}, false
	}
	if f < epochMillisThreshold {
		return time.UnixMilli(int64(math.Round(f * 1000))).In(loc), true
	}
	return time.UnixMilli(int64(math.Round(f))).In(loc), true
}

func timeValueOf(tv *domain.TimeValue) any {
	if tv == nil {
		return nil
	}
	return tv.Value
}

func timeText(tv *domain.TimeValue) string {
	if tv == nil {
		return ""
	}
	return tv.Text
}

func textOf(tv *domain.TextValue) string {
	if tv == nil {
		return ""
	}
	return tv.Text
}
