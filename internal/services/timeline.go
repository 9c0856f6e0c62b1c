package services

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/tky-kevin/LazyTravelogue-sub000/internal/domain"
)

var ErrInvalidStartTime = errors.New("start time must be HH:MM")

// ParseStartTime returns the start-time instant on the calendar date of day.
func ParseStartTime(startTime string, day time.Time) (time.Time, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(startTime))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse start time %q: %w", startTime, ErrInvalidStartTime)
	}

	y, m, d := day.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, day.Location()), nil
}

// RecalculateDayTimeline schedules stops in a single forward pass.
//
// Each stop starts where the previous stop's travel ended; its end is start
// plus the stay duration and its travel end is end plus the travel time to
// the next stop rounded to whole minutes. The input slice is not modified and
// the result depends only on the stop order, stay and travel durations, so
// re-running it on its own output reproduces identical timestamps.
func RecalculateDayTimeline(stops []domain.Stop, startTime string, day time.Time) ([]domain.Stop, error) {
	if len(stops) == 0 {
		return []domain.Stop{}, nil
	}

	cursor, err := ParseStartTime(startTime, day)
	if err != nil {
		return nil, fmt.Errorf("recalculate timeline: %w", err)
	}

	out := make([]domain.Stop, len(stops))
	for i, s := range stops {
		start := cursor
		end := start.Add(time.Duration(s.StayMinutes() * float64(time.Minute)))
		travelMinutes := math.Round(float64(s.TravelSeconds()) / 60)
		travelEnd := end.Add(time.Duration(travelMinutes) * time.Minute)

		s.StartAt = start
		s.EndAt = end
		s.TravelEndAt = travelEnd
		s.CalculatedStartTime = FormatClock(start, day)
		s.CalculatedEndTime = FormatClock(end, day)
		out[i] = s

		cursor = travelEnd
	}

	return out, nil
}

// EffectiveStartTime returns the "HH:MM" start of the first scheduled stop.
func EffectiveStartTime(stops []domain.Stop) (string, bool) {
	if len(stops) == 0 || stops[0].StartAt.IsZero() {
		return "", false
	}
	return stops[0].StartAt.Format("15:04"), true
}

// FormatClock renders t as "HH:MM", appending "(+N)" when t falls N calendar
// days after day.
func FormatClock(t time.Time, day time.Time) string {
	clock := t.Format("15:04")
	if n := dayOffset(t, day); n > 0 {
		return fmt.Sprintf("%s (+%d)", clock, n)
	}
	return clock
}

func dayOffset(t time.Time, day time.Time) int {
	ty, tm, td := t.In(day.Location()).Date()
	dy, dm, dd := day.Date()
	a := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	b := time.Date(dy, dm, dd, 0, 0, 0, 0, time.UTC)
	return int(a.Sub(b).Hours() / 24)
}
