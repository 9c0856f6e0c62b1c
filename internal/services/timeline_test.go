package services

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tky-kevin/LazyTravelogue-sub000/internal/domain"
)

var planDay = time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

func at(h, m int) time.Time {
	return time.Date(2026, 3, 14, h, m, 0, 0, time.UTC)
}

func TestRecalculateDayTimelineTwoStops(t *testing.T) {
	stops := []domain.Stop{
		{ID: "A", StayDuration: domain.FloatPtr(60), DurationValue: domain.IntPtr(600)},
		{ID: "B", StayDuration: domain.FloatPtr(30)},
	}

	got, err := RecalculateDayTimeline(stops, "09:00", planDay)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, at(9, 0), got[0].StartAt)
	assert.Equal(t, at(10, 0), got[0].EndAt)
	assert.Equal(t, at(10, 10), got[0].TravelEndAt)
	assert.Equal(t, at(10, 10), got[1].StartAt)
	assert.Equal(t, at(10, 40), got[1].EndAt)

	assert.Equal(t, "09:00", got[0].CalculatedStartTime)
	assert.Equal(t, "10:00", got[0].CalculatedEndTime)
	assert.Equal(t, "10:10", got[1].CalculatedStartTime)
	assert.Equal(t, "10:40", got[1].CalculatedEndTime)

	assert.True(t, stops[0].StartAt.IsZero(), "input must not be modified")
}

func TestRecalculateDayTimelineChainsTravelEnd(t *testing.T) {
	stops := []domain.Stop{
		{ID: "1", StayDuration: domain.FloatPtr(45), DurationValue: domain.IntPtr(89)},
		{ID: "2", StayDuration: domain.FloatPtr(15), DurationValue: domain.IntPtr(1234)},
		{ID: "3", DurationValue: domain.IntPtr(29)},
		{ID: "4", StayDuration: domain.FloatPtr(0)},
	}

	got, err := RecalculateDayTimeline(stops, "08:30", planDay)
	require.NoError(t, err)

	assert.Equal(t, at(8, 30), got[0].StartAt)
	for i := 0; i+1 < len(got); i++ {
		assert.Equal(t, got[i].TravelEndAt, got[i+1].StartAt, "stop %d", i+1)
	}
	// 89s rounds to 1 minute, 1234s to 21 minutes, 29s to 0.
	assert.Equal(t, got[0].EndAt.Add(time.Minute), got[0].TravelEndAt)
	assert.Equal(t, got[1].EndAt.Add(21*time.Minute), got[1].TravelEndAt)
	assert.Equal(t, got[2].EndAt, got[2].TravelEndAt)
	assert.Equal(t, got[3].StartAt, got[3].EndAt)
}

func TestRecalculateDayTimelineDefaultsStay(t *testing.T) {
	cases := map[string]*float64{
		"missing": nil,
		"nan":     domain.FloatPtr(math.NaN()),
	}

	for name, stay := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := RecalculateDayTimeline([]domain.Stop{{ID: "x", StayDuration: stay}}, "10:00", planDay)
			require.NoError(t, err)
			assert.Equal(t, 60*time.Minute, got[0].EndAt.Sub(got[0].StartAt))
		})
	}
}

func TestRecalculateDayTimelineIsIdempotent(t *testing.T) {
	stops := []domain.Stop{
		{ID: "a", StayDuration: domain.FloatPtr(120), DurationValue: domain.IntPtr(1800)},
		{ID: "b", DurationValue: domain.IntPtr(450)},
		{ID: "c", StayDuration: domain.FloatPtr(90)},
	}

	first, err := RecalculateDayTimeline(stops, "07:45", planDay)
	require.NoError(t, err)

	start, ok := EffectiveStartTime(first)
	require.True(t, ok)
	assert.Equal(t, "07:45", start)

	second, err := RecalculateDayTimeline(first, start, planDay)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRecalculateDayTimelineMarksRollover(t *testing.T) {
	stops := []domain.Stop{
		{ID: "late", StayDuration: domain.FloatPtr(90), DurationValue: domain.IntPtr(3600)},
		{ID: "after-midnight", StayDuration: domain.FloatPtr(24 * 60)},
	}

	got, err := RecalculateDayTimeline(stops, "22:00", planDay)
	require.NoError(t, err)

	assert.Equal(t, "22:00", got[0].CalculatedStartTime)
	assert.Equal(t, "23:30", got[0].CalculatedEndTime)
	assert.Equal(t, "00:30 (+1)", got[1].CalculatedStartTime)
	assert.Equal(t, "00:30 (+2)", got[1].CalculatedEndTime)
}

func TestRecalculateDayTimelineEmptyAndInvalid(t *testing.T) {
	got, err := RecalculateDayTimeline(nil, "bogus", planDay)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = RecalculateDayTimeline([]domain.Stop{{ID: "a"}}, "25:99", planDay)
	assert.ErrorIs(t, err, ErrInvalidStartTime)
}
