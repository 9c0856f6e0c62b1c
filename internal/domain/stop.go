package domain

import (
	"math"
	"time"
)

// TransportMode is the travel mode used for the leg leaving a stop.
type TransportMode string

const (
	ModeDriving TransportMode = "DRIVING"
	ModeWalking TransportMode = "WALKING"
	ModeTransit TransportMode = "TRANSIT"
)

// DefaultStayMinutes applies when a stop carries no usable stay duration.
const DefaultStayMinutes = 60

// ParseTransportMode maps a raw mode string to a known mode.
// Unknown or empty values are reported with ok=false.
func ParseTransportMode(s string) (TransportMode, bool) {
	switch TransportMode(s) {
	case ModeDriving, ModeWalking, ModeTransit:
		return TransportMode(s), true
	}
	return "", false
}

// Represents a single planned visit within a Day.
//
// The travel fields (DurationText, DurationValue, Distance, TransitDetails,
// Alternatives) describe the leg from this stop to the next one and are
// filled in by directions enrichment. The schedule fields are produced by
// RecalculateDayTimeline and are recomputed after every mutation.
type Stop struct {
	ID       string
	Title    string
	Category string
	Location LatLng

	// Minutes spent at the stop. nil or NaN means DefaultStayMinutes.
	StayDuration  *float64
	TransportMode TransportMode

	DurationText   string
	DurationValue  *int // seconds
	Distance       string
	DistanceValue  *int // meters
	TransitDetails []Segment
	Alternatives   []AlternativeRoute

	StartAt             time.Time
	EndAt               time.Time
	TravelEndAt         time.Time
	CalculatedStartTime string
	CalculatedEndTime   string
}

// StayMinutes returns the effective stay, substituting the default for
// missing or non-numeric values.
func (s Stop) StayMinutes() float64 {
	if s.StayDuration == nil || math.IsNaN(*s.StayDuration) || math.IsInf(*s.StayDuration, 0) {
		return DefaultStayMinutes
	}
	return *s.StayDuration
}

// TravelSeconds returns the known travel time to the next stop, or 0.
func (s Stop) TravelSeconds() int {
	if s.DurationValue == nil {
		return 0
	}
	return *s.DurationValue
}

// Mode returns the outgoing transport mode, defaulting to driving.
func (s Stop) Mode() TransportMode {
	if s.TransportMode == "" {
		return ModeDriving
	}
	return s.TransportMode
}

// Day is an ordered sequence of stops; the slice order is the schedule order.
type Day struct {
	ID        string
	Date      time.Time
	StartTime string // "HH:MM"
	Stops     []Stop
}

// FloatPtr and IntPtr are small helpers for the optional numeric fields.
func FloatPtr(v float64) *float64 { return &v }

func IntPtr(v int) *int { return &v }
