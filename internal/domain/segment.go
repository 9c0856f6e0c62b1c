package domain

import "time"

// Normalized transit step used for display and scheduling enrichment.
type TransitSegment struct {
	Line          string
	Vehicle       string
	DepartureStop string
	ArrivalStop   string
	DepartureTime string
	ArrivalTime   string
	NumStops      int
	Color         string
	TextColor     string
}

// Normalized walking step.
type WalkingSegment struct {
	Duration    string
	Distance    string
	Instruction string
}

// Segment holds exactly one of Transit or Walking, matching Mode.
type Segment struct {
	Mode    TransportMode
	Transit *TransitSegment
	Walking *WalkingSegment
}

// AlternativeRoute summarizes a non-selected candidate for display.
type AlternativeRoute struct {
	Index         int
	DepartureAt   time.Time
	ArrivalAt     time.Time
	DepartureText string // "HH:MM"
	ArrivalText   string // "HH:MM"
	DurationText  string
	DurationValue int
	DistanceText  string
	Lines         []string
	HasTransit    bool
}
