package domain

// Oracle statuses shared by the route and matrix responses.
const (
	StatusOK          = "OK"
	StatusZeroResults = "ZERO_RESULTS"
	StatusNotFound    = "NOT_FOUND"
)

// TextValue pairs a display string with its numeric value
// (seconds for durations, meters for distances).
type TextValue struct {
	Text  string
	Value float64
}

// TimeValue is a timestamp as reported by the routing oracle.
// Value may hold a time.Time, a numeric epoch (seconds or milliseconds)
// or an ISO-8601 string; see services.ParseTimestamp.
type TimeValue struct {
	Text     string
	TimeZone string
	Value    any
}

type TransitLine struct {
	Name        string
	ShortName   string
	Color       string
	TextColor   string
	VehicleName string
	VehicleType string
}

type TransitDetails struct {
	Line          TransitLine
	DepartureStop string
	ArrivalStop   string
	DepartureTime *TimeValue
	ArrivalTime   *TimeValue
	NumStops      int
	Headsign      string
}

// Step is one segment of a leg, either walking or transit.
type Step struct {
	TravelMode   TransportMode
	Transit      *TransitDetails
	Duration     *TextValue
	Distance     *TextValue
	Instructions string
}

type Leg struct {
	Duration      TextValue
	Distance      TextValue
	Steps         []Step
	DepartureTime *TimeValue
	ArrivalTime   *TimeValue
}

// RouteCandidate is one alternative returned by the routing oracle.
type RouteCandidate struct {
	Summary string
	Legs    []Leg
}

// FirstLeg returns the single origin->destination leg of the candidate.
func (r RouteCandidate) FirstLeg() (Leg, bool) {
	if len(r.Legs) == 0 {
		return Leg{}, false
	}
	return r.Legs[0], true
}

// HasTransitStep reports whether any step of the first leg uses public transit.
func (r RouteCandidate) HasTransitStep() bool {
	leg, ok := r.FirstLeg()
	if !ok {
		return false
	}
	for _, s := range leg.Steps {
		if s.TravelMode == ModeTransit {
			return true
		}
	}
	return false
}

// RouteResponse is the full answer of a single route query.
// Values returned from RouteCache are shared and must be treated as read-only.
type RouteResponse struct {
	Status string
	Routes []RouteCandidate
}
