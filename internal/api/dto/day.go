package dto

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/tky-kevin/LazyTravelogue-sub000/internal/domain"
)

const DefaultStartTime = "09:00"

var ErrInvalidLocation = errors.New("invalid location")

type LatLng struct {
	Lat float64 `json:"lat" validate:"min=-90,max=90"`
	Lng float64 `json:"lng" validate:"min=-180,max=180"`
}

func (l LatLng) ToDomain() domain.LatLng {
	return domain.LatLng{Lat: l.Lat, Lng: l.Lng}
}

func NewLatLng(l domain.LatLng) LatLng {
	return LatLng{Lat: l.Lat, Lng: l.Lng}
}

// StopRequest is a stop as sent by the client. StayDuration accepts a
// number or a numeric string; anything else means the default stay. A stop
// echoed back from a response is accepted as is; its schedule fields are
// recomputed.
type StopRequest struct {
	ID             string        `json:"id" validate:"required"`
	Title          string        `json:"title"`
	Category       string        `json:"category"`
	Location       LatLng        `json:"location"`
	StayDuration   any           `json:"stay_duration"`
	TransportMode  string        `json:"transport_mode" validate:"omitempty,oneof=DRIVING WALKING TRANSIT"`
	Duration       string        `json:"duration"`
	DurationValue  *int          `json:"duration_value" validate:"omitempty,min=0"`
	Distance       string        `json:"distance"`
	DistanceValue  *int          `json:"distance_value" validate:"omitempty,min=0"`
	TransitDetails []Segment     `json:"transit_details"`
	Alternatives   []Alternative `json:"alternatives"`

	StartAt             *time.Time `json:"start_at"`
	EndAt               *time.Time `json:"end_at"`
	TravelEndAt         *time.Time `json:"travel_end_at"`
	CalculatedStartTime string     `json:"calculated_start_time"`
	CalculatedEndTime   string     `json:"calculated_end_time"`
}

type DayRequest struct {
	ID        string        `json:"id"`
	Date      string        `json:"date" validate:"required,datetime=2006-01-02"`
	Timezone  string        `json:"timezone" validate:"omitempty,timezone"`
	StartTime string        `json:"start_time" validate:"omitempty,datetime=15:04"`
	Stops     []StopRequest `json:"stops" validate:"dive"`
}

// ToDomain converts the request; the date is interpreted in Timezone,
// or UTC when none is given.
func (r DayRequest) ToDomain() (domain.Day, error) {
	loc := time.UTC
	if r.Timezone != "" {
		l, err := time.LoadLocation(r.Timezone)
		if err != nil {
			return domain.Day{}, fmt.Errorf("load timezone %q: %w", r.Timezone, err)
		}
		loc = l
	}

	date, err := time.ParseInLocation("2006-01-02", r.Date, loc)
	if err != nil {
		return domain.Day{}, fmt.Errorf("parse date %q: %w", r.Date, err)
	}

	start := strings.TrimSpace(r.StartTime)
	if start == "" {
		start = DefaultStartTime
	}

	stops := make([]domain.Stop, 0, len(r.Stops))
	for _, s := range r.Stops {
		loc := s.Location.ToDomain()
		if !loc.Valid() {
			return domain.Day{}, fmt.Errorf("stop %q: %w", s.ID, ErrInvalidLocation)
		}

		mode, _ := domain.ParseTransportMode(s.TransportMode)
		stops = append(stops, domain.Stop{
			ID:            s.ID,
			Title:         s.Title,
			Category:      s.Category,
			Location:      loc,
			StayDuration:  stayMinutes(s.StayDuration),
			TransportMode: mode,
			DurationText:  s.Duration,
			DurationValue: s.DurationValue,
			Distance:      s.Distance,
			DistanceValue: s.DistanceValue,

			TransitDetails: segmentsToDomain(s.TransitDetails),
			Alternatives:   alternativesToDomain(s.Alternatives),
		})
	}

	return domain.Day{ID: r.ID, Date: date, StartTime: start, Stops: stops}, nil
}

func stayMinutes(v any) *float64 {
	switch x := v.(type) {
	case float64:
		return domain.FloatPtr(x)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return domain.FloatPtr(f)
	}
	return nil
}

type TransitSegment struct {
	Line          string `json:"line"`
	Vehicle       string `json:"vehicle,omitempty"`
	DepartureStop string `json:"departure_stop"`
	ArrivalStop   string `json:"arrival_stop"`
	DepartureTime string `json:"departure_time,omitempty"`
	ArrivalTime   string `json:"arrival_time,omitempty"`
	NumStops      int    `json:"num_stops"`
	Color         string `json:"color,omitempty"`
	TextColor     string `json:"text_color,omitempty"`
}

type WalkingSegment struct {
	Duration    string `json:"duration"`
	Distance    string `json:"distance"`
	Instruction string `json:"instruction,omitempty"`
}

type Segment struct {
	Mode    string          `json:"mode"`
	Transit *TransitSegment `json:"transit,omitempty"`
	Walking *WalkingSegment `json:"walking,omitempty"`
}

type Alternative struct {
	Index         int       `json:"index"`
	DepartureAt   time.Time `json:"departure_at"`
	ArrivalAt     time.Time `json:"arrival_at"`
	DepartureText string    `json:"departure_text"`
	ArrivalText   string    `json:"arrival_text"`
	Duration      string    `json:"duration"`
	DurationValue int       `json:"duration_value"`
	Distance      string    `json:"distance"`
	Lines         []string  `json:"lines"`
	HasTransit    bool      `json:"has_transit"`
}

type StopResponse struct {
	ID                  string        `json:"id"`
	Title               string        `json:"title,omitempty"`
	Category            string        `json:"category,omitempty"`
	Location            LatLng        `json:"location"`
	StayDuration        float64       `json:"stay_duration"`
	TransportMode       string        `json:"transport_mode"`
	Duration            string        `json:"duration,omitempty"`
	DurationValue       *int          `json:"duration_value,omitempty"`
	Distance            string        `json:"distance,omitempty"`
	DistanceValue       *int          `json:"distance_value,omitempty"`
	TransitDetails      []Segment     `json:"transit_details,omitempty"`
	Alternatives        []Alternative `json:"alternatives,omitempty"`
	StartAt             time.Time     `json:"start_at"`
	EndAt               time.Time     `json:"end_at"`
	TravelEndAt         time.Time     `json:"travel_end_at"`
	CalculatedStartTime string        `json:"calculated_start_time"`
	CalculatedEndTime   string        `json:"calculated_end_time"`
}

type DayResponse struct {
	ID        string         `json:"id,omitempty"`
	Date      string         `json:"date"`
	StartTime string         `json:"start_time"`
	Stops     []StopResponse `json:"stops"`
}

func NewDayResponse(day domain.Day) DayResponse {
	stops := make([]StopResponse, 0, len(day.Stops))
	for _, s := range day.Stops {
		stops = append(stops, StopResponse{
			ID:                  s.ID,
			Title:               s.Title,
			Category:            s.Category,
			Location:            NewLatLng(s.Location),
			StayDuration:        s.StayMinutes(),
			TransportMode:       string(s.Mode()),
			Duration:            s.DurationText,
			DurationValue:       s.DurationValue,
			Distance:            s.Distance,
			DistanceValue:       s.DistanceValue,
			TransitDetails:      NewSegments(s.TransitDetails),
			Alternatives:        NewAlternatives(s.Alternatives),
			StartAt:             s.StartAt,
			EndAt:               s.EndAt,
			TravelEndAt:         s.TravelEndAt,
			CalculatedStartTime: s.CalculatedStartTime,
			CalculatedEndTime:   s.CalculatedEndTime,
		})
	}

	return DayResponse{
		ID:        day.ID,
		Date:      day.Date.Format("2006-01-02"),
		StartTime: day.StartTime,
		Stops:     stops,
	}
}

func NewSegments(segs []domain.Segment) []Segment {
	if len(segs) == 0 {
		return nil
	}
	out := make([]Segment, 0, len(segs))
	for _, s := range segs {
		seg := Segment{Mode: string(s.Mode)}
		if t := s.Transit; t != nil {
			seg.Transit = &TransitSegment{
				Line:          t.Line,
				Vehicle:       t.Vehicle,
				DepartureStop: t.DepartureStop,
				ArrivalStop:   t.ArrivalStop,
				DepartureTime: t.DepartureTime,
				ArrivalTime:   t.ArrivalTime,
				NumStops:      t.NumStops,
				Color:         t.Color,
				TextColor:     t.TextColor,
			}
		}
		if w := s.Walking; w != nil {
			seg.Walking = &WalkingSegment{Duration: w.Duration, Distance: w.Distance, Instruction: w.Instruction}
		}
		out = append(out, seg)
	}
	return out
}

func NewAlternatives(alts []domain.AlternativeRoute) []Alternative {
	if len(alts) == 0 {
		return nil
	}
	out := make([]Alternative, 0, len(alts))
	for _, a := range alts {
		out = append(out, Alternative{
			Index:         a.Index,
			DepartureAt:   a.DepartureAt,
			ArrivalAt:     a.ArrivalAt,
			DepartureText: a.DepartureText,
			ArrivalText:   a.ArrivalText,
			Duration:      a.DurationText,
			DurationValue: a.DurationValue,
			Distance:      a.DistanceText,
			Lines:         a.Lines,
			HasTransit:    a.HasTransit,
		})
	}
	return out
}

func segmentsToDomain(segs []Segment) []domain.Segment {
	if len(segs) == 0 {
		return nil
	}
	out := make([]domain.Segment, 0, len(segs))
	for _, s := range segs {
		mode, _ := domain.ParseTransportMode(s.Mode)
		seg := domain.Segment{Mode: mode}
		if t := s.Transit; t != nil {
			seg.Transit = &domain.TransitSegment{
				Line:          t.Line,
				Vehicle:       t.Vehicle,
				DepartureStop: t.DepartureStop,
				ArrivalStop:   t.ArrivalStop,
				DepartureTime: t.DepartureTime,
				ArrivalTime:   t.ArrivalTime,
				NumStops:      t.NumStops,
				Color:         t.Color,
				TextColor:     t.TextColor,
			}
		}
		if w := s.Walking; w != nil {
			seg.Walking = &domain.WalkingSegment{Duration: w.Duration, Distance: w.Distance, Instruction: w.Instruction}
		}
		out = append(out, seg)
	}
	return out
}

func alternativesToDomain(alts []Alternative) []domain.AlternativeRoute {
	if len(alts) == 0 {
		return nil
	}
	out := make([]domain.AlternativeRoute, 0, len(alts))
	for _, a := range alts {
		out = append(out, domain.AlternativeRoute{
			Index:         a.Index,
			DepartureAt:   a.DepartureAt,
			ArrivalAt:     a.ArrivalAt,
			DepartureText: a.DepartureText,
			ArrivalText:   a.ArrivalText,
			DurationText:  a.Duration,
			DurationValue: a.DurationValue,
			DistanceText:  a.Distance,
			Lines:         a.Lines,
			HasTransit:    a.HasTransit,
		})
	}
	return out
}
