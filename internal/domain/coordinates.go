package domain

import (
	"math"
	"strconv"
)

// Immutable geographic coordinates (latitude, longitude).
type LatLng struct {
	Lat float64
	Lng float64
}

// Key renders the exact coordinates for cache keys; no rounding is applied.
func (c LatLng) Key() string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lng, 'f', -1, 64)
}

// Valid reports whether the coordinates are finite and inside WGS84 bounds.
func (c LatLng) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}
