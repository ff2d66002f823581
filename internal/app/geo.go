package service

import (
	"fmt"
	"math"
)

const earthRadiusKM = 6371.0088

// GeoFilter restricts hot stores to a radius around a point.
type GeoFilter struct {
	Latitude  float64
	Longitude float64
	RadiusKM  float64
}

// Validate checks coordinate ranges and a positive radius.
func (g GeoFilter) Validate() error {
	switch {
	case !validLatitude(g.Latitude):
		return fmt.Errorf("%w: latitude %v", ErrInvalidGeo, g.Latitude)
	case !validLongitude(g.Longitude):
		return fmt.Errorf("%w: longitude %v", ErrInvalidGeo, g.Longitude)
	case !(g.RadiusKM > 0) || math.IsInf(g.RadiusKM, 0):
		return fmt.Errorf("%w: radius %v", ErrInvalidGeo, g.RadiusKM)
	}
	return nil
}

func validLatitude(v float64) bool  { return v >= -90 && v <= 90 }
func validLongitude(v float64) bool { return v >= -180 && v <= 180 }

// DistanceKM is the great-circle distance between two points.
func DistanceKM(lat1, lon1, lat2, lon2 float64) float64 {
	const rad = math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKM * math.Asin(math.Min(1, math.Sqrt(a)))
}
