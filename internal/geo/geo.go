// Package geo contains pure coordinate math for geofence membership.
// It has no dependencies and no failure modes beyond float behavior.
package geo

import "math"

// Mean Earth radius in meters, as used by the haversine formula.
const earthRadiusMeters = 6371000.0

// Coordinate is an immutable WGS 84 position in decimal degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Zone is a named circular geofence.
type Zone struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Center       Coordinate `json:"center"`
	RadiusMeters float64    `json:"radius_meters"`
}

// DistanceMeters returns the great-circle distance between a and b
// using the haversine formula. NaN in implies NaN out.
func DistanceMeters(a, b Coordinate) float64 {
	latA := radians(a.Latitude)
	latB := radians(b.Latitude)
	dLat := radians(b.Latitude - a.Latitude)
	dLon := radians(b.Longitude - a.Longitude)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(latA)*math.Cos(latB)*sinLon*sinLon

	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}

// IsWithin reports whether p lies inside z (boundary inclusive).
// A nil point is never within any zone.
func IsWithin(p *Coordinate, z Zone) bool {
	if p == nil {
		return false
	}
	return DistanceMeters(*p, z.Center) <= z.RadiusMeters
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
