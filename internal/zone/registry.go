// Package zone holds the static registry of configured geofence zones.
// The registry is loaded once at startup and never mutated afterwards;
// zone CRUD against the directory database is a separate concern.
package zone

import (
	"fmt"

	"geoattend-backend/internal/geo"
)

// DefaultRadiusMeters is applied when a configured zone omits its radius.
const DefaultRadiusMeters = 100

// Registry is an ordered, immutable list of geofence zones.
type Registry struct {
	zones []geo.Zone
}

// Definition is one zone entry as it appears in the config file.
type Definition struct {
	ID           string  `yaml:"id"`
	Name         string  `yaml:"name"`
	Latitude     float64 `yaml:"latitude"`
	Longitude    float64 `yaml:"longitude"`
	RadiusMeters float64 `yaml:"radius_meters"`
}

// NewRegistry validates the configured definitions and builds the registry.
// Definition order is preserved; it determines active-zone tie-breaking.
func NewRegistry(defs []Definition) (*Registry, error) {
	seen := make(map[string]struct{}, len(defs))
	zones := make([]geo.Zone, 0, len(defs))

	for i, d := range defs {
		if d.ID == "" {
			return nil, fmt.Errorf("zone[%d]: id is required", i)
		}
		if d.Name == "" {
			return nil, fmt.Errorf("zone %q: name is required", d.ID)
		}
		if _, dup := seen[d.ID]; dup {
			return nil, fmt.Errorf("zone %q: duplicate id", d.ID)
		}
		if d.Latitude < -90 || d.Latitude > 90 {
			return nil, fmt.Errorf("zone %q: latitude %v out of range", d.ID, d.Latitude)
		}
		if d.Longitude < -180 || d.Longitude > 180 {
			return nil, fmt.Errorf("zone %q: longitude %v out of range", d.ID, d.Longitude)
		}
		radius := d.RadiusMeters
		if radius == 0 {
			radius = DefaultRadiusMeters
		}
		if radius < 0 {
			return nil, fmt.Errorf("zone %q: radius must be positive", d.ID)
		}

		seen[d.ID] = struct{}{}
		zones = append(zones, geo.Zone{
			ID:           d.ID,
			Name:         d.Name,
			Center:       geo.Coordinate{Latitude: d.Latitude, Longitude: d.Longitude},
			RadiusMeters: radius,
		})
	}

	return &Registry{zones: zones}, nil
}

// All returns the configured zones in registry order.
// Callers must not mutate the returned slice.
func (r *Registry) All() []geo.Zone {
	return r.zones
}

// Containing returns, in registry order, every zone whose circle contains p.
func (r *Registry) Containing(p geo.Coordinate) []geo.Zone {
	var out []geo.Zone
	for _, z := range r.zones {
		if geo.IsWithin(&p, z) {
			out = append(out, z)
		}
	}
	return out
}

// ByID returns the zone with the given id, or false when unknown.
func (r *Registry) ByID(id string) (geo.Zone, bool) {
	for _, z := range r.zones {
		if z.ID == id {
			return z, true
		}
	}
	return geo.Zone{}, false
}
