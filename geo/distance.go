package geo

import "math"

const (
	earthRadiusKm = 6371.0
	// DefaultRadiusKm is the radius used when a site does not configure its own.
	DefaultRadiusKm = 0.5
)

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Distance returns the great-circle distance between two points in kilometres.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// WithinRadius reports whether f lies within radiusKm of the target. A non-positive
// radius means DefaultRadiusKm.
func WithinRadius(f Fix, targetLat, targetLon, radiusKm float64) bool {
	if radiusKm <= 0 {
		radiusKm = DefaultRadiusKm
	}
	return Distance(f.Latitude, f.Longitude, targetLat, targetLon) <= radiusKm
}

// Site is a work location employees must be near to punch.
type Site struct {
	Latitude  float64 `yaml:"latitude" json:"latitude"`
	Longitude float64 `yaml:"longitude" json:"longitude"`
	RadiusKm  float64 `yaml:"radiusKm" json:"radiusKm"`
}

func (s Site) Contains(f Fix) bool {
	return WithinRadius(f, s.Latitude, s.Longitude, s.RadiusKm)
}

// DistanceTo returns how far f is from the site centre in kilometres.
func (s Site) DistanceTo(f Fix) float64 {
	return Distance(f.Latitude, f.Longitude, s.Latitude, s.Longitude)
}
