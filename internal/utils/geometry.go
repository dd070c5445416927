package utils

import "math"

// RadiusOfEarthInMeters is the mean Earth radius used for all distances.
const RadiusOfEarthInMeters = 6371010.0

const degToRad = math.Pi / 180

// Distance returns the great-circle distance in meters between two points
// given in degrees. Points less than about 20 km apart use an
// equirectangular approximation.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * degToRad
	dLon := (lon2 - lon1) * degToRad

	if math.Abs(lat2-lat1) < 0.2 && math.Abs(lon2-lon1) < 0.2 {
		x := dLon * math.Cos((lat1+lat2)/2*degToRad)
		return RadiusOfEarthInMeters * math.Sqrt(x*x+dLat*dLat)
	}

	// Haversine, clamped so rounding near antipodes stays in asin's domain.
	s := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*degToRad)*math.Cos(lat2*degToRad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * RadiusOfEarthInMeters * math.Asin(math.Sqrt(math.Min(1, s)))
}

// WithinRadius reports whether (lat2, lon2) lies within radius meters of
// (lat1, lon1).
func WithinRadius(lat1, lon1, lat2, lon2, radius float64) bool {
	return Distance(lat1, lon1, lat2, lon2) <= radius
}
