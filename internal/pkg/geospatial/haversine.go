package geospatial

import "math"

// EarthRadiusKm is the mean Earth radius (IUGG).
const EarthRadiusKm = 6371.0088

// CentralAngle returns the great-circle angle in radians between two
// lat/lon pairs given in degrees. Multiply by a sphere radius to get a
// distance; compare directly against an angular radius for range queries.
func CentralAngle(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// Haversine calculates the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	return EarthRadiusKm * CentralAngle(lat1, lon1, lat2, lon2) * 1000
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
