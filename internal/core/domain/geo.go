package domain

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Point is one validated input point: a coordinate plus whatever
// attributes the source row/feature carried.
type Point struct {
	Lat        float64        `json:"lat"`
	Lon        float64        `json:"lon"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// BoundingBox is the minimal axis-aligned lat/lon rectangle around a point
// set. MinLat <= MaxLat and MinLon <= MaxLon hold for any constructed box.
type BoundingBox struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLon float64 `json:"max_lon"`
}

// Contains reports whether the coordinate lies inside the box (inclusive).
func (b BoundingBox) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}
