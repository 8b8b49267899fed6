package analysis

import (
	"fmt"

	"github.com/mgoiri/geolens/internal/core/domain"
)

// ComputeSummary returns descriptive statistics for a point set: bounding
// box, mean center, and a histogram of the categoryField attribute.
//
// The mean center is the planar arithmetic mean of latitudes and of
// longitudes, not a geodesic centroid. Dashboard clients depend on that
// behavior, so it is part of the contract.
func ComputeSummary(points []domain.Point, categoryField string) domain.Summary {
	s := domain.Summary{
		TotalPoints:    len(points),
		CategoryCounts: map[string]int{},
	}
	if len(points) == 0 {
		return s
	}

	bbox := boundingBox(points)
	s.BBox = &bbox

	var sumLat, sumLon float64
	for _, p := range points {
		sumLat += p.Lat
		sumLon += p.Lon
	}
	n := float64(len(points))
	s.MeanCenter = &domain.GeoPoint{Lat: sumLat / n, Lon: sumLon / n}

	if categoryField != "" {
		for _, p := range points {
			if v, ok := p.Attributes[categoryField]; ok {
				s.CategoryCounts[stringify(v)]++
			}
		}
	}

	return s
}

// boundingBox returns the componentwise min/max box over a non-empty set.
func boundingBox(points []domain.Point) domain.BoundingBox {
	b := domain.BoundingBox{
		MinLat: points[0].Lat, MaxLat: points[0].Lat,
		MinLon: points[0].Lon, MaxLon: points[0].Lon,
	}
	for _, p := range points[1:] {
		if p.Lat < b.MinLat {
			b.MinLat = p.Lat
		}
		if p.Lat > b.MaxLat {
			b.MaxLat = p.Lat
		}
		if p.Lon < b.MinLon {
			b.MinLon = p.Lon
		}
		if p.Lon > b.MaxLon {
			b.MaxLon = p.Lon
		}
	}
	return b
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	default:
		return fmt.Sprintf("%v", v)
	}
}
