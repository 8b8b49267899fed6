// Package analysis derives the three analytical views a dashboard consumes
// from a set of geographic points: descriptive summary statistics, a uniform
// grid density map, and a DBSCAN clustering. It is pure computation: no I/O,
// no internal state across invocations, safe for concurrent use over
// independent inputs.
package analysis

import (
	"math"

	"github.com/mgoiri/geolens/internal/core/domain"
)

// Run executes the three analytical views over one point set and merges
// their outputs into a single immutable result. Parameters are validated
// up front; the components themselves run independently of each other.
func Run(points []domain.Point, params domain.AnalyzeParams) (*domain.AnalysisResult, error) {
	if err := validatePoints(points); err != nil {
		return nil, err
	}

	category := ""
	if params.CategoryField != nil {
		category = *params.CategoryField
	}
	summary := ComputeSummary(points, category)

	grid, err := GridDensity(points, params.GridCellSize)
	if err != nil {
		return nil, err
	}

	clustering, err := Cluster(points, ClusterParams{
		EpsKm:      params.EpsKm,
		EpsDegrees: params.Eps,
		MinSamples: params.MinSamples,
	})
	if err != nil {
		return nil, err
	}

	return &domain.AnalysisResult{
		Summary:     summary,
		GridDensity: grid,
		Clustering:  clustering,
	}, nil
}

// validatePoints re-checks what the ingestion layer promises: coordinates
// finite and inside WGS-84 range. A NaN slipping through would otherwise
// poison every aggregate silently.
func validatePoints(points []domain.Point) error {
	for i, p := range points {
		if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) ||
			math.IsInf(p.Lat, 0) || math.IsInf(p.Lon, 0) ||
			p.Lat < -90 || p.Lat > 90 || p.Lon < -180 || p.Lon > 180 {
			return &CoordinateError{Index: i, Lat: p.Lat, Lon: p.Lon}
		}
	}
	return nil
}
