package analysis

import (
	"math"

	"github.com/mgoiri/geolens/internal/core/domain"
	"github.com/mgoiri/geolens/internal/pkg/geospatial"
)

// ClusterParams selects the DBSCAN neighborhood radius and density floor.
// EpsKm, when set, takes priority over EpsDegrees and switches the distance
// metric to haversine on an angular radius of EpsKm / EarthRadiusKm.
// With EpsKm unset, distances are planar Euclidean in degree space and
// EpsDegrees defaults to 0.01.
type ClusterParams struct {
	EpsKm      *float64
	EpsDegrees *float64
	MinSamples int
}

// Noise is the label of points that belong to no cluster.
const Noise = -1

// unlabeled marks points not yet reached by the scan.
const unlabeled = -2

// Cluster runs DBSCAN over the points. Points are processed in input order
// and cluster ids are assigned sequentially from 0 in discovery order, so
// the labeling is reproducible run to run.
//
// Cluster centroids are planar means in degree space even under the
// haversine metric; the clustering metric and the centroid computation are
// deliberately decoupled, matching what result consumers expect.
func Cluster(points []domain.Point, params ClusterParams) (domain.ClusteringResult, error) {
	if params.MinSamples < 1 {
		return domain.ClusteringResult{}, &ParamError{Param: "dbscan_min_samples", Reason: "must be at least 1"}
	}

	eps, dist, err := selectMetric(params)
	if err != nil {
		return domain.ClusteringResult{}, err
	}

	res := domain.ClusteringResult{
		Labels:   []int{},
		Clusters: []domain.Cluster{},
	}
	n := len(points)
	if n == 0 {
		return res, nil
	}

	labels := make([]int, n)
	for i := range labels {
		labels[i] = unlabeled
	}

	nextID := 0
	for i := 0; i < n; i++ {
		if labels[i] != unlabeled {
			continue
		}

		neighbors := rangeQuery(points, i, eps, dist)
		if len(neighbors) < params.MinSamples {
			// Provisionally noise; a later core point may still absorb
			// it as a border point.
			labels[i] = Noise
			continue
		}

		id := nextID
		nextID++
		labels[i] = id

		// Breadth-first expansion over the seed set. Each point joins at
		// most one cluster; already-labeled points are never reassigned.
		queue := append([]int(nil), neighbors...)
		for len(queue) > 0 {
			q := queue[0]
			queue = queue[1:]

			if labels[q] == Noise {
				labels[q] = id // border point
				continue
			}
			if labels[q] != unlabeled {
				continue
			}
			labels[q] = id

			qn := rangeQuery(points, q, eps, dist)
			if len(qn) >= params.MinSamples {
				queue = append(queue, qn...)
			}
		}
	}

	res.Labels = labels

	sizes := make([]int, nextID)
	sumLat := make([]float64, nextID)
	sumLon := make([]float64, nextID)
	numNoise := 0
	for i, lab := range labels {
		if lab == Noise {
			numNoise++
			continue
		}
		sizes[lab]++
		sumLat[lab] += points[i].Lat
		sumLon[lab] += points[i].Lon
	}

	for id := 0; id < nextID; id++ {
		res.Clusters = append(res.Clusters, domain.Cluster{
			ClusterID: id,
			Size:      sizes[id],
			Centroid: domain.GeoPoint{
				Lat: sumLat[id] / float64(sizes[id]),
				Lon: sumLon[id] / float64(sizes[id]),
			},
		})
	}
	res.NumClusters = nextID
	res.NumNoise = numNoise

	return res, nil
}

type distanceFunc func(a, b domain.Point) float64

// selectMetric resolves the effective radius and distance function.
func selectMetric(params ClusterParams) (float64, distanceFunc, error) {
	if params.EpsKm != nil {
		km := *params.EpsKm
		if km <= 0 || math.IsNaN(km) || math.IsInf(km, 0) {
			return 0, nil, &ParamError{Param: "dbscan_eps_km", Reason: "must be a positive number"}
		}
		eps := km / geospatial.EarthRadiusKm
		return eps, func(a, b domain.Point) float64 {
			return geospatial.CentralAngle(a.Lat, a.Lon, b.Lat, b.Lon)
		}, nil
	}

	eps := 0.01
	if params.EpsDegrees != nil {
		eps = *params.EpsDegrees
		if eps <= 0 || math.IsNaN(eps) || math.IsInf(eps, 0) {
			return 0, nil, &ParamError{Param: "dbscan_eps", Reason: "must be a positive number"}
		}
	}
	return eps, func(a, b domain.Point) float64 {
		return math.Hypot(a.Lat-b.Lat, a.Lon-b.Lon)
	}, nil
}

// rangeQuery returns the indices of all points within eps of points[i],
// including i itself. Linear scan: O(n) per query, O(n²) per clustering
// run, which is fine at dashboard dataset sizes.
func rangeQuery(points []domain.Point, i int, eps float64, dist distanceFunc) []int {
	var result []int
	p := points[i]
	for j := range points {
		if dist(p, points[j]) <= eps {
			result = append(result, j)
		}
	}
	return result
}
