package domain

// Summary holds descriptive statistics for a point set.
type Summary struct {
	TotalPoints    int            `json:"total_points"`
	BBox           *BoundingBox   `json:"bbox"`
	MeanCenter     *GeoPoint      `json:"mean_center"`
	CategoryCounts map[string]int `json:"category_counts"`
}

// GridCell is one occupied cell of the uniform density grid. The embedded
// BoundingBox flattens into the JSON object, matching the wire format
// dashboard clients already consume.
type GridCell struct {
	BoundingBox
	Count int `json:"count"`
}

// GridResult is the uniform grid density map over a point set. Cell size is
// in raw coordinate degrees, so real-world cell area varies with latitude;
// that is a documented limitation of the format, not something to correct.
type GridResult struct {
	GridCellSize float64      `json:"grid_cell_size"`
	BBox         *BoundingBox `json:"bbox"`
	Cells        []GridCell   `json:"cells"`
}

// Cluster is one discovered density cluster.
type Cluster struct {
	ClusterID int      `json:"cluster_id"`
	Size      int      `json:"size"`
	Centroid  GeoPoint `json:"centroid"`
}

// ClusteringResult is the DBSCAN output. Labels has one entry per input
// point, in input order: -1 for noise, otherwise the cluster id.
type ClusteringResult struct {
	Labels      []int     `json:"labels"`
	Clusters    []Cluster `json:"clusters"`
	NumClusters int       `json:"num_clusters"`
	NumNoise    int       `json:"num_noise"`
}

// AnalysisResult combines the three analytical views produced by one
// analysis invocation. It is a value: constructed once, then serialized.
type AnalysisResult struct {
	Summary     Summary          `json:"summary"`
	GridDensity GridResult       `json:"grid_density"`
	Clustering  ClusteringResult `json:"clustering"`
}

// AnalyzeParams are the caller-supplied knobs for an analysis run.
// EpsKm, when set, selects the haversine metric and takes priority over Eps.
type AnalyzeParams struct {
	GridCellSize  float64  `json:"grid_cell_size"`
	Eps           *float64 `json:"dbscan_eps,omitempty"`
	EpsKm         *float64 `json:"dbscan_eps_km,omitempty"`
	MinSamples    int      `json:"dbscan_min_samples"`
	CategoryField *string  `json:"category_field,omitempty"`
}

// DefaultAnalyzeParams returns the parameter defaults used by the API layer.
func DefaultAnalyzeParams() AnalyzeParams {
	epsKm := 1.0
	category := "category"
	return AnalyzeParams{
		GridCellSize:  0.01,
		EpsKm:         &epsKm,
		MinSamples:    5,
		CategoryField: &category,
	}
}
