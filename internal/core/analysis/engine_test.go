package analysis_test

import (
	"encoding/json"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/mgoiri/geolens/internal/core/analysis"
	"github.com/mgoiri/geolens/internal/core/domain"
)

func TestRun_FullResult(t *testing.T) {
	points := []domain.Point{
		pt(10.0000, 10.0000, map[string]any{"category": "cafe"}),
		pt(10.0001, 10.0001, map[string]any{"category": "cafe"}),
		pt(10.0002, 10.0002, map[string]any{"category": "bar"}),
		pt(10.0001, 10.0002, map[string]any{"category": "cafe"}),
		pt(50.0, 50.0, map[string]any{"category": "museum"}),
	}
	params := domain.DefaultAnalyzeParams()
	params.EpsKm = nil
	params.Eps = floatp(0.001)
	params.MinSamples = 3

	res, err := analysis.Run(points, params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Summary.TotalPoints != 5 {
		t.Errorf("summary total = %d, want 5", res.Summary.TotalPoints)
	}
	if res.Summary.CategoryCounts["cafe"] != 3 {
		t.Errorf("category counts = %v", res.Summary.CategoryCounts)
	}
	gridTotal := 0
	for _, c := range res.GridDensity.Cells {
		gridTotal += c.Count
	}
	if gridTotal != 5 {
		t.Errorf("grid counts sum to %d, want 5", gridTotal)
	}
	if res.Clustering.NumClusters != 1 || res.Clustering.NumNoise != 1 {
		t.Errorf("clustering = %+v", res.Clustering)
	}
}

func TestRun_RejectsNaN(t *testing.T) {
	points := []domain.Point{
		pt(1, 1, nil),
		pt(math.NaN(), 2, nil),
	}

	_, err := analysis.Run(points, domain.DefaultAnalyzeParams())
	var ce *analysis.CoordinateError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CoordinateError, got %v", err)
	}
	if ce.Index != 1 {
		t.Errorf("expected offending index 1, got %d", ce.Index)
	}
}

func TestRun_RejectsOutOfRange(t *testing.T) {
	cases := []domain.Point{
		pt(91, 0, nil),
		pt(-90.5, 0, nil),
		pt(0, 181, nil),
		pt(0, -180.001, nil),
		pt(0, math.Inf(1), nil),
	}
	for _, bad := range cases {
		_, err := analysis.Run([]domain.Point{bad}, domain.DefaultAnalyzeParams())
		var ce *analysis.CoordinateError
		if !errors.As(err, &ce) {
			t.Errorf("point (%v, %v): expected CoordinateError, got %v", bad.Lat, bad.Lon, err)
		}
	}
}

func TestRun_PropagatesParamErrors(t *testing.T) {
	points := []domain.Point{pt(1, 1, nil)}

	bad := domain.DefaultAnalyzeParams()
	bad.GridCellSize = 0
	_, err := analysis.Run(points, bad)
	var pe *analysis.ParamError
	if !errors.As(err, &pe) || pe.Param != "grid_cell_size" {
		t.Errorf("expected grid_cell_size error, got %v", err)
	}

	bad = domain.DefaultAnalyzeParams()
	bad.MinSamples = 0
	_, err = analysis.Run(points, bad)
	if !errors.As(err, &pe) || pe.Param != "dbscan_min_samples" {
		t.Errorf("expected dbscan_min_samples error, got %v", err)
	}
}

func TestRun_EmptyInput(t *testing.T) {
	res, err := analysis.Run(nil, domain.DefaultAnalyzeParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Summary.TotalPoints != 0 || len(res.GridDensity.Cells) != 0 || res.Clustering.NumClusters != 0 {
		t.Errorf("expected empty result, got %+v", res)
	}
}

// The wire shape is consumed by dashboards and stored verbatim in run
// history, so field names and the flattened cell bounds are part of the
// contract.
func TestRun_JSONShape(t *testing.T) {
	points := []domain.Point{
		pt(0, 0, map[string]any{"category": "a"}),
		pt(0.02, 0.02, map[string]any{"category": "b"}),
	}
	params := domain.DefaultAnalyzeParams()
	params.EpsKm = nil

	res, err := analysis.Run(points, params)
	if err != nil {
		t.Fatal(err)
	}

	raw, err := json.Marshal(res)
	if err != nil {
		t.Fatal(err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatal(err)
	}

	for _, key := range []string{"summary", "grid_density", "clustering"} {
		if _, ok := doc[key]; !ok {
			t.Errorf("missing top-level key %q in %s", key, raw)
		}
	}

	summary := doc["summary"].(map[string]any)
	for _, key := range []string{"total_points", "bbox", "mean_center", "category_counts"} {
		if _, ok := summary[key]; !ok {
			t.Errorf("missing summary key %q", key)
		}
	}

	grid := doc["grid_density"].(map[string]any)
	cells := grid["cells"].([]any)
	if len(cells) == 0 {
		t.Fatal("no grid cells serialized")
	}
	cell := cells[0].(map[string]any)
	for _, key := range []string{"min_lat", "max_lat", "min_lon", "max_lon", "count"} {
		if _, ok := cell[key]; !ok {
			t.Errorf("grid cell bounds should flatten, missing %q in %v", key, cell)
		}
	}

	clustering := doc["clustering"].(map[string]any)
	for _, key := range []string{"labels", "clusters", "num_clusters", "num_noise"} {
		if _, ok := clustering[key]; !ok {
			t.Errorf("missing clustering key %q", key)
		}
	}
}

func TestRun_Deterministic(t *testing.T) {
	points := []domain.Point{
		pt(43.26, -2.93, map[string]any{"category": "pintxos"}),
		pt(43.261, -2.931, map[string]any{"category": "pintxos"}),
		pt(43.27, -2.94, map[string]any{"category": "museum"}),
		pt(43.40, -2.70, nil),
	}
	params := domain.DefaultAnalyzeParams()

	first, err := analysis.Run(points, params)
	if err != nil {
		t.Fatal(err)
	}
	second, err := analysis.Run(points, params)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("analysis not deterministic")
	}
}
