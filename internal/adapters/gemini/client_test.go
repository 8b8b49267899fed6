package gemini

import (
	"strings"
	"testing"

	"github.com/mgoiri/geolens/internal/core/domain"
)

func TestBuildPrompt_IncludesAggregates(t *testing.T) {
	result := &domain.AnalysisResult{
		Summary: domain.Summary{
			TotalPoints:    100,
			BBox:           &domain.BoundingBox{MinLat: 43.2, MaxLat: 43.3, MinLon: -3.0, MaxLon: -2.9},
			MeanCenter:     &domain.GeoPoint{Lat: 43.25, Lon: -2.95},
			CategoryCounts: map[string]int{"cafe": 60, "bar": 40},
		},
		Clustering: domain.ClusteringResult{
			NumClusters: 2,
			NumNoise:    5,
			Clusters: []domain.Cluster{
				{ClusterID: 0, Size: 55, Centroid: domain.GeoPoint{Lat: 43.26, Lon: -2.93}},
				{ClusterID: 1, Size: 40, Centroid: domain.GeoPoint{Lat: 43.28, Lon: -2.96}},
			},
		},
	}

	prompt := buildPrompt(result, domain.InsightContext{CityName: "Bilbao"})

	for _, want := range []string{
		"Total points: 100",
		"cafe: 60 (60.0%)",
		"2 clusters, 5 noise points",
		"Largest cluster: size 55",
		"City: Bilbao",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildPrompt_TopCategoriesCapped(t *testing.T) {
	counts := map[string]int{}
	for _, c := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"} {
		counts[c] = len(counts) + 1
	}
	result := &domain.AnalysisResult{
		Summary: domain.Summary{TotalPoints: 78, CategoryCounts: counts},
	}

	prompt := buildPrompt(result, domain.InsightContext{})
	if strings.Count(prompt, "  * ") != 10 {
		t.Errorf("expected 10 category lines, prompt:\n%s", prompt)
	}
	// Smallest categories drop off.
	if strings.Contains(prompt, "* a:") || strings.Contains(prompt, "* b:") {
		t.Error("lowest-count categories should not appear")
	}
}

func TestParseInsight_JSON(t *testing.T) {
	raw := `{"text": "Activity clusters downtown.", "highlights": ["60% cafes"], "method": "DBSCAN"}`

	insight := parseInsight(raw)
	if insight.Text != "Activity clusters downtown." {
		t.Errorf("text = %q", insight.Text)
	}
	if len(insight.Highlights) != 1 || insight.Highlights[0] != "60% cafes" {
		t.Errorf("highlights = %v", insight.Highlights)
	}
	if insight.Meta["method"] != "DBSCAN" {
		t.Errorf("meta = %v", insight.Meta)
	}
}

func TestParseInsight_MarkdownFences(t *testing.T) {
	raw := "```json\n{\"text\": \"Fenced.\", \"highlights\": [\"x\"], \"method\": \"m\"}\n```"

	insight := parseInsight(raw)
	if insight.Text != "Fenced." {
		t.Errorf("text = %q", insight.Text)
	}
}

func TestParseInsight_PlainTextFallback(t *testing.T) {
	raw := "The model ignored the format and wrote prose instead."

	insight := parseInsight(raw)
	if insight.Text != raw {
		t.Errorf("text = %q", insight.Text)
	}
	if len(insight.Highlights) != 1 {
		t.Errorf("highlights = %v", insight.Highlights)
	}
	if insight.Meta["method"] == "" {
		t.Error("method fallback missing")
	}
}
