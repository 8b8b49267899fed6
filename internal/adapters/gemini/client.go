// Package gemini implements ports.InsightGenerator against the Google
// Gemini generateContent REST API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/mgoiri/geolens/internal/core/domain"
)

const defaultEndpoint = "https://generativelanguage.googleapis.com/v1beta/models"

// Client calls Gemini to narrate analysis results.
type Client struct {
	apiKey   string
	model    string
	endpoint string
	http     *http.Client
}

// New creates a Gemini client. model defaults to gemini-1.5-flash.
func New(apiKey, model string) *Client {
	if model == "" {
		model = "gemini-1.5-flash"
	}
	return &Client{
		apiKey:   apiKey,
		model:    model,
		endpoint: defaultEndpoint,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

// Generate narrates one analysis result. The prompt carries aggregates only,
// never raw point data.
func (c *Client) Generate(ctx context.Context, result *domain.AnalysisResult, ictx domain.InsightContext) (*domain.Insight, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("gemini api key not configured")
	}

	prompt := buildPrompt(result, ictx)

	raw, err := c.generateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return parseInsight(raw), nil
}

type generateRequest struct {
	Contents []content `json:"contents"`
	Config   genConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type genConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) generateContent(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		Config:   genConfig{Temperature: 0.7, MaxOutputTokens: 1024},
	})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", c.endpoint, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("call gemini: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}

	var out generateResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("decode gemini response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := resp.Status
		if out.Error != nil {
			msg = out.Error.Message
		}
		return "", fmt.Errorf("gemini: %s", msg)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}
	return out.Candidates[0].Content.Parts[0].Text, nil
}

// buildPrompt summarizes the analysis for the model: top categories with
// percentages, extent, cluster structure and any caller context.
func buildPrompt(result *domain.AnalysisResult, ictx domain.InsightContext) string {
	var b strings.Builder
	b.WriteString("You are a geospatial data analyst. Analyze the following geospatial analysis results and provide insights.\n\n")
	b.WriteString("CRITICAL RULES:\n")
	b.WriteString("1. DO NOT invent or make up any data. Only reference fields present in the analysis data.\n")
	b.WriteString("2. Use hedging language: 'suggests', 'may indicate', 'appears to', 'likely', 'possibly'.\n")
	b.WriteString("3. Include numeric proportions when available (percentages, counts).\n")
	b.WriteString("4. If data is missing, explicitly state that limitation.\n\n")

	s := result.Summary
	fmt.Fprintf(&b, "ANALYSIS DATA:\n- Total points: %d\n", s.TotalPoints)

	if len(s.CategoryCounts) > 0 {
		b.WriteString("- Category distribution:\n")
		for _, cat := range topCategories(s.CategoryCounts, 10) {
			count := s.CategoryCounts[cat]
			pct := 0.0
			if s.TotalPoints > 0 {
				pct = float64(count) / float64(s.TotalPoints) * 100
			}
			fmt.Fprintf(&b, "  * %s: %d (%.1f%%)\n", cat, count, pct)
		}
	} else {
		b.WriteString("- Category counts: Not available\n")
	}

	if s.BBox != nil {
		fmt.Fprintf(&b, "- Bounding box: %s\n", mustJSON(s.BBox))
	}
	if s.MeanCenter != nil {
		fmt.Fprintf(&b, "- Mean center: %s\n", mustJSON(s.MeanCenter))
	}

	cl := result.Clustering
	fmt.Fprintf(&b, "- Clustering: %d clusters, %d noise points\n", cl.NumClusters, cl.NumNoise)
	if largest := largestCluster(cl.Clusters); largest != nil {
		fmt.Fprintf(&b, "- Largest cluster: size %d at %s\n", largest.Size, mustJSON(largest.Centroid))
	}

	if ictx.CityName != "" {
		fmt.Fprintf(&b, "- Context: City: %s\n", ictx.CityName)
	}
	if ictx.ViewportBBox != nil {
		fmt.Fprintf(&b, "- Viewport: %s\n", mustJSON(ictx.ViewportBBox))
	}

	b.WriteString("\nOUTPUT FORMAT: Return a JSON object with exactly these fields:\n")
	b.WriteString("{\n")
	b.WriteString(`  "text": "A concise scientific-style narrative paragraph (3-5 sentences) summarizing the spatial patterns, distribution characteristics, and notable findings. Use hedging language and reference specific numbers from the data.",` + "\n")
	b.WriteString(`  "highlights": ["Bullet point 1 with key finding and %", "Bullet point 2", "Bullet point 3"],` + "\n")
	b.WriteString(`  "method": "Brief note on methodology/assumptions (e.g., DBSCAN clustering, category field used, spatial extent)"` + "\n")
	b.WriteString("}\n\nGenerate the insight now:")
	return b.String()
}

// parseInsight decodes the model's JSON, stripping markdown fences first.
// Unparseable output degrades to a plain-text insight rather than an error.
func parseInsight(raw string) *domain.Insight {
	text := stripFences(strings.TrimSpace(raw))

	var decoded struct {
		Text       string   `json:"text"`
		Highlights []string `json:"highlights"`
		Method     string   `json:"method"`
	}
	if err := json.Unmarshal([]byte(text), &decoded); err != nil || decoded.Text == "" {
		return &domain.Insight{
			Text:       text,
			Highlights: []string{truncate(text, 100)},
			Meta:       map[string]any{"method": "Gemini analysis based on provided data"},
		}
	}

	if len(decoded.Highlights) == 0 {
		decoded.Highlights = []string{truncate(decoded.Text, 100)}
	}
	if decoded.Method == "" {
		decoded.Method = "Gemini analysis based on provided data"
	}
	return &domain.Insight{
		Text:       decoded.Text,
		Highlights: decoded.Highlights,
		Meta:       map[string]any{"method": decoded.Method},
	}
}

func stripFences(text string) string {
	for _, marker := range []string{"```json", "```"} {
		if idx := strings.Index(text, marker); idx >= 0 {
			start := idx + len(marker)
			if end := strings.Index(text[start:], "```"); end > 0 {
				return strings.TrimSpace(text[start : start+end])
			}
		}
	}
	return text
}

func topCategories(counts map[string]int, n int) []string {
	cats := make([]string, 0, len(counts))
	for cat := range counts {
		cats = append(cats, cat)
	}
	sort.Slice(cats, func(i, j int) bool {
		if counts[cats[i]] != counts[cats[j]] {
			return counts[cats[i]] > counts[cats[j]]
		}
		return cats[i] < cats[j]
	})
	if len(cats) > n {
		cats = cats[:n]
	}
	return cats
}

func largestCluster(clusters []domain.Cluster) *domain.Cluster {
	var largest *domain.Cluster
	for i := range clusters {
		if largest == nil || clusters[i].Size > largest.Size {
			largest = &clusters[i]
		}
	}
	return largest
}

func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
