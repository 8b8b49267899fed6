// Package insights implements ports.InsightGenerator by delegating to the
// insights sidecar service over HTTP. The sidecar owns the Gemini key; the
// main API never talks to the model directly.
package insights

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mgoiri/geolens/internal/core/domain"
)

// ProxyClient forwards generation requests to the insights service.
type ProxyClient struct {
	baseURL string
	http    *http.Client
}

// NewProxyClient creates a client for the insights service at baseURL.
func NewProxyClient(baseURL string) *ProxyClient {
	return &ProxyClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

// GenerateRequest is the sidecar's wire format.
type GenerateRequest struct {
	Result  *domain.AnalysisResult `json:"result"`
	Context domain.InsightContext  `json:"context"`
}

// Generate posts the analysis result to the sidecar and decodes the insight.
func (p *ProxyClient) Generate(ctx context.Context, result *domain.AnalysisResult, ictx domain.InsightContext) (*domain.Insight, error) {
	body, err := json.Marshal(GenerateRequest{Result: result, Context: ictx})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/generate", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call insights service: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("insights service: %s: %s", resp.Status, data)
	}

	var insight domain.Insight
	if err := json.Unmarshal(data, &insight); err != nil {
		return nil, fmt.Errorf("decode insight: %w", err)
	}
	return &insight, nil
}
