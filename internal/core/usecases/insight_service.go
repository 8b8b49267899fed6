package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mgoiri/geolens/internal/core/domain"
	"github.com/mgoiri/geolens/internal/core/ports"
)

// InsightWindow is the rolling period the insight quota applies over.
const InsightWindow = 7 * 24 * time.Hour

// InsightQuota is how many insights a user may generate per window.
const InsightQuota = 1

const insightAction = "insight"

// RunGetter resolves analysis runs with ownership enforced.
// *AnalysisService satisfies it.
type RunGetter interface {
	GetRun(ctx context.Context, userID, runID string) (*domain.AnalysisRun, error)
}

// InsightService narrates analysis results through an external model while
// enforcing the per-user quota.
type InsightService struct {
	runs      RunGetter
	usage     ports.InsightUsageRepository
	generator ports.InsightGenerator
	now       func() time.Time
}

// NewInsightService creates a new InsightService.
func NewInsightService(runs RunGetter, usage ports.InsightUsageRepository, generator ports.InsightGenerator) *InsightService {
	return &InsightService{runs: runs, usage: usage, generator: generator, now: time.Now}
}

// GenerateForRun produces an insight for one of the user's analysis runs.
// The quota is checked before calling the model and consumed only on
// success, so a failed generation does not burn the user's allowance.
func (s *InsightService) GenerateForRun(ctx context.Context, userID, runID string, ictx domain.InsightContext) (*domain.Insight, error) {
	run, err := s.runs.GetRun(ctx, userID, runID)
	if err != nil {
		return nil, err
	}

	if err := s.checkQuota(ctx, userID); err != nil {
		return nil, err
	}

	var result domain.AnalysisResult
	if err := json.Unmarshal(run.ResultJSON, &result); err != nil {
		return nil, fmt.Errorf("decode run result: %w", err)
	}

	insight, err := s.generator.Generate(ctx, &result, ictx)
	if err != nil {
		return nil, fmt.Errorf("generate insight: %w", err)
	}

	if err := s.usage.Insert(ctx, &domain.InsightUsage{
		ID:        uuid.NewString(),
		UserID:    userID,
		Action:    insightAction,
		CreatedAt: s.now().UTC(),
	}); err != nil {
		return nil, fmt.Errorf("record usage: %w", err)
	}
	return insight, nil
}

// checkQuota returns a QuotaError whose RetryAfter counts down to when the
// oldest in-window usage leaves the rolling window.
func (s *InsightService) checkQuota(ctx context.Context, userID string) error {
	now := s.now().UTC()
	since := now.Add(-InsightWindow)

	count, err := s.usage.CountSince(ctx, userID, insightAction, since)
	if err != nil {
		return fmt.Errorf("count usage: %w", err)
	}
	if count < InsightQuota {
		return nil
	}

	oldest, err := s.usage.OldestSince(ctx, userID, insightAction, since)
	if err != nil || oldest == nil {
		return &QuotaError{RetryAfter: InsightWindow}
	}
	retryAfter := oldest.CreatedAt.Add(InsightWindow).Sub(now)
	if retryAfter < 0 {
		retryAfter = 0
	}
	return &QuotaError{RetryAfter: retryAfter}
}
