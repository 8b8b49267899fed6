package usecases

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mgoiri/geolens/internal/core/analysis"
	"github.com/mgoiri/geolens/internal/core/domain"
	"github.com/mgoiri/geolens/internal/core/ports"
)

// DatasetLoader resolves a dataset and materializes its points.
// *DatasetService satisfies it.
type DatasetLoader interface {
	Get(ctx context.Context, userID, datasetID string) (*domain.Dataset, error)
	LoadPoints(ctx context.Context, ds *domain.Dataset) ([]domain.Point, error)
}

// AnalysisService runs the analysis engine over datasets and keeps run
// history.
type AnalysisService struct {
	datasets DatasetLoader
	runs     ports.AnalysisRunRepository
	cache    ports.CacheService
	events   ports.EventPublisher
}

// NewAnalysisService creates a new AnalysisService.
func NewAnalysisService(datasets DatasetLoader, runs ports.AnalysisRunRepository, cache ports.CacheService, events ports.EventPublisher) *AnalysisService {
	return &AnalysisService{datasets: datasets, runs: runs, cache: cache, events: events}
}

// Analyze loads the dataset's points, runs the engine and persists the run.
// Identical dataset + parameters hit the result cache instead of recomputing;
// the engine is deterministic, so cached results are exact.
func (s *AnalysisService) Analyze(ctx context.Context, userID, datasetID string, params domain.AnalyzeParams) (*domain.AnalysisRun, error) {
	ds, err := s.datasets.Get(ctx, userID, datasetID)
	if err != nil {
		return nil, err
	}

	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal params: %w", err)
	}

	cacheKey := analysisCacheKey(ds.ID, paramsJSON)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			run := s.newRun(ds, userID, paramsJSON, data)
			if err := s.runs.Create(ctx, run); err == nil {
				return run, nil
			}
		}
	}

	points, err := s.datasets.LoadPoints(ctx, ds)
	if err != nil {
		return nil, err
	}

	result, err := analysis.Run(points, params)
	if err != nil {
		return nil, err
	}

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}

	run := s.newRun(ds, userID, paramsJSON, resultJSON)
	if err := s.runs.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("create analysis run: %w", err)
	}

	if s.cache != nil {
		// 1 hour; datasets are immutable once uploaded.
		_ = s.cache.Set(ctx, cacheKey, resultJSON, 3600)
	}
	if s.events != nil {
		_ = s.events.PublishAnalysisCompleted(ctx, run)
	}
	return run, nil
}

// GetRun returns a run owned by the user.
func (s *AnalysisService) GetRun(ctx context.Context, userID, runID string) (*domain.AnalysisRun, error) {
	run, err := s.runs.GetByID(ctx, runID)
	if err != nil || run == nil {
		return nil, ErrNotFound
	}
	if run.UserID != userID {
		return nil, ErrForbidden
	}
	return run, nil
}

// ListRuns returns the runs recorded for one of the user's datasets.
func (s *AnalysisService) ListRuns(ctx context.Context, userID, datasetID string, limit, offset int) ([]domain.AnalysisRun, error) {
	if _, err := s.datasets.Get(ctx, userID, datasetID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.runs.ListByDataset(ctx, datasetID, limit, offset)
}

func (s *AnalysisService) newRun(ds *domain.Dataset, userID string, paramsJSON, resultJSON []byte) *domain.AnalysisRun {
	return &domain.AnalysisRun{
		ID:         uuid.NewString(),
		DatasetID:  ds.ID,
		UserID:     userID,
		ParamsJSON: paramsJSON,
		ResultJSON: resultJSON,
		CreatedAt:  time.Now().UTC(),
	}
}

func analysisCacheKey(datasetID string, paramsJSON []byte) string {
	sum := sha256.Sum256(paramsJSON)
	return "analysis:" + datasetID + ":" + hex.EncodeToString(sum[:8])
}
