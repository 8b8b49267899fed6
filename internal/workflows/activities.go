package workflows

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mgoiri/geolens/internal/core/domain"
	"github.com/mgoiri/geolens/internal/core/ports"
	"github.com/mgoiri/geolens/internal/core/usecases"
)

// AnalysisActivities holds the activity implementations for the analysis workflow.
type AnalysisActivities struct {
	Datasets *usecases.DatasetService
	Analyses *usecases.AnalysisService
	Events   ports.EventPublisher
}

// VerifyDataset confirms the dataset exists and returns its point count.
func (a *AnalysisActivities) VerifyDataset(ctx context.Context, userID, datasetID string) (int, error) {
	ds, err := a.Datasets.Get(ctx, userID, datasetID)
	if err != nil {
		return 0, fmt.Errorf("get dataset %s: %w", datasetID, err)
	}
	if ds.NumPoints == 0 {
		return 0, fmt.Errorf("dataset %s has no points", datasetID)
	}
	return ds.NumPoints, nil
}

// RunAnalysis executes the engine over the dataset and returns the run ID.
// The AnalysisService already handles caching, persistence, and the
// per-run completion event.
func (a *AnalysisActivities) RunAnalysis(ctx context.Context, userID, datasetID string, paramsJSON []byte) (string, error) {
	params := domain.DefaultAnalyzeParams()
	if len(paramsJSON) > 0 {
		if err := json.Unmarshal(paramsJSON, &params); err != nil {
			return "", fmt.Errorf("decode params: %w", err)
		}
	}

	run, err := a.Analyses.Analyze(ctx, userID, datasetID, params)
	if err != nil {
		return "", fmt.Errorf("run analysis: %w", err)
	}
	return run.ID, nil
}

// BroadcastCompletion pushes a lightweight completion event to all
// connected dashboard clients.
func (a *AnalysisActivities) BroadcastCompletion(ctx context.Context, runID, datasetID string) error {
	payload, err := json.Marshal(map[string]string{
		"event":      "analysis_completed",
		"run_id":     runID,
		"dataset_id": datasetID,
	})
	if err != nil {
		return err
	}
	if err := a.Events.PublishBroadcast(ctx, payload); err != nil {
		return fmt.Errorf("broadcast completion %s: %w", runID, err)
	}
	return nil
}
