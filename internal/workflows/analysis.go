package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// AnalysisInput is the input for the analysis workflow.
type AnalysisInput struct {
	DatasetID  string
	UserID     string
	ParamsJSON []byte
}

// AnalysisWorkflow orchestrates a durable analysis run: verify the dataset
// still exists, run the engine, then broadcast the completion. Points are
// never carried through Temporal payloads; activities load them from the
// file store.
func AnalysisWorkflow(ctx workflow.Context, input AnalysisInput) (string, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting analysis workflow", "datasetID", input.DatasetID)

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	// Step 1: Verify the dataset exists and has points
	var numPoints int
	err := workflow.ExecuteActivity(ctx, "VerifyDataset", input.UserID, input.DatasetID).Get(ctx, &numPoints)
	if err != nil {
		return "", err
	}

	// Step 2: Run the engine and persist the result
	var runID string
	err = workflow.ExecuteActivity(ctx, "RunAnalysis", input.UserID, input.DatasetID, input.ParamsJSON).Get(ctx, &runID)
	if err != nil {
		return "", err
	}

	// Step 3: Broadcast the completion. The run is already persisted, so a
	// failed broadcast is logged but never fails the workflow.
	err = workflow.ExecuteActivity(ctx, "BroadcastCompletion", runID, input.DatasetID).Get(ctx, nil)
	if err != nil {
		logger.Warn("completion broadcast failed", "runID", runID, "error", err)
	}

	logger.Info("Analysis workflow finished", "runID", runID, "points", numPoints)
	return runID, nil
}
