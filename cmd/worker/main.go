package main

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"os"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/mgoiri/geolens/internal/adapters/localfs"
	natsadapter "github.com/mgoiri/geolens/internal/adapters/nats"
	"github.com/mgoiri/geolens/internal/adapters/postgres"
	"github.com/mgoiri/geolens/internal/adapters/valkey"
	"github.com/mgoiri/geolens/internal/core/domain"
	"github.com/mgoiri/geolens/internal/core/usecases"
	"github.com/mgoiri/geolens/internal/pkg/config"
	"github.com/mgoiri/geolens/internal/pkg/logging"
	"github.com/mgoiri/geolens/internal/workflows"
)

// The worker picks up dataset uploads from JetStream and runs a default
// analysis for each as a durable Temporal workflow, so dashboards have a
// first result without an explicit API call.
func main() {
	cfg, err := config.Load("geolens-worker")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.SetupService("worker", logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		log.Fatalf("valkey: %v", err)
	}
	defer cache.Close()

	publisher, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer publisher.Close()

	fileStore, err := localfs.New(cfg.Storage.UploadDir)
	if err != nil {
		log.Fatalf("upload storage: %v", err)
	}

	datasetSvc := usecases.NewDatasetService(postgres.NewDatasetRepo(db), fileStore, publisher)
	analysisSvc := usecases.NewAnalysisService(datasetSvc, postgres.NewAnalysisRunRepo(db), cache, publisher)

	// Temporal
	tc, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer tc.Close()

	w := worker.New(tc, cfg.Temporal.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.AnalysisWorkflow)
	w.RegisterActivity(&workflows.AnalysisActivities{
		Datasets: datasetSvc,
		Analyses: analysisSvc,
		Events:   publisher,
	})

	// Kick off a default-parameter workflow for every fresh upload.
	subscriber, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats subscriber: %v", err)
	}
	defer subscriber.Close()

	defaultParams, err := json.Marshal(domain.DefaultAnalyzeParams())
	if err != nil {
		log.Fatalf("encode default params: %v", err)
	}

	err = subscriber.SubscribeDatasetUploads(ctx, func(ctx context.Context, ds *domain.Dataset) error {
		opts := client.StartWorkflowOptions{
			ID:        "analysis-" + ds.ID,
			TaskQueue: cfg.Temporal.TaskQueue,
		}
		_, err := tc.ExecuteWorkflow(ctx, opts, workflows.AnalysisWorkflow, workflows.AnalysisInput{
			DatasetID:  ds.ID,
			UserID:     ds.UserID,
			ParamsJSON: defaultParams,
		})
		if err != nil {
			slog.Error("start analysis workflow", "datasetID", ds.ID, "error", err)
			return err
		}
		slog.Info("analysis workflow started", "datasetID", ds.ID)
		return nil
	})
	if err != nil {
		log.Fatalf("subscribe dataset uploads: %v", err)
	}

	slog.Info("analysis worker started", "taskQueue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
