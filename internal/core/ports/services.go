package ports

import (
	"context"
	"io"

	"github.com/mgoiri/geolens/internal/core/domain"
)

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishDatasetUploaded(ctx context.Context, ds *domain.Dataset) error
	PublishAnalysisCompleted(ctx context.Context, run *domain.AnalysisRun) error
	PublishBroadcast(ctx context.Context, data []byte) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribeDatasetUploads(ctx context.Context, handler func(ctx context.Context, ds *domain.Dataset) error) error
	SubscribeAnalysisCompletions(ctx context.Context, handler func(ctx context.Context, run *domain.AnalysisRun) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// FileStore persists raw dataset uploads and streams them back for parsing.
type FileStore interface {
	Save(ctx context.Context, key string, r io.Reader) (string, error)
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	Remove(ctx context.Context, path string) error
}

// InsightGenerator produces a natural-language narration of an analysis
// result. Implementations call an external model; the usecase layer owns
// quota enforcement.
type InsightGenerator interface {
	Generate(ctx context.Context, result *domain.AnalysisResult, ictx domain.InsightContext) (*domain.Insight, error)
}
