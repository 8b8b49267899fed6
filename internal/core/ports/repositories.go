package ports

import (
	"context"
	"time"

	"github.com/mgoiri/geolens/internal/core/domain"
)

// UserRepository persists user accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// DatasetRepository persists dataset metadata. Point payloads live in the
// file store, not in the database.
type DatasetRepository interface {
	Create(ctx context.Context, ds *domain.Dataset) error
	GetByID(ctx context.Context, id string) (*domain.Dataset, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Dataset, error)
	CountByUser(ctx context.Context, userID string) (int, error)
	Delete(ctx context.Context, id string) error
}

// AnalysisRunRepository persists analysis runs with their parameters and
// serialized results.
type AnalysisRunRepository interface {
	Create(ctx context.Context, run *domain.AnalysisRun) error
	GetByID(ctx context.Context, id string) (*domain.AnalysisRun, error)
	ListByDataset(ctx context.Context, datasetID string, limit, offset int) ([]domain.AnalysisRun, error)
}

// PlaceRepository persists saved places.
type PlaceRepository interface {
	Create(ctx context.Context, place *domain.Place) error
	GetByID(ctx context.Context, id string) (*domain.Place, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Place, error)
	FindNearby(ctx context.Context, userID string, lat, lon, radiusMeters float64, limit int) ([]domain.Place, error)
	Update(ctx context.Context, place *domain.Place) error
	Delete(ctx context.Context, id string) error
}

// InsightUsageRepository records AI insight consumption for rate limiting.
type InsightUsageRepository interface {
	Insert(ctx context.Context, usage *domain.InsightUsage) error
	CountSince(ctx context.Context, userID, action string, since time.Time) (int, error)
	OldestSince(ctx context.Context, userID, action string, since time.Time) (*domain.InsightUsage, error)
}
