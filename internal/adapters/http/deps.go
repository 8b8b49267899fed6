package http

import (
	"github.com/nats-io/nats.go"

	"github.com/mgoiri/geolens/internal/adapters/postgres"
	"github.com/mgoiri/geolens/internal/adapters/valkey"
	"github.com/mgoiri/geolens/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Auth     *usecases.AuthService
	Datasets *usecases.DatasetService
	Analyses *usecases.AnalysisService
	Places   *usecases.PlaceService
	Insights *usecases.InsightService
	NATS     *nats.Conn
	DB       *postgres.DB
	Cache    *valkey.Cache
	// MaxUploadBytes caps multipart dataset uploads.
	MaxUploadBytes int64
}
