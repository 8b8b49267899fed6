package usecases

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mgoiri/geolens/internal/core/domain"
	"github.com/mgoiri/geolens/internal/core/ports"
	"github.com/mgoiri/geolens/internal/pkg/parsing"
)

// DatasetService handles dataset upload, listing and point loading.
type DatasetService struct {
	datasets ports.DatasetRepository
	files    ports.FileStore
	events   ports.EventPublisher
}

// NewDatasetService creates a new DatasetService.
func NewDatasetService(datasets ports.DatasetRepository, files ports.FileStore, events ports.EventPublisher) *DatasetService {
	return &DatasetService{datasets: datasets, files: files, events: events}
}

// Upload parses the raw file, persists it and records the dataset. The whole
// payload is validated before anything is stored: an upload with zero usable
// points is rejected, not stored empty.
func (s *DatasetService) Upload(ctx context.Context, userID, filename string, raw []byte) (*domain.Dataset, error) {
	fileType, err := detectFileType(filename)
	if err != nil {
		return nil, err
	}

	var points []domain.Point
	switch fileType {
	case "csv":
		points, err = parsing.ParseCSV(bytes.NewReader(raw))
	case "geojson":
		points, err = parsing.ParseGeoJSON(bytes.NewReader(raw))
	}
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, ErrEmptyDataset
	}

	id := uuid.NewString()
	path, err := s.files.Save(ctx, id+"."+fileType, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}

	bbox := pointsBBox(points)
	ds := &domain.Dataset{
		ID:          id,
		UserID:      userID,
		Filename:    filename,
		FileType:    fileType,
		StoragePath: path,
		NumPoints:   len(points),
		BBox:        &bbox,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.datasets.Create(ctx, ds); err != nil {
		_ = s.files.Remove(ctx, path)
		return nil, fmt.Errorf("create dataset: %w", err)
	}

	if s.events != nil {
		_ = s.events.PublishDatasetUploaded(ctx, ds)
	}
	return ds, nil
}

// Get returns a dataset owned by the user.
func (s *DatasetService) Get(ctx context.Context, userID, datasetID string) (*domain.Dataset, error) {
	ds, err := s.datasets.GetByID(ctx, datasetID)
	if err != nil || ds == nil {
		return nil, ErrNotFound
	}
	if ds.UserID != userID {
		return nil, ErrForbidden
	}
	return ds, nil
}

// List returns the user's datasets, newest first.
func (s *DatasetService) List(ctx context.Context, userID string, limit, offset int) ([]domain.Dataset, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	items, err := s.datasets.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.datasets.CountByUser(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Delete removes a dataset and its stored file.
func (s *DatasetService) Delete(ctx context.Context, userID, datasetID string) error {
	ds, err := s.Get(ctx, userID, datasetID)
	if err != nil {
		return err
	}
	if err := s.datasets.Delete(ctx, ds.ID); err != nil {
		return err
	}
	_ = s.files.Remove(ctx, ds.StoragePath)
	return nil
}

// LoadPoints re-reads and re-parses the stored file for a dataset.
func (s *DatasetService) LoadPoints(ctx context.Context, ds *domain.Dataset) ([]domain.Point, error) {
	r, err := s.files.Open(ctx, ds.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("open dataset file: %w", err)
	}
	defer r.Close()

	switch ds.FileType {
	case "csv":
		return parsing.ParseCSV(r)
	case "geojson":
		return parsing.ParseGeoJSON(r)
	default:
		return nil, ErrUnsupportedFormat
	}
}

func detectFileType(filename string) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return "csv", nil
	case ".geojson", ".json":
		return "geojson", nil
	default:
		return "", ErrUnsupportedFormat
	}
}

func pointsBBox(points []domain.Point) domain.BoundingBox {
	bbox := domain.BoundingBox{
		MinLat: points[0].Lat, MaxLat: points[0].Lat,
		MinLon: points[0].Lon, MaxLon: points[0].Lon,
	}
	for _, p := range points[1:] {
		if p.Lat < bbox.MinLat {
			bbox.MinLat = p.Lat
		}
		if p.Lat > bbox.MaxLat {
			bbox.MaxLat = p.Lat
		}
		if p.Lon < bbox.MinLon {
			bbox.MinLon = p.Lon
		}
		if p.Lon > bbox.MaxLon {
			bbox.MaxLon = p.Lon
		}
	}
	return bbox
}
