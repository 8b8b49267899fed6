package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/mgoiri/geolens/internal/core/domain"
)

// DatasetRepo implements ports.DatasetRepository with pgx.
type DatasetRepo struct {
	db *DB
}

// NewDatasetRepo creates a new DatasetRepo.
func NewDatasetRepo(db *DB) *DatasetRepo {
	return &DatasetRepo{db: db}
}

// Create inserts a dataset row.
func (r *DatasetRepo) Create(ctx context.Context, ds *domain.Dataset) error {
	var minLat, maxLat, minLon, maxLon *float64
	if ds.BBox != nil {
		minLat, maxLat = &ds.BBox.MinLat, &ds.BBox.MaxLat
		minLon, maxLon = &ds.BBox.MinLon, &ds.BBox.MaxLon
	}
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO datasets (id, user_id, filename, file_type, storage_path, n_points,
		                      min_lat, max_lat, min_lon, max_lon, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, ds.ID, ds.UserID, ds.Filename, ds.FileType, ds.StoragePath, ds.NumPoints,
		minLat, maxLat, minLon, maxLon, ds.CreatedAt)
	return err
}

const datasetColumns = `id, user_id, filename, file_type, storage_path, n_points,
	min_lat, max_lat, min_lon, max_lon, created_at`

// GetByID returns a dataset by id, nil if absent.
func (r *DatasetRepo) GetByID(ctx context.Context, id string) (*domain.Dataset, error) {
	row := r.db.Pool.QueryRow(ctx, `SELECT `+datasetColumns+` FROM datasets WHERE id = $1`, id)
	ds, err := scanDataset(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ds, nil
}

// ListByUser returns the user's datasets, newest first.
func (r *DatasetRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Dataset, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+datasetColumns+` FROM datasets
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var datasets []domain.Dataset
	for rows.Next() {
		ds, err := scanDataset(rows)
		if err != nil {
			return nil, err
		}
		datasets = append(datasets, *ds)
	}
	return datasets, rows.Err()
}

// CountByUser returns how many datasets the user owns.
func (r *DatasetRepo) CountByUser(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.db.Pool.QueryRow(ctx, `SELECT count(*) FROM datasets WHERE user_id = $1`, userID).Scan(&n)
	return n, err
}

// Delete removes a dataset row. Analysis runs cascade in the schema.
func (r *DatasetRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM datasets WHERE id = $1`, id)
	return err
}

func scanDataset(row pgx.Row) (*domain.Dataset, error) {
	var ds domain.Dataset
	var minLat, maxLat, minLon, maxLon *float64
	err := row.Scan(&ds.ID, &ds.UserID, &ds.Filename, &ds.FileType, &ds.StoragePath, &ds.NumPoints,
		&minLat, &maxLat, &minLon, &maxLon, &ds.CreatedAt)
	if err != nil {
		return nil, err
	}
	if minLat != nil && maxLat != nil && minLon != nil && maxLon != nil {
		ds.BBox = &domain.BoundingBox{MinLat: *minLat, MaxLat: *maxLat, MinLon: *minLon, MaxLon: *maxLon}
	}
	return &ds, nil
}
