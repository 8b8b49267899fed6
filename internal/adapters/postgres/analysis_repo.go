package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/mgoiri/geolens/internal/core/domain"
)

// AnalysisRunRepo implements ports.AnalysisRunRepository with pgx.
// Params and results are stored as jsonb exactly as serialized; the API
// serves result payloads back without re-encoding.
type AnalysisRunRepo struct {
	db *DB
}

// NewAnalysisRunRepo creates a new AnalysisRunRepo.
func NewAnalysisRunRepo(db *DB) *AnalysisRunRepo {
	return &AnalysisRunRepo{db: db}
}

// Create inserts an analysis run.
func (r *AnalysisRunRepo) Create(ctx context.Context, run *domain.AnalysisRun) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO analysis_runs (id, dataset_id, user_id, params_json, result_json, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, run.ID, run.DatasetID, run.UserID, run.ParamsJSON, run.ResultJSON, run.CreatedAt)
	return err
}

// GetByID returns a run by id, nil if absent.
func (r *AnalysisRunRepo) GetByID(ctx context.Context, id string) (*domain.AnalysisRun, error) {
	var run domain.AnalysisRun
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, dataset_id, user_id, params_json, result_json, created_at
		FROM analysis_runs WHERE id = $1
	`, id).Scan(&run.ID, &run.DatasetID, &run.UserID, &run.ParamsJSON, &run.ResultJSON, &run.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// ListByDataset returns runs for a dataset, newest first.
func (r *AnalysisRunRepo) ListByDataset(ctx context.Context, datasetID string, limit, offset int) ([]domain.AnalysisRun, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, dataset_id, user_id, params_json, result_json, created_at
		FROM analysis_runs
		WHERE dataset_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, datasetID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []domain.AnalysisRun
	for rows.Next() {
		var run domain.AnalysisRun
		if err := rows.Scan(&run.ID, &run.DatasetID, &run.UserID, &run.ParamsJSON, &run.ResultJSON, &run.CreatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
