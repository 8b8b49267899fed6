package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mgoiri/geolens/internal/core/domain"
)

// InsightUsageRepo implements ports.InsightUsageRepository with pgx.
type InsightUsageRepo struct {
	db *DB
}

// NewInsightUsageRepo creates a new InsightUsageRepo.
func NewInsightUsageRepo(db *DB) *InsightUsageRepo {
	return &InsightUsageRepo{db: db}
}

// Insert records one usage event.
func (r *InsightUsageRepo) Insert(ctx context.Context, u *domain.InsightUsage) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO insight_usages (id, user_id, action, created_at)
		VALUES ($1, $2, $3, $4)
	`, u.ID, u.UserID, u.Action, u.CreatedAt)
	return err
}

// CountSince counts the user's usages of an action inside the window.
func (r *InsightUsageRepo) CountSince(ctx context.Context, userID, action string, since time.Time) (int, error) {
	var n int
	err := r.db.Pool.QueryRow(ctx, `
		SELECT count(*) FROM insight_usages
		WHERE user_id = $1 AND action = $2 AND created_at >= $3
	`, userID, action, since).Scan(&n)
	return n, err
}

// OldestSince returns the earliest in-window usage, nil if there is none.
func (r *InsightUsageRepo) OldestSince(ctx context.Context, userID, action string, since time.Time) (*domain.InsightUsage, error) {
	var u domain.InsightUsage
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, user_id, action, created_at FROM insight_usages
		WHERE user_id = $1 AND action = $2 AND created_at >= $3
		ORDER BY created_at ASC
		LIMIT 1
	`, userID, action, since).Scan(&u.ID, &u.UserID, &u.Action, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
