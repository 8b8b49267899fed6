package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/mgoiri/geolens/internal/core/domain"
)

// PlaceRepo implements ports.PlaceRepository with pgx. Locations are stored
// as PostGIS geography so nearby queries use ST_DWithin on the spatial index.
type PlaceRepo struct {
	db *DB
}

// NewPlaceRepo creates a new PlaceRepo.
func NewPlaceRepo(db *DB) *PlaceRepo {
	return &PlaceRepo{db: db}
}

// Create inserts a place.
func (r *PlaceRepo) Create(ctx context.Context, p *domain.Place) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO places (id, user_id, name, category, location, notes, tags, created_at, updated_at)
		VALUES ($1, $2, $3, $4, ST_SetSRID(ST_MakePoint($5, $6), 4326)::geography, $7, $8, $9, $10)
	`, p.ID, p.UserID, p.Name, p.Category, p.Location.Lon, p.Location.Lat,
		p.Notes, p.Tags, p.CreatedAt, p.UpdatedAt)
	return err
}

const placeColumns = `id, user_id, name, COALESCE(category, ''),
	ST_Y(location::geometry) as lat,
	ST_X(location::geometry) as lon,
	COALESCE(notes, ''), COALESCE(tags, '{}'), created_at, updated_at`

// GetByID returns a place by id, nil if absent.
func (r *PlaceRepo) GetByID(ctx context.Context, id string) (*domain.Place, error) {
	row := r.db.Pool.QueryRow(ctx, `SELECT `+placeColumns+` FROM places WHERE id = $1`, id)
	p, err := scanPlace(row, false)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListByUser returns the user's places, newest first.
func (r *PlaceRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Place, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+placeColumns+` FROM places
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPlaces(rows, false)
}

// FindNearby returns the user's places within radiusMeters, nearest first.
func (r *PlaceRepo) FindNearby(ctx context.Context, userID string, lat, lon, radiusMeters float64, limit int) ([]domain.Place, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+placeColumns+`,
		       ST_Distance(location, ST_SetSRID(ST_MakePoint($2, $3), 4326)::geography) as distance
		FROM places
		WHERE user_id = $1
		  AND ST_DWithin(location, ST_SetSRID(ST_MakePoint($2, $3), 4326)::geography, $4)
		ORDER BY distance
		LIMIT $5
	`, userID, lon, lat, radiusMeters, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPlaces(rows, true)
}

// Update rewrites a place's mutable fields.
func (r *PlaceRepo) Update(ctx context.Context, p *domain.Place) error {
	_, err := r.db.Pool.Exec(ctx, `
		UPDATE places
		SET name = $2, category = $3,
		    location = ST_SetSRID(ST_MakePoint($4, $5), 4326)::geography,
		    notes = $6, tags = $7, updated_at = $8
		WHERE id = $1
	`, p.ID, p.Name, p.Category, p.Location.Lon, p.Location.Lat, p.Notes, p.Tags, p.UpdatedAt)
	return err
}

// Delete removes a place.
func (r *PlaceRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM places WHERE id = $1`, id)
	return err
}

func scanPlace(row pgx.Row, withDistance bool) (*domain.Place, error) {
	var p domain.Place
	dest := []any{&p.ID, &p.UserID, &p.Name, &p.Category,
		&p.Location.Lat, &p.Location.Lon,
		&p.Notes, &p.Tags, &p.CreatedAt, &p.UpdatedAt}
	if withDistance {
		p.Distance = new(float64)
		dest = append(dest, p.Distance)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &p, nil
}

func collectPlaces(rows pgx.Rows, withDistance bool) ([]domain.Place, error) {
	var places []domain.Place
	for rows.Next() {
		p, err := scanPlace(rows, withDistance)
		if err != nil {
			return nil, err
		}
		places = append(places, *p)
	}
	return places, rows.Err()
}
