package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mgoiri/geolens/internal/core/domain"
	"github.com/mgoiri/geolens/internal/core/ports"
)

// PlaceService handles saved-place CRUD and proximity queries.
type PlaceService struct {
	places ports.PlaceRepository
	cache  ports.CacheService
}

// NewPlaceService creates a new PlaceService.
func NewPlaceService(places ports.PlaceRepository, cache ports.CacheService) *PlaceService {
	return &PlaceService{places: places, cache: cache}
}

// Create saves a new place for the user.
func (s *PlaceService) Create(ctx context.Context, userID string, place *domain.Place) (*domain.Place, error) {
	if place.Name == "" {
		return nil, fmt.Errorf("place name must not be empty")
	}
	if !validLatLon(place.Location.Lat, place.Location.Lon) {
		return nil, fmt.Errorf("place coordinates out of range")
	}

	now := time.Now().UTC()
	place.ID = uuid.NewString()
	place.UserID = userID
	place.CreatedAt = now
	place.UpdatedAt = now

	if err := s.places.Create(ctx, place); err != nil {
		return nil, fmt.Errorf("create place: %w", err)
	}
	s.invalidateUserPlaces(ctx, userID)
	return place, nil
}

// Get returns a place owned by the user.
func (s *PlaceService) Get(ctx context.Context, userID, placeID string) (*domain.Place, error) {
	place, err := s.places.GetByID(ctx, placeID)
	if err != nil || place == nil {
		return nil, ErrNotFound
	}
	if place.UserID != userID {
		return nil, ErrForbidden
	}
	return place, nil
}

// List returns the user's places. The default first page is served through
// the cache; other pages always hit the repository.
func (s *PlaceService) List(ctx context.Context, userID string, limit, offset int) ([]domain.Place, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	cacheable := s.cache != nil && offset == 0 && limit == 50
	cacheKey := "places:user:" + userID
	if cacheable {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var cached []domain.Place
			if json.Unmarshal(data, &cached) == nil {
				return cached, nil
			}
		}
	}

	places, err := s.places.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	if cacheable {
		if data, err := json.Marshal(places); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 300)
		}
	}
	return places, nil
}

// FindNearby returns the user's places within radiusMeters, nearest first.
func (s *PlaceService) FindNearby(ctx context.Context, userID string, lat, lon, radiusMeters float64, limit int) ([]domain.Place, error) {
	if !validLatLon(lat, lon) {
		return nil, fmt.Errorf("coordinates out of range")
	}
	if radiusMeters <= 0 || radiusMeters > 50000 {
		radiusMeters = 1000
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	return s.places.FindNearby(ctx, userID, lat, lon, radiusMeters, limit)
}

// Update modifies an existing place.
func (s *PlaceService) Update(ctx context.Context, userID string, place *domain.Place) (*domain.Place, error) {
	existing, err := s.Get(ctx, userID, place.ID)
	if err != nil {
		return nil, err
	}
	if place.Name == "" {
		return nil, fmt.Errorf("place name must not be empty")
	}
	if !validLatLon(place.Location.Lat, place.Location.Lon) {
		return nil, fmt.Errorf("place coordinates out of range")
	}

	place.UserID = existing.UserID
	place.CreatedAt = existing.CreatedAt
	place.UpdatedAt = time.Now().UTC()

	if err := s.places.Update(ctx, place); err != nil {
		return nil, fmt.Errorf("update place: %w", err)
	}
	s.invalidateUserPlaces(ctx, userID)
	return place, nil
}

// Delete removes a place owned by the user.
func (s *PlaceService) Delete(ctx context.Context, userID, placeID string) error {
	if _, err := s.Get(ctx, userID, placeID); err != nil {
		return err
	}
	if err := s.places.Delete(ctx, placeID); err != nil {
		return err
	}
	s.invalidateUserPlaces(ctx, userID)
	return nil
}

func (s *PlaceService) invalidateUserPlaces(ctx context.Context, userID string) {
	if s.cache != nil {
		_ = s.cache.Delete(ctx, "places:user:"+userID)
	}
}

func validLatLon(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
