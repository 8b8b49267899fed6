package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/mgoiri/geolens/internal/core/domain"
	"github.com/mgoiri/geolens/internal/core/usecases"
)

type placeRequest struct {
	Name     string   `json:"name"`
	Category string   `json:"category"`
	Lat      float64  `json:"lat"`
	Lon      float64  `json:"lon"`
	Notes    string   `json:"notes"`
	Tags     []string `json:"tags"`
}

func (r placeRequest) toDomain() *domain.Place {
	return &domain.Place{
		Name:     r.Name,
		Category: r.Category,
		Location: domain.GeoPoint{Lat: r.Lat, Lon: r.Lon},
		Notes:    r.Notes,
		Tags:     r.Tags,
	}
}

// CreatePlaceHandler saves a place.
func CreatePlaceHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := currentUser(c)

		var req placeRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		place, err := deps.Places.Create(c.UserContext(), user.ID, req.toDomain())
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		return c.Status(201).JSON(place)
	}
}

// ListPlacesHandler returns the user's places.
func ListPlacesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := currentUser(c)
		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 50)

		places, err := deps.Places.List(c.UserContext(), user.ID, limit, offset)
		if err != nil {
			return mapUsecaseError(c, err)
		}
		return c.JSON(places)
	}
}

// NearbyPlacesHandler returns the user's places around a point.
func NearbyPlacesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := currentUser(c)

		lat := c.QueryFloat("lat", 0)
		lon := c.QueryFloat("lon", 0)
		radius := c.QueryFloat("radius", 1000)
		limit := c.QueryInt("limit", 20)

		if !c.Context().QueryArgs().Has("lat") || !c.Context().QueryArgs().Has("lon") {
			return errBadRequest(c, "lat and lon are required")
		}

		places, err := deps.Places.FindNearby(c.UserContext(), user.ID, lat, lon, radius, limit)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		return c.JSON(places)
	}
}

// GetPlaceHandler returns one place.
func GetPlaceHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := currentUser(c)
		place, err := deps.Places.Get(c.UserContext(), user.ID, c.Params("id"))
		if err != nil {
			return mapUsecaseError(c, err)
		}
		return c.JSON(place)
	}
}

// UpdatePlaceHandler rewrites a place.
func UpdatePlaceHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := currentUser(c)

		var req placeRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		place := req.toDomain()
		place.ID = c.Params("id")

		updated, err := deps.Places.Update(c.UserContext(), user.ID, place)
		if err != nil {
			if errors.Is(err, usecases.ErrNotFound) || errors.Is(err, usecases.ErrForbidden) {
				return mapUsecaseError(c, err)
			}
			return errBadRequest(c, err.Error())
		}
		return c.JSON(updated)
	}
}

// DeletePlaceHandler removes a place.
func DeletePlaceHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := currentUser(c)
		if err := deps.Places.Delete(c.UserContext(), user.ID, c.Params("id")); err != nil {
			return mapUsecaseError(c, err)
		}
		return c.SendStatus(204)
	}
}
