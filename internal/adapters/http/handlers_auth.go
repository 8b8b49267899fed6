package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/mgoiri/geolens/internal/core/domain"
	"github.com/mgoiri/geolens/internal/core/usecases"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// RegisterHandler creates an account and returns a token.
func RegisterHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req credentialsRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		user, token, err := deps.Auth.Register(c.UserContext(), req.Email, req.Password)
		if err != nil {
			if errors.Is(err, usecases.ErrEmailTaken) {
				return errConflict(c, "email already registered")
			}
			return errBadRequest(c, err.Error())
		}

		return c.Status(201).JSON(authResponse{Token: token, User: user})
	}
}

// LoginHandler verifies credentials and returns a token.
func LoginHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req credentialsRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		user, token, err := deps.Auth.Login(c.UserContext(), req.Email, req.Password)
		if err != nil {
			return errUnauthorized(c, "invalid credentials")
		}

		return c.JSON(authResponse{Token: token, User: user})
	}
}

// MeHandler returns the authenticated user.
func MeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(currentUser(c))
	}
}

// mapUsecaseError translates service-layer errors into API responses.
func mapUsecaseError(c *fiber.Ctx, err error) error {
	var qe *usecases.QuotaError
	switch {
	case errors.Is(err, usecases.ErrNotFound):
		return errNotFound(c, "resource not found")
	case errors.Is(err, usecases.ErrForbidden):
		return errForbidden(c, "you do not own this resource")
	case errors.As(err, &qe):
		return errTooManyRequests(c, "insight quota exhausted", qe.RetryAfter)
	default:
		return errInternal(c, err.Error())
	}
}
