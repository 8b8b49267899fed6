package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/mgoiri/geolens/internal/core/domain"
)

const userLocalsKey = "current_user"

// AuthMiddleware validates the bearer token and stores the user in locals.
func AuthMiddleware(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return errUnauthorized(c, "missing authorization header")
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			return errUnauthorized(c, "expected bearer token")
		}

		user, err := deps.Auth.Authenticate(c.UserContext(), strings.TrimSpace(parts[1]))
		if err != nil {
			return errUnauthorized(c, "invalid or expired token")
		}

		c.Locals(userLocalsKey, user)
		return c.Next()
	}
}

// currentUser returns the authenticated user stored by AuthMiddleware.
func currentUser(c *fiber.Ctx) *domain.User {
	user, _ := c.Locals(userLocalsKey).(*domain.User)
	return user
}
