package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mgoiri/geolens/internal/core/domain"
	"github.com/mgoiri/geolens/internal/pkg/metrics"
)

type insightRequest struct {
	CityName     string              `json:"city_name"`
	ViewportBBox *domain.BoundingBox `json:"viewport_bbox"`
	Filters      map[string]any      `json:"filters"`
}

// GenerateInsightHandler narrates one of the user's analysis runs.
// The quota is enforced in the service layer; exhaustion surfaces as 429
// with a Retry-After header.
func GenerateInsightHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := currentUser(c)

		var req insightRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return errBadRequest(c, "invalid request body")
			}
		}

		insight, err := deps.Insights.GenerateForRun(c.UserContext(), user.ID, c.Params("id"), domain.InsightContext{
			CityName:     req.CityName,
			ViewportBBox: req.ViewportBBox,
			Filters:      req.Filters,
		})
		if err != nil {
			metrics.InsightsGenerated.WithLabelValues("error").Inc()
			return mapUsecaseError(c, err)
		}

		metrics.InsightsGenerated.WithLabelValues("ok").Inc()
		return c.JSON(insight)
	}
}
