package http

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/mgoiri/geolens/internal/core/analysis"
	"github.com/mgoiri/geolens/internal/core/domain"
	"github.com/mgoiri/geolens/internal/pkg/metrics"
)

// analysisRunResponse is the wire shape for a run: the stored params and
// result JSON are embedded verbatim, not re-encoded.
type analysisRunResponse struct {
	ID        string          `json:"id"`
	DatasetID string          `json:"dataset_id"`
	Params    json.RawMessage `json:"params"`
	Result    json.RawMessage `json:"result"`
	CreatedAt time.Time       `json:"created_at"`
}

func runResponse(run *domain.AnalysisRun) analysisRunResponse {
	return analysisRunResponse{
		ID:        run.ID,
		DatasetID: run.DatasetID,
		Params:    run.ParamsJSON,
		Result:    run.ResultJSON,
		CreatedAt: run.CreatedAt,
	}
}

// AnalyzeDatasetHandler runs the engine over a dataset. Absent parameters
// take their defaults, so an empty body is a valid request.
func AnalyzeDatasetHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := currentUser(c)

		params := domain.DefaultAnalyzeParams()
		if len(c.Body()) > 0 {
			if err := json.Unmarshal(c.Body(), &params); err != nil {
				return errBadRequest(c, "invalid request body")
			}
		}

		start := time.Now()
		run, err := deps.Analyses.Analyze(c.UserContext(), user.ID, c.Params("id"), params)
		if err != nil {
			var pe *analysis.ParamError
			var ce *analysis.CoordinateError
			switch {
			case errors.As(err, &pe):
				metrics.AnalysesRun.WithLabelValues("bad_params").Inc()
				return errBadRequest(c, pe.Error())
			case errors.As(err, &ce):
				metrics.AnalysesRun.WithLabelValues("bad_data").Inc()
				return errUnprocessable(c, ce.Error())
			default:
				metrics.AnalysesRun.WithLabelValues("error").Inc()
				return mapUsecaseError(c, err)
			}
		}
		metrics.AnalysesRun.WithLabelValues("ok").Inc()
		metrics.AnalysisDuration.Observe(time.Since(start).Seconds())

		return c.Status(201).JSON(runResponse(run))
	}
}

// GetAnalysisRunHandler returns one stored run.
func GetAnalysisRunHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := currentUser(c)
		run, err := deps.Analyses.GetRun(c.UserContext(), user.ID, c.Params("id"))
		if err != nil {
			return mapUsecaseError(c, err)
		}
		return c.JSON(runResponse(run))
	}
}

// ListAnalysisRunsHandler returns a dataset's run history.
func ListAnalysisRunsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := currentUser(c)
		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 20)

		runs, err := deps.Analyses.ListRuns(c.UserContext(), user.ID, c.Params("id"), limit, offset)
		if err != nil {
			return mapUsecaseError(c, err)
		}

		out := make([]analysisRunResponse, 0, len(runs))
		for i := range runs {
			out = append(out, runResponse(&runs[i]))
		}
		return c.JSON(out)
	}
}
