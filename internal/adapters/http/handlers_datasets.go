package http

import (
	"errors"
	"io"

	"github.com/gofiber/fiber/v2"

	"github.com/mgoiri/geolens/internal/core/usecases"
	"github.com/mgoiri/geolens/internal/pkg/metrics"
	"github.com/mgoiri/geolens/internal/pkg/parsing"
)

// UploadDatasetHandler accepts a multipart CSV or GeoJSON upload.
func UploadDatasetHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := currentUser(c)

		fh, err := c.FormFile("file")
		if err != nil {
			return errBadRequest(c, "multipart field 'file' is required")
		}
		if deps.MaxUploadBytes > 0 && fh.Size > deps.MaxUploadBytes {
			return errPayloadTooLarge(c, "upload exceeds the size limit")
		}

		f, err := fh.Open()
		if err != nil {
			return errInternal(c, "read upload: "+err.Error())
		}
		defer f.Close()

		raw, err := io.ReadAll(f)
		if err != nil {
			return errInternal(c, "read upload: "+err.Error())
		}

		ds, err := deps.Datasets.Upload(c.UserContext(), user.ID, fh.Filename, raw)
		if err != nil {
			switch {
			case errors.Is(err, usecases.ErrUnsupportedFormat):
				return errBadRequest(c, "only .csv and .geojson files are supported")
			case errors.Is(err, usecases.ErrEmptyDataset):
				return errUnprocessable(c, "no valid points found in the file")
			case errors.Is(err, parsing.ErrNoHeader),
				errors.Is(err, parsing.ErrNoCoordinateColumns),
				errors.Is(err, parsing.ErrInvalidGeoJSON):
				return errUnprocessable(c, err.Error())
			default:
				return errInternal(c, err.Error())
			}
		}

		metrics.DatasetsUploaded.WithLabelValues(ds.FileType).Inc()
		metrics.DatasetPointsParsed.Add(float64(ds.NumPoints))

		return c.Status(201).JSON(ds)
	}
}

// ListDatasetsHandler returns the user's datasets.
func ListDatasetsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := currentUser(c)
		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 20)

		datasets, total, err := deps.Datasets.List(c.UserContext(), user.ID, limit, offset)
		if err != nil {
			return mapUsecaseError(c, err)
		}

		pg := NewPagination(offset, limit, total)
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: datasets, Pagination: pg})
	}
}

// GetDatasetHandler returns one dataset.
func GetDatasetHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := currentUser(c)
		ds, err := deps.Datasets.Get(c.UserContext(), user.ID, c.Params("id"))
		if err != nil {
			return mapUsecaseError(c, err)
		}
		return c.JSON(ds)
	}
}

// DeleteDatasetHandler removes a dataset and its stored file.
func DeleteDatasetHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := currentUser(c)
		if err := deps.Datasets.Delete(c.UserContext(), user.ID, c.Params("id")); err != nil {
			return mapUsecaseError(c, err)
		}
		return c.SendStatus(204)
	}
}
