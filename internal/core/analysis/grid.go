package analysis

import (
	"math"

	"github.com/mgoiri/geolens/internal/core/domain"
)

// GridDensity bins points into a uniform grid of cellSize degrees anchored
// at the bounding-box minimum corner, and reports one cell per occupied
// (row, col) index pair. Cells are emitted in first-occupied order, so the
// output is reproducible for a fixed input order.
func GridDensity(points []domain.Point, cellSize float64) (domain.GridResult, error) {
	if cellSize <= 0 || math.IsNaN(cellSize) || math.IsInf(cellSize, 0) {
		return domain.GridResult{}, &ParamError{Param: "grid_cell_size", Reason: "must be a positive number"}
	}

	res := domain.GridResult{
		GridCellSize: cellSize,
		Cells:        []domain.GridCell{},
	}
	if len(points) == 0 {
		return res, nil
	}

	bbox := boundingBox(points)
	res.BBox = &bbox

	type cellIndex struct {
		i, j int
	}
	counts := make(map[cellIndex]int, len(points))
	var order []cellIndex

	for _, p := range points {
		idx := cellIndex{
			i: int(math.Floor((p.Lat - bbox.MinLat) / cellSize)),
			j: int(math.Floor((p.Lon - bbox.MinLon) / cellSize)),
		}
		if _, seen := counts[idx]; !seen {
			order = append(order, idx)
		}
		counts[idx]++
	}

	for _, idx := range order {
		minLat := bbox.MinLat + float64(idx.i)*cellSize
		minLon := bbox.MinLon + float64(idx.j)*cellSize
		res.Cells = append(res.Cells, domain.GridCell{
			BoundingBox: domain.BoundingBox{
				MinLat: minLat,
				MaxLat: minLat + cellSize,
				MinLon: minLon,
				MaxLon: minLon + cellSize,
			},
			Count: counts[idx],
		})
	}

	return res, nil
}
