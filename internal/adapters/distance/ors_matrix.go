package distance

import (
	"context"
	"delivery-route-planner/internal/domain"
	"delivery-route-planner/internal/platform/obs"
	"fmt"
	"net/http"
)

type matrixRequest struct {
	Locations [][]float64 `json:"locations"`
	Metrics   []string    `json:"metrics"`
}

type matrixResponse struct {
	Distances [][]*float64 `json:"distances"`
}

// fetchMatrix returns road distances in meters between every pair of points.
// Without sources/destinations the endpoint answers the full square matrix.
func (o *ORSMatrixSource) fetchMatrix(ctx context.Context, points []domain.GeoPoint) (_ [][]float64, err error) {
	defer obs.Time(ctx, "ors.fetchMatrix")(&err)

	n := len(points)
	locations := make([][]float64, 0, n)
	for _, p := range points {
		locations = append(locations, p.LonLat())
	}

	var mr matrixResponse
	req := matrixRequest{Locations: locations, Metrics: []string{"distance"}}
	if err := o.call(ctx, http.MethodPost, "/v2/matrix/"+o.profile, nil, req, &mr); err != nil {
		return nil, fmt.Errorf("matrix request failed: %w", err)
	}

	if len(mr.Distances) != n {
		return nil, fmt.Errorf("expected %d matrix rows, got %d", n, len(mr.Distances))
	}

	out := make([][]float64, n)
	for i, row := range mr.Distances {
		if len(row) != n {
			return nil, fmt.Errorf("matrix row %d has %d columns, want %d", i, len(row), n)
		}
		out[i] = make([]float64, n)
		for j, v := range row {
			if v == nil {
				return nil, fmt.Errorf("matrix has no route between locations %d and %d", i, j)
			}
			out[i][j] = *v
		}
	}

	return out, nil
}
