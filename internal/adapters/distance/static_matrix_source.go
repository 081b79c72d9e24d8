package distance

import (
	"context"
	"delivery-route-planner/internal/domain"
	"fmt"
)

// StaticMatrixSource serves direct distances from an in-memory universe,
// e.g. a seed file read without a database.
type StaticMatrixSource struct {
	miles map[[2]string]float64
}

// NewStaticMatrixSource indexes a lower-triangular matrix aligned with
// addresses. Rows may omit the zero diagonal.
func NewStaticMatrixSource(addresses []string, matrix [][]float64) (*StaticMatrixSource, error) {
	if len(matrix) != len(addresses) {
		return nil, fmt.Errorf("static matrix: %d rows for %d addresses", len(matrix), len(addresses))
	}

	m := make(map[[2]string]float64, len(addresses)*len(addresses)/2)
	for i, row := range matrix {
		if len(row) < i {
			return nil, fmt.Errorf("static matrix: row %d has %d columns, want %d", i, len(row), i)
		}
		for j := 0; j < i; j++ {
			m[[2]string{addresses[i], addresses[j]}] = row[j]
			m[[2]string{addresses[j], addresses[i]}] = row[j]
		}
	}
	return &StaticMatrixSource{miles: m}, nil
}

func (s *StaticMatrixSource) DirectMatrix(_ context.Context, addresses []string) ([][]float64, error) {
	out := make([][]float64, len(addresses))
	for i, a := range addresses {
		out[i] = make([]float64, i+1)
		for j := 0; j < i; j++ {
			d, ok := s.miles[[2]string{a, addresses[j]}]
			if !ok {
				return nil, fmt.Errorf("static matrix: no distance %q -> %q: %w", a, addresses[j], domain.ErrUnknownAddress)
			}
			out[i][j] = d
		}
	}
	return out, nil
}
