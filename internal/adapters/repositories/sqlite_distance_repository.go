package repositories

import (
	"context"
	"database/sql"
	"delivery-route-planner/internal/domain"
	"delivery-route-planner/internal/platform/obs"
	"errors"
	"fmt"
)

// SQLite-backed implementation of the DistanceRepository port, reading the
// seeded address universe and its direct distances.
type SqliteDistanceRepository struct{ DB *sql.DB }

func NewSqliteDistanceRepository(db *sql.DB) *SqliteDistanceRepository {
	return &SqliteDistanceRepository{DB: db}
}

// Return addresses in canonical order; the first one is the depot.
func (s *SqliteDistanceRepository) ListAddresses(ctx context.Context) (_ []string, err error) {
	defer obs.Time(ctx, "addresses.List")(&err)

	if s.DB == nil {
		return nil, errors.New("sqlite distance repository: DB is nil")
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT address FROM addresses ORDER BY idx;`)
	if err != nil {
		return nil, fmt.Errorf("list addresses: query addresses table: %w", err)
	}
	defer rows.Close()

	out := make([]string, 0, 32)
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, fmt.Errorf("list addresses: scan row: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list addresses: row iteration: %w", err)
	}
	return out, nil
}

// DirectMatrix returns the lower-triangular direct distances aligned with
// addresses, in the caller's order.
func (s *SqliteDistanceRepository) DirectMatrix(ctx context.Context, addresses []string) (_ [][]float64, err error) {
	defer obs.Time(ctx, "distances.DirectMatrix")(&err)

	if s.DB == nil {
		return nil, errors.New("sqlite distance repository: DB is nil")
	}

	query := `
	SELECT r.address, c.address, d.miles
	FROM distances d
	JOIN addresses r ON r.idx = d.row_idx
	JOIN addresses c ON c.idx = d.col_idx;
	`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("direct matrix: query distances table: %w", err)
	}
	defer rows.Close()

	type pair struct{ a, b string }
	miles := make(map[pair]float64, 512)
	for rows.Next() {
		var a, b string
		var d float64
		if err := rows.Scan(&a, &b, &d); err != nil {
			return nil, fmt.Errorf("direct matrix: scan row: %w", err)
		}
		miles[pair{a, b}] = d
		miles[pair{b, a}] = d
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("direct matrix: row iteration: %w", err)
	}

	matrix := make([][]float64, len(addresses))
	for i, a := range addresses {
		matrix[i] = make([]float64, i+1)
		for j := 0; j < i; j++ {
			d, ok := miles[pair{a, addresses[j]}]
			if !ok {
				return nil, fmt.Errorf("direct matrix: no distance %q -> %q: %w", a, addresses[j], domain.ErrUnknownAddress)
			}
			matrix[i][j] = d
		}
	}
	return matrix, nil
}
