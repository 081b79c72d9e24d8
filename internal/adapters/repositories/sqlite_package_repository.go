package repositories

import (
	"context"
	"database/sql"
	"delivery-route-planner/internal/domain"
	"delivery-route-planner/internal/platform/obs"
	"encoding/json"
	"errors"
	"fmt"
)

// SQLite-backed implementation of the PackageRepository and DeliveryRecorder ports.
type SqlitePackageRepository struct{ DB *sql.DB }

func NewSqlitePackageRepository(db *sql.DB) *SqlitePackageRepository {
	return &SqlitePackageRepository{DB: db}
}

// Return all packages ordered by id, with constraint defaults applied.
func (s *SqlitePackageRepository) ListPackages(ctx context.Context) (_ []domain.Package, err error) {
	defer obs.Time(ctx, "packages.List")(&err)

	if s.DB == nil {
		return nil, errors.New("sqlite package repository: DB is nil")
	}

	query := `
	SELECT
		package_id,
		street,
		city,
		state,
		zip,
		deadline,
		weight,
		note,
		availability,
		truck_pin,
		tie_group
	FROM packages
	ORDER BY package_id;
	`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list packages: query packages table: %w", err)
	}
	defer rows.Close()

	packages := make([]domain.Package, 0, 64)
	for rows.Next() {
		var (
			id                       int
			street, city, state, zip string
			tieGroup                 string
		)
		var p domain.Package
		err := rows.Scan(&id, &street, &city, &state, &zip,
			&p.Deadline, &p.Weight, &p.Note, &p.Availability, &p.TruckPin, &tieGroup)
		if err != nil {
			return nil, fmt.Errorf("list packages: scan row: %w", err)
		}

		pkg := domain.NewPackage(id, street, zip)
		pkg.City, pkg.State = city, state
		pkg.Deadline = p.Deadline
		pkg.Weight = p.Weight
		pkg.Note = p.Note
		pkg.Availability = p.Availability
		pkg.TruckPin = p.TruckPin
		if err := json.Unmarshal([]byte(tieGroup), &pkg.TieGroup); err != nil {
			return nil, fmt.Errorf("list packages: package %d tie_group: %w", id, err)
		}
		if len(pkg.TieGroup) == 0 {
			pkg.TieGroup = nil
		}

		packages = append(packages, pkg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list packages: row iteration: %w", err)
	}

	return packages, nil
}

// Record the committed plan's delivery times, replacing any earlier run.
func (s *SqlitePackageRepository) SaveDeliveries(ctx context.Context, plan domain.Plan) (err error) {
	defer obs.Time(ctx, "packages.SaveDeliveries")(&err)

	if s.DB == nil {
		return errors.New("sqlite package repository: DB is nil")
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save deliveries: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM deliveries;`); err != nil {
		return fmt.Errorf("save deliveries: clear previous run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO deliveries (package_id, truck_id, departure, delivered_at)
	VALUES (?, ?, ?, ?);
	`)
	if err != nil {
		return fmt.Errorf("save deliveries: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, seg := range plan {
		for _, id := range seg.PackageIDs() {
			at, ok := seg.Deliveries[id]
			if !ok {
				return fmt.Errorf("save deliveries: package %d has no delivery time", id)
			}
			if _, err := stmt.ExecContext(ctx, id, seg.Truck.TruckID, seg.StartTime, at); err != nil {
				return fmt.Errorf("save deliveries: insert package_id=%d: %w", id, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save deliveries: commit tx: %w", err)
	}
	return nil
}

// Delivery is one recorded row of the last committed plan.
type Delivery struct {
	PackageID   int
	TruckID     int
	Departure   float64
	DeliveredAt float64
}

// ListDeliveries returns the recorded deliveries ordered by package id.
func (s *SqlitePackageRepository) ListDeliveries(ctx context.Context) ([]Delivery, error) {
	if s.DB == nil {
		return nil, errors.New("sqlite package repository: DB is nil")
	}

	rows, err := s.DB.QueryContext(ctx, `
	SELECT package_id, truck_id, departure, delivered_at
	FROM deliveries
	ORDER BY package_id;
	`)
	if err != nil {
		return nil, fmt.Errorf("list deliveries: query deliveries table: %w", err)
	}
	defer rows.Close()

	out := make([]Delivery, 0, 64)
	for rows.Next() {
		var d Delivery
		if err := rows.Scan(&d.PackageID, &d.TruckID, &d.Departure, &d.DeliveredAt); err != nil {
			return nil, fmt.Errorf("list deliveries: scan row: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list deliveries: row iteration: %w", err)
	}
	return out, nil
}
