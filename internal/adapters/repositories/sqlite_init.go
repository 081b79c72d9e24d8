package repositories

import (
	"context"
	"database/sql"
	"delivery-route-planner/internal/domain"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Initialize the SQLite database schema.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createAddressesQuery := `
	CREATE TABLE IF NOT EXISTS addresses (
		idx INTEGER PRIMARY KEY,
		address TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL DEFAULT ''
	);
	`

	// Lower triangle only: row_idx > col_idx.
	createDistancesQuery := `
	CREATE TABLE IF NOT EXISTS distances (
		row_idx INTEGER NOT NULL REFERENCES addresses(idx),
		col_idx INTEGER NOT NULL REFERENCES addresses(idx),
		miles REAL NOT NULL,
		PRIMARY KEY (row_idx, col_idx),
		CHECK (row_idx > col_idx)
	);
	`

	createPackagesQuery := `
	CREATE TABLE IF NOT EXISTS packages (
		package_id INTEGER PRIMARY KEY,
		street TEXT NOT NULL,
		city TEXT NOT NULL DEFAULT '',
		state TEXT NOT NULL DEFAULT '',
		zip TEXT NOT NULL DEFAULT '',
		deadline REAL NOT NULL,
		weight INTEGER NOT NULL DEFAULT 0,
		note TEXT NOT NULL DEFAULT '',
		availability REAL NOT NULL DEFAULT 0,
		truck_pin INTEGER NOT NULL DEFAULT 0,
		tie_group TEXT NOT NULL DEFAULT '[]'
	);
	`

	createDeliveriesQuery := `
	CREATE TABLE IF NOT EXISTS deliveries (
		package_id INTEGER PRIMARY KEY REFERENCES packages(package_id),
		truck_id INTEGER NOT NULL,
		departure REAL NOT NULL,
		delivered_at REAL NOT NULL,
		recorded_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	`

	createPathCacheQuery := `
	CREATE TABLE IF NOT EXISTS path_cache (
        fingerprint TEXT NOT NULL,
        origin TEXT NOT NULL,
        target TEXT NOT NULL,
        length REAL NOT NULL,
        path TEXT NOT NULL,
        PRIMARY KEY (fingerprint, origin, target)
    );
	`

	createGeocodeCacheQuery := `
	CREATE TABLE IF NOT EXISTS geocode_cache (
        address TEXT PRIMARY KEY,
        lon REAL NOT NULL,
        lat REAL NOT NULL
    );
	`

	statements := []string{
		createAddressesQuery,
		createDistancesQuery,
		createPackagesQuery,
		createDeliveriesQuery,
		createPathCacheQuery,
		createGeocodeCacheQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

type AddressSeed struct {
	Name   string `json:"name"`
	Street string `json:"street"`
	Zip    string `json:"zip"`
}

type PackageSeed struct {
	PackageID int    `json:"package_id"`
	Street    string `json:"street"`
	City      string `json:"city"`
	State     string `json:"state"`
	Zip       string `json:"zip"`
	Deadline  string `json:"deadline"`
	Weight    int    `json:"weight"`
	Note      string `json:"note"`
}

// Universe is the seed document: the address list (depot first), the
// lower-triangular direct distance matrix aligned with it, and the packages.
type Universe struct {
	Addresses []AddressSeed `json:"addresses"`
	Distances [][]float64   `json:"distances"`
	Packages  []PackageSeed `json:"packages"`
}

// AddressKeys returns the distance table keys in seed order.
func (u Universe) AddressKeys() []string {
	out := make([]string, 0, len(u.Addresses))
	for _, a := range u.Addresses {
		out = append(out, domain.ComposeAddress(strings.TrimSpace(a.Street), strings.TrimSpace(a.Zip)))
	}
	return out
}

// LoadUniverse reads and validates a seed document.
func LoadUniverse(jsonPath string) (Universe, error) {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return Universe{}, fmt.Errorf("load universe: read %q: %w", jsonPath, err)
	}

	var u Universe
	if err := json.Unmarshal(bytes, &u); err != nil {
		return Universe{}, fmt.Errorf("load universe: parse json: %w", err)
	}

	if err := u.validate(); err != nil {
		return Universe{}, fmt.Errorf("load universe %q: %w", jsonPath, err)
	}
	return u, nil
}

func (u Universe) validate() error {
	if len(u.Addresses) == 0 {
		return errors.New("no addresses")
	}
	if len(u.Distances) != len(u.Addresses) {
		return fmt.Errorf("distance matrix has %d rows for %d addresses", len(u.Distances), len(u.Addresses))
	}

	known := make(map[string]struct{}, len(u.Addresses))
	for i, key := range u.AddressKeys() {
		if u.Addresses[i].Street == "" {
			return fmt.Errorf("address at index %d: street cannot be empty", i)
		}
		if _, dup := known[key]; dup {
			return fmt.Errorf("address at index %d: duplicate %q", i, key)
		}
		known[key] = struct{}{}

		if len(u.Distances[i]) < i {
			return fmt.Errorf("distance row %d has %d columns, want %d", i, len(u.Distances[i]), i)
		}
	}

	ids := make(map[int]struct{}, len(u.Packages))
	for i, p := range u.Packages {
		if p.PackageID <= 0 {
			return fmt.Errorf("invalid package_id at index %d: %d", i, p.PackageID)
		}
		if _, dup := ids[p.PackageID]; dup {
			return fmt.Errorf("package %d: %w", p.PackageID, domain.ErrDuplicatePackage)
		}
		ids[p.PackageID] = struct{}{}

		if strings.TrimSpace(p.Street) == "" {
			return fmt.Errorf("package %d: street cannot be empty", p.PackageID)
		}
		key := domain.ComposeAddress(strings.TrimSpace(p.Street), strings.TrimSpace(p.Zip))
		if _, ok := known[key]; !ok {
			return fmt.Errorf("package %d address %q: %w", p.PackageID, key, domain.ErrUnknownAddress)
		}
		if _, err := parseDeadline(p.Deadline); err != nil {
			return fmt.Errorf("package %d: %w", p.PackageID, err)
		}
	}
	return nil
}

func parseDeadline(s string) (float64, error) {
	if strings.TrimSpace(s) == "" {
		return domain.EndOfDay, nil
	}
	return domain.ParseClock(s)
}

// Populate the database with the address universe and packages from a JSON
// file. Seeding is idempotent.
func SeedFromJSON(ctx context.Context, db *sql.DB, jsonPath string) error {
	u, err := LoadUniverse(jsonPath)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	return Seed(ctx, db, u)
}

// Seed writes a validated universe in one transaction.
func Seed(ctx context.Context, db *sql.DB, u Universe) error {
	if db == nil {
		return errors.New("seed: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	addrStmt, err := tx.PrepareContext(ctx, `
	INSERT OR REPLACE INTO addresses (idx, address, name)
	VALUES (?, ?, ?);
	`)
	if err != nil {
		return fmt.Errorf("seed addresses: prepare insert: %w", err)
	}
	defer addrStmt.Close()

	for i, key := range u.AddressKeys() {
		if _, err := addrStmt.ExecContext(ctx, i, key, u.Addresses[i].Name); err != nil {
			return fmt.Errorf("seed addresses: insert idx=%d: %w", i, err)
		}
	}

	distStmt, err := tx.PrepareContext(ctx, `
	INSERT OR REPLACE INTO distances (row_idx, col_idx, miles)
	VALUES (?, ?, ?);
	`)
	if err != nil {
		return fmt.Errorf("seed distances: prepare insert: %w", err)
	}
	defer distStmt.Close()

	for i, row := range u.Distances {
		for j := 0; j < i; j++ {
			if _, err := distStmt.ExecContext(ctx, i, j, row[j]); err != nil {
				return fmt.Errorf("seed distances: insert %d,%d: %w", i, j, err)
			}
		}
	}

	pkgStmt, err := tx.PrepareContext(ctx, `
	INSERT OR REPLACE INTO packages (
		package_id,
		street,
		city,
		state,
		zip,
		deadline,
		weight,
		note
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?);
	`)
	if err != nil {
		return fmt.Errorf("seed packages: prepare insert: %w", err)
	}
	defer pkgStmt.Close()

	for _, p := range u.Packages {
		deadline, _ := parseDeadline(p.Deadline)
		if _, err := pkgStmt.ExecContext(ctx,
			p.PackageID,
			strings.TrimSpace(p.Street),
			strings.TrimSpace(p.City),
			strings.TrimSpace(p.State),
			strings.TrimSpace(p.Zip),
			deadline,
			p.Weight,
			strings.TrimSpace(p.Note),
		); err != nil {
			return fmt.Errorf("seed packages: insert package_id=%d: %w", p.PackageID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed: commit tx: %w", err)
	}

	return nil
}
