package cache

import (
	"context"
	"database/sql"
	"delivery-route-planner/internal/platform/obs"
	"delivery-route-planner/internal/ports"
	"errors"
	"fmt"
	"strings"
)

// SQLPathCache is the Postgres flavour of the pruned path store, shared by
// every planner instance pointed at the same database.
type SQLPathCache struct {
	DB *sql.DB
}

func NewSQLPathCache(db *sql.DB) *SQLPathCache {
	return &SQLPathCache{DB: db}
}

// InitSchema creates the path_cache table if it does not exist yet.
func (s *SQLPathCache) InitSchema(ctx context.Context) error {
	if s.DB == nil {
		return errors.New("path cache: db is nil")
	}

	q := `
	CREATE TABLE IF NOT EXISTS path_cache (
        fingerprint TEXT NOT NULL,
        origin TEXT NOT NULL,
        target TEXT NOT NULL,
        length DOUBLE PRECISION NOT NULL,
        path TEXT NOT NULL,
        PRIMARY KEY (fingerprint, origin, target)
    );
	`
	if _, err := s.DB.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("init path cache schema: %w", err)
	}
	return nil
}

// Fetch every cached pair for a fingerprint.
func (s *SQLPathCache) GetMany(ctx context.Context, fingerprint string) (_ []ports.PathEntry, err error) {
	defer obs.Time(ctx, "path.cache.GetMany")(&err)

	if s.DB == nil {
		return nil, errors.New("path cache: db is nil")
	}

	if strings.TrimSpace(fingerprint) == "" {
		return nil, errors.New("get path cache: fingerprint must not be empty")
	}

	q := `
	SELECT origin, target, length, path
    FROM path_cache
    WHERE fingerprint = $1
    ORDER BY origin, target;
	`

	rows, err := s.DB.QueryContext(ctx, q, fingerprint)
	if err != nil {
		return nil, fmt.Errorf("get path cache: query path_cache table: %w", err)
	}
	defer rows.Close()

	return scanPathEntries(rows)
}

// Store pruned pairs for a fingerprint.
func (s *SQLPathCache) PutMany(ctx context.Context, fingerprint string, entries []ports.PathEntry) (err error) {
	defer obs.Time(ctx, "path.cache.PutMany")(&err)

	if s.DB == nil {
		return errors.New("path cache: db is nil")
	}

	if strings.TrimSpace(fingerprint) == "" {
		return errors.New("insert path cache: fingerprint must not be empty")
	}

	if len(entries) == 0 {
		return nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert path cache: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO path_cache (fingerprint, origin, target, length, path)
    VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (fingerprint, origin, target) DO UPDATE
	SET length = EXCLUDED.length,
		path = EXCLUDED.path;
	`)
	if err != nil {
		return fmt.Errorf("insert path cache: db prepare: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		path, err := encodePath(e)
		if err != nil {
			return fmt.Errorf("insert path cache: %w", err)
		}

		if _, err := stmt.ExecContext(ctx, fingerprint, e.Origin, e.Target, e.Length, path); err != nil {
			return fmt.Errorf("insert path cache pair=%q->%q: %w", e.Origin, e.Target, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert path cache commit: %w", err)
	}

	return nil
}

// DropStale removes cached pairs of every fingerprint except keep.
func (s *SQLPathCache) DropStale(ctx context.Context, keep string) (int64, error) {
	if s.DB == nil {
		return 0, errors.New("path cache: db is nil")
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM path_cache WHERE fingerprint <> $1;`, keep)
	if err != nil {
		return 0, fmt.Errorf("drop stale path cache: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("drop stale path cache: rows affected: %w", err)
	}
	return n, nil
}
