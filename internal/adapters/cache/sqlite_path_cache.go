package cache

import (
	"context"
	"database/sql"
	"delivery-route-planner/internal/platform/obs"
	"delivery-route-planner/internal/ports"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// SQLite backed store of pruned shortest paths. Rows are grouped by the
// distance table fingerprint, so a changed matrix never reads stale paths.
type SqlitePathCache struct {
	DB *sql.DB
}

func NewSqlitePathCache(db *sql.DB) *SqlitePathCache {
	return &SqlitePathCache{DB: db}
}

// Fetch every cached pair for a fingerprint.
func (s *SqlitePathCache) GetMany(ctx context.Context, fingerprint string) (_ []ports.PathEntry, err error) {
	defer obs.Time(ctx, "path.cache.GetMany")(&err)

	if s.DB == nil {
		return nil, errors.New("path cache: db is nil")
	}

	if strings.TrimSpace(fingerprint) == "" {
		return nil, errors.New("get path cache: fingerprint must not be empty")
	}

	q := `
	SELECT
        origin,
        target,
        length,
        path
    FROM path_cache
    WHERE fingerprint = ?
    ORDER BY origin, target;
	`

	rows, err := s.DB.QueryContext(ctx, q, fingerprint)
	if err != nil {
		return nil, fmt.Errorf("get path cache: query path_cache table: %w", err)
	}
	defer rows.Close()

	return scanPathEntries(rows)
}

// Store pruned pairs for a fingerprint, replacing earlier rows.
func (s *SqlitePathCache) PutMany(ctx context.Context, fingerprint string, entries []ports.PathEntry) (err error) {
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
	INSERT OR REPLACE INTO path_cache (
        fingerprint,
        origin,
        target,
        length,
        path
    )
    VALUES (?, ?, ?, ?, ?);
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

func encodePath(e ports.PathEntry) (string, error) {
	if strings.TrimSpace(e.Origin) == "" || strings.TrimSpace(e.Target) == "" {
		return "", errors.New("empty origin or target")
	}
	b, err := json.Marshal(e.Path)
	if err != nil {
		return "", fmt.Errorf("encode path %q->%q: %w", e.Origin, e.Target, err)
	}
	return string(b), nil
}

func scanPathEntries(rows *sql.Rows) ([]ports.PathEntry, error) {
	out := make([]ports.PathEntry, 0, 64)
	for rows.Next() {
		var e ports.PathEntry
		var path string
		if err := rows.Scan(&e.Origin, &e.Target, &e.Length, &path); err != nil {
			return nil, fmt.Errorf("get path cache: scan rows: %w", err)
		}
		if err := json.Unmarshal([]byte(path), &e.Path); err != nil {
			return nil, fmt.Errorf("get path cache: decode path %q->%q: %w", e.Origin, e.Target, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get path cache: row iteration: %w", err)
	}
	return out, nil
}
