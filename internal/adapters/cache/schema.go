package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tky-kevin/LazyTravelogue-sub000/internal/domain"
)

// InitSchema creates the route_matrix_cache table. The statements are valid
// for both Postgres and SQLite.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createMatrixCacheQuery := `
	CREATE TABLE IF NOT EXISTS route_matrix_cache (
		mode TEXT NOT NULL,
		origin TEXT NOT NULL,
		destination TEXT NOT NULL,
		distance_meters INTEGER NOT NULL,
		duration_seconds INTEGER NOT NULL,
		updated_at BIGINT NOT NULL,
		PRIMARY KEY (mode, origin, destination)
	);
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_route_matrix_cache_updated_at
	ON route_matrix_cache(updated_at);
	`

	statements := []string{
		createMatrixCacheQuery,
		createIndexQuery,
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

// uniqueKeys returns the distinct destination keys in input order.
func uniqueKeys(destinations []domain.LatLng) []string {
	seen := make(map[string]struct{}, len(destinations))
	out := make([]string, 0, len(destinations))
	for _, d := range destinations {
		k := d.Key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

// freshSince is the oldest updated_at still served for ttl; zero ttl never expires.
func freshSince(now time.Time, ttl time.Duration) int64 {
	if ttl <= 0 {
		return 0
	}
	return now.Add(-ttl).Unix()
}
