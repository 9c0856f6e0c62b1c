package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tky-kevin/LazyTravelogue-sub000/internal/domain"
	"github.com/tky-kevin/LazyTravelogue-sub000/internal/platform/obs"
	"github.com/tky-kevin/LazyTravelogue-sub000/internal/ports"
)

// SQLite backed cache of pairwise route costs.
type SqliteMatrixCache struct {
	DB  *sql.DB
	TTL time.Duration
	Log *zap.Logger

	now func() time.Time
}

func NewSqliteMatrixCache(db *sql.DB, ttl time.Duration, log *zap.Logger) *SqliteMatrixCache {
	return &SqliteMatrixCache{DB: db, TTL: ttl, Log: log, now: time.Now}
}

// Fetch cached costs for one origin and multiple destinations.
func (s *SqliteMatrixCache) GetMany(
	ctx context.Context,
	mode domain.TransportMode,
	origin domain.LatLng,
	destinations []domain.LatLng,
) (_ map[string]ports.PairCost, err error) {
	defer obs.Time(ctx, s.Log, "matrix.cache.sqlite.GetMany")(&err)

	if s.DB == nil {
		return nil, errors.New("matrix cache: db is nil")
	}

	uniq := uniqueKeys(destinations)
	if len(uniq) == 0 {
		return map[string]ports.PairCost{}, nil
	}

	ph := make([]string, len(uniq))
	args := make([]any, 0, 3+len(uniq))
	args = append(args, string(mode), origin.Key(), freshSince(s.now(), s.TTL))
	for i, d := range uniq {
		ph[i] = "?"
		args = append(args, d)
	}

	// SQLite does not support binding slices directly in an IN (...) clause.
	// Only the placeholder structure is interpolated; all values remain parameterized.
	q := fmt.Sprintf(`
	SELECT
		destination,
		distance_meters,
		duration_seconds
	FROM route_matrix_cache
	WHERE mode = ?
		AND origin = ?
		AND updated_at >= ?
		AND destination IN (%s);
	`, strings.Join(ph, ","))

	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("get matrix cache: query route_matrix_cache table: %w", err)
	}
	defer rows.Close()

	return scanPairCosts(rows, len(uniq))
}

// Store many cached costs for a single origin.
func (s *SqliteMatrixCache) PutMany(
	ctx context.Context,
	mode domain.TransportMode,
	origin domain.LatLng,
	results map[string]ports.PairCost,
) (err error) {
	defer obs.Time(ctx, s.Log, "matrix.cache.sqlite.PutMany")(&err)

	if s.DB == nil {
		return errors.New("matrix cache: db is nil")
	}

	if len(results) == 0 {
		return nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert matrix cache: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT OR REPLACE INTO route_matrix_cache (
		mode,
		origin,
		destination,
		distance_meters,
		duration_seconds,
		updated_at
	)
	VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("insert matrix cache: db prepare: %w", err)
	}
	defer stmt.Close()

	now := s.now().Unix()
	for dest, r := range results {
		if strings.TrimSpace(dest) == "" {
			return fmt.Errorf("insert matrix cache: empty destination key")
		}

		if _, err := stmt.ExecContext(ctx, string(mode), origin.Key(), dest, r.DistanceMeters, r.DurationSeconds, now); err != nil {
			return fmt.Errorf("insert matrix cache dest=%q: %w", dest, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert matrix cache commit: %w", err)
	}

	return nil
}
