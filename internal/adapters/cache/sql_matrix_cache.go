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

// SQLMatrixCache is a Postgres-backed cache of pairwise route costs.
type SQLMatrixCache struct {
	DB  *sql.DB
	TTL time.Duration
	Log *zap.Logger

	now func() time.Time
}

func NewSQLMatrixCache(db *sql.DB, ttl time.Duration, log *zap.Logger) *SQLMatrixCache {
	return &SQLMatrixCache{DB: db, TTL: ttl, Log: log, now: time.Now}
}

// Fetch cached costs for one origin and multiple destinations.
func (s *SQLMatrixCache) GetMany(
	ctx context.Context,
	mode domain.TransportMode,
	origin domain.LatLng,
	destinations []domain.LatLng,
) (_ map[string]ports.PairCost, err error) {
	defer obs.Time(ctx, s.Log, "matrix.cache.GetMany")(&err)

	if s.DB == nil {
		return nil, errors.New("matrix cache: db is nil")
	}

	uniq := uniqueKeys(destinations)
	if len(uniq) == 0 {
		return map[string]ports.PairCost{}, nil
	}

	q := `
	SELECT destination, distance_meters, duration_seconds
	FROM route_matrix_cache
	WHERE mode = $1
		AND origin = $2
		AND destination = ANY($3::text[])
		AND updated_at >= $4;
	`

	rows, err := s.DB.QueryContext(ctx, q, string(mode), origin.Key(), uniq, freshSince(s.now(), s.TTL))
	if err != nil {
		return nil, fmt.Errorf("get matrix cache: query route_matrix_cache table: %w", err)
	}
	defer rows.Close()

	return scanPairCosts(rows, len(uniq))
}

// Store many cached costs for a single origin.
func (s *SQLMatrixCache) PutMany(
	ctx context.Context,
	mode domain.TransportMode,
	origin domain.LatLng,
	results map[string]ports.PairCost,
) (err error) {
	defer obs.Time(ctx, s.Log, "matrix.cache.PutMany")(&err)

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
	INSERT INTO route_matrix_cache (mode, origin, destination, distance_meters, duration_seconds, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (mode, origin, destination) DO UPDATE
	SET distance_meters = EXCLUDED.distance_meters,
		duration_seconds = EXCLUDED.duration_seconds,
		updated_at = EXCLUDED.updated_at;
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

func scanPairCosts(rows *sql.Rows, size int) (map[string]ports.PairCost, error) {
	out := make(map[string]ports.PairCost, size)
	for rows.Next() {
		var dest string
		var meters, seconds int
		if err := rows.Scan(&dest, &meters, &seconds); err != nil {
			return nil, fmt.Errorf("get matrix cache: scan rows: %w", err)
		}
		out[dest] = ports.PairCost{
			DistanceMeters:  meters,
			DurationSeconds: seconds,
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get matrix cache: row iteration: %w", err)
	}

	return out, nil
}
