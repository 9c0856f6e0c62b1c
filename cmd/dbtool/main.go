package main

import (
	"context"
	"database/sql"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/tky-kevin/LazyTravelogue-sub000/internal/adapters/cache"
	"github.com/tky-kevin/LazyTravelogue-sub000/internal/config"
	"github.com/tky-kevin/LazyTravelogue-sub000/internal/platform/db"
	"github.com/tky-kevin/LazyTravelogue-sub000/internal/platform/logging"
)

// dbtool creates the route matrix cache schema for the configured SQL backend.
func main() {
	cfg, _, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.DevLog)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	var conn *sql.DB
	switch cfg.MatrixCache {
	case config.CachePostgres:
		conn, err = db.Open(cfg.DatabaseURL)
	case config.CacheSqlite:
		conn, err = db.OpenSqlite(cfg.SqlitePath)
	default:
		logger.Fatal("MATRIX_CACHE must be postgres or sqlite", zap.String("matrix_cache", cfg.MatrixCache))
	}
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger.Info("initializing database schema", zap.String("backend", cfg.MatrixCache))
	if err := cache.InitSchema(ctx, conn); err != nil {
		logger.Fatal("schema initialization failed", zap.Error(err))
	}
	logger.Info("schema ready")
}
