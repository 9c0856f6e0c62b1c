package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/tky-kevin/LazyTravelogue-sub000/internal/adapters/cache"
	"github.com/tky-kevin/LazyTravelogue-sub000/internal/adapters/directions"
	"github.com/tky-kevin/LazyTravelogue-sub000/internal/api"
	"github.com/tky-kevin/LazyTravelogue-sub000/internal/config"
	"github.com/tky-kevin/LazyTravelogue-sub000/internal/platform/db"
	"github.com/tky-kevin/LazyTravelogue-sub000/internal/platform/logging"
	"github.com/tky-kevin/LazyTravelogue-sub000/internal/ports"
	"github.com/tky-kevin/LazyTravelogue-sub000/internal/services"
)

const sessionSweepInterval = 5 * time.Minute

// main is the application composition root.
// It wires concrete adapters (Google or estimate oracle, matrix cache) behind
// ports and starts the HTTP server.
func main() {
	cfg, foundEnv, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.DevLog)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	if !foundEnv {
		logger.Info("no .env file found, using environment variables")
	}

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	routes, matrix, err := buildOracles(cfg, logger)
	if err != nil {
		return err
	}

	matrixCache, closeCache, err := buildMatrixCache(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeCache()
	if matrixCache != nil {
		matrix = directions.NewCachingMatrixOracle(matrix, matrixCache, logger)
	}

	strategy, err := services.NewTourStrategy(cfg.OptimizerStrategy, cfg.OptimizerLookahead)
	if err != nil {
		return fmt.Errorf("build optimizer: %w", err)
	}

	sessions := services.NewSessionRegistry(routes, cfg.SessionIdleTTL, logger)
	go sessions.Run(ctx, sessionSweepInterval)

	planner := services.NewPlanner(
		services.NewRouteOptimizer(matrix, strategy, logger),
		services.NewDirectionsService(cfg.DirectionsConcurrency, logger),
		sessions,
		logger,
	)

	router, err := api.NewRouter(planner, logger)
	if err != nil {
		return err
	}

	// Timeouts are tuned for cold-cache optimization (external API latency).
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("oracle", cfg.Oracle),
			zap.String("matrix_cache", cfg.MatrixCache),
			zap.String("strategy", cfg.OptimizerStrategy),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// buildOracles returns the route and matrix oracles for the configured backend.
func buildOracles(cfg *config.Config, logger *zap.Logger) (ports.RouteCostOracle, ports.BatchCostOracle, error) {
	switch cfg.Oracle {
	case config.OracleGoogle:
		client, err := directions.NewGoogleClient(directions.GoogleOptions{
			APIKey:  cfg.GoogleAPIKey,
			BaseURL: cfg.GoogleBaseURL,
			RPS:     cfg.OracleRPS,
			Timeout: cfg.OracleTimeout,
		}, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("build oracle: %w", err)
		}
		return directions.NewGoogleDirections(client), directions.NewGoogleMatrix(client), nil
	default:
		est := directions.NewEstimatingOracle()
		return est, est, nil
	}
}

// buildMatrixCache opens the configured matrix cache. A nil cache means
// matrix queries go straight to the oracle.
func buildMatrixCache(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ports.MatrixCache, func(), error) {
	noop := func() {}

	switch cfg.MatrixCache {
	case config.CachePostgres:
		conn, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, noop, err
		}
		if err := cache.InitSchema(ctx, conn); err != nil {
			_ = conn.Close()
			return nil, noop, err
		}
		return cache.NewSQLMatrixCache(conn, cfg.MatrixCacheTTL, logger), func() { _ = conn.Close() }, nil

	case config.CacheSqlite:
		conn, err := db.OpenSqlite(cfg.SqlitePath)
		if err != nil {
			return nil, noop, err
		}
		if err := cache.InitSchema(ctx, conn); err != nil {
			_ = conn.Close()
			return nil, noop, err
		}
		return cache.NewSqliteMatrixCache(conn, cfg.MatrixCacheTTL, logger), func() { _ = conn.Close() }, nil

	case config.CacheRedis:
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, noop, fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
		}
		return cache.NewRedisMatrixCache(rdb, cfg.MatrixCacheTTL, logger), func() { _ = rdb.Close() }, nil

	default:
		return nil, noop, nil
	}
}
