package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Oracle backends.
const (
	OracleEstimate = "estimate"
	OracleGoogle   = "google"
)

// Matrix cache backends.
const (
	CacheNone     = "none"
	CachePostgres = "postgres"
	CacheSqlite   = "sqlite"
	CacheRedis    = "redis"
)

type Config struct {
	Port     string
	LogLevel string
	DevLog   bool

	Oracle        string
	GoogleAPIKey  string
	GoogleBaseURL string
	OracleRPS     float64
	OracleTimeout time.Duration

	MatrixCache    string
	DatabaseURL    string
	SqlitePath     string
	RedisAddr      string
	MatrixCacheTTL time.Duration

	OptimizerStrategy     string
	OptimizerLookahead    float64
	DirectionsConcurrency int
	SessionIdleTTL        time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_DEV", false)
	v.SetDefault("ORACLE", OracleEstimate)
	v.SetDefault("GOOGLE_MAPS_BASE_URL", "https://maps.googleapis.com/maps/api")
	v.SetDefault("ORACLE_RPS", 10.0)
	v.SetDefault("ORACLE_TIMEOUT", "10s")
	v.SetDefault("MATRIX_CACHE", CacheNone)
	v.SetDefault("SQLITE_PATH", "data/app.db")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("MATRIX_CACHE_TTL", "24h")
	v.SetDefault("OPTIMIZER_STRATEGY", "heuristic")
	v.SetDefault("OPTIMIZER_LOOKAHEAD", 0.1)
	v.SetDefault("DIRECTIONS_CONCURRENCY", 4)
	v.SetDefault("SESSION_IDLE_TTL", "2h")
}

// Load reads .env (when present) and the process environment.
// The returned bool reports whether a .env file was found.
func Load() (*Config, bool, error) {
	foundEnv := godotenv.Load() == nil

	viper.AutomaticEnv()
	setDefaults(viper.GetViper())

	cfg, err := FromViper(viper.GetViper())
	if err != nil {
		return nil, foundEnv, err
	}
	return cfg, foundEnv, nil
}

// FromViper builds and validates a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port:                  v.GetString("PORT"),
		LogLevel:              v.GetString("LOG_LEVEL"),
		DevLog:                v.GetBool("LOG_DEV"),
		Oracle:                strings.ToLower(v.GetString("ORACLE")),
		GoogleAPIKey:          strings.TrimSpace(v.GetString("GOOGLE_MAPS_API_KEY")),
		GoogleBaseURL:         v.GetString("GOOGLE_MAPS_BASE_URL"),
		OracleRPS:             v.GetFloat64("ORACLE_RPS"),
		OracleTimeout:         v.GetDuration("ORACLE_TIMEOUT"),
		MatrixCache:           strings.ToLower(v.GetString("MATRIX_CACHE")),
		DatabaseURL:           v.GetString("DATABASE_URL"),
		SqlitePath:            v.GetString("SQLITE_PATH"),
		RedisAddr:             v.GetString("REDIS_ADDR"),
		MatrixCacheTTL:        v.GetDuration("MATRIX_CACHE_TTL"),
		OptimizerStrategy:     strings.ToLower(v.GetString("OPTIMIZER_STRATEGY")),
		OptimizerLookahead:    v.GetFloat64("OPTIMIZER_LOOKAHEAD"),
		DirectionsConcurrency: v.GetInt("DIRECTIONS_CONCURRENCY"),
		SessionIdleTTL:        v.GetDuration("SESSION_IDLE_TTL"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Oracle {
	case OracleEstimate:
	case OracleGoogle:
		if c.GoogleAPIKey == "" {
			return errors.New("GOOGLE_MAPS_API_KEY is required when ORACLE=google")
		}
	default:
		return fmt.Errorf("unknown ORACLE %q", c.Oracle)
	}

	switch c.MatrixCache {
	case CacheNone, CacheSqlite, CacheRedis:
	case CachePostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return errors.New("DATABASE_URL is required when MATRIX_CACHE=postgres")
		}
	default:
		return fmt.Errorf("unknown MATRIX_CACHE %q", c.MatrixCache)
	}

	switch c.OptimizerStrategy {
	case "heuristic", "exact":
	default:
		return fmt.Errorf("unknown OPTIMIZER_STRATEGY %q", c.OptimizerStrategy)
	}

	if c.OptimizerLookahead < 0 {
		return fmt.Errorf("OPTIMIZER_LOOKAHEAD must be >= 0, got %v", c.OptimizerLookahead)
	}
	if c.DirectionsConcurrency < 1 {
		c.DirectionsConcurrency = 1
	}
	if c.OracleRPS <= 0 {
		return fmt.Errorf("ORACLE_RPS must be > 0, got %v", c.OracleRPS)
	}

	return nil
}
