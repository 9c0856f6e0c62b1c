package config

import (
	"net/url"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tky-kevin/LazyTravelogue-sub000/internal/adapters/directions"
)

func newViper(values map[string]any) *viper.Viper {
	v := viper.New()
	setDefaults(v)
	for k, val := range values {
		v.Set(k, val)
	}
	return v
}

func TestFromViperDefaults(t *testing.T) {
	cfg, err := FromViper(newViper(nil))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, OracleEstimate, cfg.Oracle)
	assert.Equal(t, CacheNone, cfg.MatrixCache)
	assert.Equal(t, "heuristic", cfg.OptimizerStrategy)
	assert.InDelta(t, 0.1, cfg.OptimizerLookahead, 1e-9)
	assert.Equal(t, 10*time.Second, cfg.OracleTimeout)
	assert.Equal(t, 2*time.Hour, cfg.SessionIdleTTL)
	assert.Equal(t, 4, cfg.DirectionsConcurrency)
}

func TestFromViperRejectsInvalidCombinations(t *testing.T) {
	cases := map[string]map[string]any{
		"google without key":   {"ORACLE": "google"},
		"postgres without url": {"MATRIX_CACHE": "postgres"},
		"unknown oracle":       {"ORACLE": "osrm"},
		"unknown cache":        {"MATRIX_CACHE": "memcached"},
		"unknown strategy":     {"OPTIMIZER_STRATEGY": "annealing"},
		"negative lookahead":   {"OPTIMIZER_LOOKAHEAD": -1.0},
		"non-positive rps":     {"ORACLE_RPS": 0.0},
	}

	for name, values := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := FromViper(newViper(values))
			assert.Error(t, err)
		})
	}
}

func TestFromViperGoogleWithKey(t *testing.T) {
	cfg, err := FromViper(newViper(map[string]any{
		"ORACLE":              "GOOGLE",
		"GOOGLE_MAPS_API_KEY": " key ",
		"MATRIX_CACHE":        "redis",
	}))
	require.NoError(t, err)
	assert.Equal(t, OracleGoogle, cfg.Oracle)
	assert.Equal(t, "key", cfg.GoogleAPIKey)
	assert.Equal(t, CacheRedis, cfg.MatrixCache)
}

func TestDefaultGoogleBaseURLReachesMapsAPI(t *testing.T) {
	cfg, err := FromViper(newViper(map[string]any{
		"ORACLE":              "google",
		"GOOGLE_MAPS_API_KEY": "key",
	}))
	require.NoError(t, err)

	client, err := directions.NewGoogleClient(directions.GoogleOptions{
		APIKey:  cfg.GoogleAPIKey,
		BaseURL: cfg.GoogleBaseURL,
	}, nil)
	require.NoError(t, err)

	for path, want := range map[string]string{
		"/directions/json":     "/maps/api/directions/json",
		"/distancematrix/json": "/maps/api/distancematrix/json",
	} {
		u, err := url.Parse(client.Endpoint(path))
		require.NoError(t, err)
		assert.Equal(t, "https", u.Scheme)
		assert.Equal(t, "maps.googleapis.com", u.Host)
		assert.Equal(t, want, u.Path)
	}
	assert.Equal(t, directions.DefaultGoogleBaseURL, cfg.GoogleBaseURL)
}
