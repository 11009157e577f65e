package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"PORT":                     "",
		"REDIS_URL":                "",
		"ANALYTICS_CACHE_TTL":      "",
		"ANALYTICS_MAX_BODY_BYTES": "",
		"ANALYTICS_RATE_LIMIT":     "",
		"OBS_ENABLE_PROMETHEUS":    "",
		"OBS_ENABLE_TRACING":       "",
		"CORS_ALLOWED_ORIGINS":     "",
		"CACHE_BREAKER_OPEN_FOR":   "",
		"SECURITY_HEADERS_ENABLED": "",
	})
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Empty(t, cfg.RedisURL)
	require.Equal(t, 5*time.Minute, cfg.ReportCacheTTL)
	require.Equal(t, int64(10<<20), cfg.MaxBodyBytes)
	require.Equal(t, 60, cfg.RateLimit)
	require.True(t, cfg.MetricsEnabled)
	require.False(t, cfg.TracingEnabled)
	require.Equal(t, []string{"*"}, cfg.AllowedOrigins())
	require.Equal(t, 30*time.Second, cfg.CacheBreakerOpenFor)
	require.True(t, cfg.SecurityHeaders)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"PORT":                     ":9090",
		"REDIS_URL":                "redis://localhost:6379/0",
		"ANALYTICS_CACHE_TTL":      "30s",
		"ANALYTICS_MAX_BODY_BYTES": "2048",
		"ANALYTICS_RATE_LIMIT":     "5",
		"ANALYTICS_RATE_WINDOW":    "10s",
		"OBS_ENABLE_PROMETHEUS":    "off",
		"CORS_ALLOWED_ORIGINS":     "https://a.example, ,https://b.example",
	})
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTPAddr())
	require.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	require.Equal(t, 30*time.Second, cfg.ReportCacheTTL)
	require.Equal(t, int64(2048), cfg.MaxBodyBytes)
	require.Equal(t, 5, cfg.RateLimit)
	require.Equal(t, 10*time.Second, cfg.RateLimitWindow)
	require.False(t, cfg.MetricsEnabled)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins())
}

func TestLoadRejectsInvalidBodyLimit(t *testing.T) {
	_, err := LoadForTests(map[string]string{"ANALYTICS_MAX_BODY_BYTES": "-1"})
	require.Error(t, err)
}

func TestLoadRejectsInvalidBreakerRatio(t *testing.T) {
	_, err := LoadForTests(map[string]string{"CACHE_BREAKER_FAILURE_RATIO": "1.5"})
	require.Error(t, err)
}

func TestInvalidDurationFallsBack(t *testing.T) {
	require.Equal(t, time.Minute, parseDuration("soon", "1m"))
}
