package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	RedisURL           string
	CORSAllowedOrigins []string

	ReportCacheTTL  time.Duration
	MaxBodyBytes    int64
	RateLimit       int
	RateLimitWindow time.Duration

	CacheBreakerMinRequests  int
	CacheBreakerFailureRatio float64
	CacheBreakerOpenFor      time.Duration

	SecurityHeaders bool
	EnableHSTS      bool

	LogFormat         string
	LogLevel          string
	MetricsNamespace  string
	MetricsEnabled    bool
	MetricsBucketsMs  string
	TracingEnabled    bool
	TracingExporter   string
	OTLPEndpoint      string
	TracingSampleRate float64
}

// Load reads configuration from environment variables and an optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		RedisURL:           strings.TrimSpace(k.String("REDIS_URL")),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		ReportCacheTTL:     parseDuration(k.String("ANALYTICS_CACHE_TTL"), "5m"),
		MaxBodyBytes:       parseInt64(k.String("ANALYTICS_MAX_BODY_BYTES"), 10<<20),
		RateLimit:          int(parseInt64(k.String("ANALYTICS_RATE_LIMIT"), 60)),
		RateLimitWindow:    parseDuration(k.String("ANALYTICS_RATE_WINDOW"), "1m"),

		CacheBreakerMinRequests:  int(parseInt64(k.String("CACHE_BREAKER_MIN_REQUESTS"), 5)),
		CacheBreakerFailureRatio: parseFloat(k.String("CACHE_BREAKER_FAILURE_RATIO"), 0.5),
		CacheBreakerOpenFor:      parseDuration(k.String("CACHE_BREAKER_OPEN_FOR"), "30s"),

		SecurityHeaders:    parseBool(k.String("SECURITY_HEADERS_ENABLED"), true),
		EnableHSTS:         parseBool(k.String("SECURITY_ENABLE_HSTS"), false),
		LogFormat:          valueOrDefault(k.String("OBS_LOG_FORMAT"), "json"),
		LogLevel:           valueOrDefault(k.String("OBS_LOG_LEVEL"), "info"),
		MetricsNamespace:   valueOrDefault(k.String("OBS_METRICS_NAMESPACE"), "sellers"),
		MetricsEnabled:     parseBool(k.String("OBS_ENABLE_PROMETHEUS"), true),
		MetricsBucketsMs:   k.String("OBS_METRICS_BUCKETS_MS"),
		TracingEnabled:     parseBool(k.String("OBS_ENABLE_TRACING"), false),
		TracingExporter:    valueOrDefault(k.String("OBS_TRACING_EXPORTER"), "otlp"),
		OTLPEndpoint:       strings.TrimSpace(k.String("OBS_OTLP_ENDPOINT")),
		TracingSampleRate:  parseFloat(k.String("OBS_TRACING_SAMPLING_RATIO"), 1.0),
	}

	if cfg.MaxBodyBytes <= 0 {
		return nil, fmt.Errorf("ANALYTICS_MAX_BODY_BYTES must be positive, got %d", cfg.MaxBodyBytes)
	}
	if cfg.CacheBreakerFailureRatio <= 0 || cfg.CacheBreakerFailureRatio > 1 {
		return nil, fmt.Errorf("CACHE_BREAKER_FAILURE_RATIO must be in (0, 1], got %v", cfg.CacheBreakerFailureRatio)
	}
	if cfg.RateLimit < 0 {
		return nil, fmt.Errorf("ANALYTICS_RATE_LIMIT must not be negative, got %d", cfg.RateLimit)
	}
	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// AllowedOrigins returns the configured CORS origins, or a wildcard when none are set.
func (c *Config) AllowedOrigins() []string {
	if len(c.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return c.CORSAllowedOrigins
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseBool(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func parseInt64(value string, fallback int64) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return fallback
	}
	return v
}

func parseFloat(value string, fallback float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return v
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]*string, len(env))
	for key, value := range env {
		if prev, ok := os.LookupEnv(key); ok {
			original[key] = &prev
		} else {
			original[key] = nil
		}
		if err := setEnvVar(key, value); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]*string) error {
	var errs []string
	for key, value := range values {
		var err error
		if value == nil {
			err = os.Unsetenv(key)
		} else {
			err = os.Setenv(key, *value)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
