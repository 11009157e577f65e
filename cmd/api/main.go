package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/noah-isme/seller-analytics/internal/analytics"
	"github.com/noah-isme/seller-analytics/internal/config"
	"github.com/noah-isme/seller-analytics/internal/health"
	"github.com/noah-isme/seller-analytics/internal/obs"
	"github.com/noah-isme/seller-analytics/internal/ratelimit"
	"github.com/noah-isme/seller-analytics/internal/resilience"
	"github.com/noah-isme/seller-analytics/internal/security"
)

const serviceName = "seller-analytics"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("env", cfg.AppEnv).Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.TracingEnabled {
		shutdown, err := obs.InitTracer(ctx, obs.TracingConfig{
			ServiceName:   serviceName,
			Endpoint:      cfg.OTLPEndpoint,
			Exporter:      cfg.TracingExporter,
			SamplingRatio: cfg.TracingSampleRate,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			cfg.TracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	redisClient, err := connectRedis(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect redis")
	}
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Error().Err(err).Msg("close redis")
			}
		}()
	}

	var (
		reportMetrics  *obs.ReportMetrics
		httpMetrics    *obs.HTTPMetrics
		breakerMetrics *resilience.Metrics
	)
	if cfg.MetricsEnabled {
		reportMetrics = obs.NewReportMetrics(cfg.MetricsNamespace, prometheus.DefaultRegisterer)
		httpMetrics = obs.NewHTTPMetrics(cfg.MetricsNamespace, obs.ParseBucketsCSV(cfg.MetricsBucketsMs), prometheus.DefaultRegisterer)
		breakerMetrics = resilience.NewMetrics(cfg.MetricsNamespace, prometheus.DefaultRegisterer)
	}

	var (
		cache   analytics.Cache
		limiter ratelimit.Limiter
	)
	if redisClient != nil {
		cacheBreaker := resilience.NewBreaker(cfg.CacheBreakerMinRequests, cfg.CacheBreakerFailureRatio, cfg.CacheBreakerOpenFor,
			resilience.WithTarget("report_cache"),
			resilience.WithLogger(logger.With().Str("component", "breaker").Logger()),
			resilience.WithMetrics(breakerMetrics),
		)
		cache = analytics.GuardedCache{Next: analytics.NewRedisCache(redisClient, cfg.ReportCacheTTL), Breaker: cacheBreaker}
		rl, err := ratelimit.NewRedisLimiter(redisClient, "ratelimit:sellers")
		if err != nil {
			logger.Fatal().Err(err).Msg("initialise rate limiter")
		}
		limiterBreaker := resilience.NewBreaker(cfg.CacheBreakerMinRequests, cfg.CacheBreakerFailureRatio, cfg.CacheBreakerOpenFor,
			resilience.WithTarget("rate_limiter"),
			resilience.WithLogger(logger.With().Str("component", "breaker").Logger()),
			resilience.WithMetrics(breakerMetrics),
		)
		limiter = ratelimit.GuardedLimiter{Next: rl, Breaker: limiterBreaker}
	} else {
		logger.Info().Msg("REDIS_URL not set, using in-process report cache")
		cache = analytics.NewMemoryCache(cfg.ReportCacheTTL)
		limiter = ratelimit.NewMemoryLimiter("ratelimit:sellers:")
	}

	svc := &analytics.Service{
		Cache:   cache,
		Logger:  logger.With().Str("component", "analytics").Logger(),
		Metrics: reportMetrics,
	}

	handler := newRouter(routerDeps{
		cfg:         cfg,
		logger:      logger,
		analytics:   &analytics.Handler{Svc: svc, Validate: analytics.NewValidator(), MaxBodyBytes: cfg.MaxBodyBytes},
		health:      health.Handler{Checker: health.RedisChecker{Client: redisClient}},
		limiter:     limiter,
		httpMetrics: httpMetrics,
	})
	if cfg.TracingEnabled {
		handler = otelhttp.NewHandler(handler, serviceName)
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	case <-ctx.Done():
		health.SetReady(false)
		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown")
		}
	}
}

func connectRedis(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*redis.Client, error) {
	if cfg.RedisURL == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if cfg.TracingEnabled {
		if err := redisotel.InstrumentTracing(client); err != nil {
			logger.Error().Err(err).Msg("instrument redis tracing")
		}
	}
	if cfg.MetricsEnabled {
		if err := redisotel.InstrumentMetrics(client); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

type routerDeps struct {
	cfg         *config.Config
	logger      zerolog.Logger
	analytics   *analytics.Handler
	health      health.Handler
	limiter     ratelimit.Limiter
	httpMetrics *obs.HTTPMetrics
}

func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if d.httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: d.httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: d.logger}.Middleware)
	r.Use(security.Headers{Enable: d.cfg.SecurityHeaders, EnableHSTS: d.cfg.EnableHSTS}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.cfg.AllowedOrigins(),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	if d.cfg.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	r.Get("/health/live", d.health.Live)
	r.Get("/health/ready", d.health.Ready)

	limit := ratelimit.Handler{
		Limiter: d.limiter,
		Config:  ratelimit.Config{Key: ratelimit.ByClientIP, Window: d.cfg.RateLimitWindow, Max: d.cfg.RateLimit},
		OnError: func(err error) { d.logger.Error().Err(err).Msg("rate limiter") },
	}
	r.Route("/api/v1/analytics", func(an chi.Router) {
		an.With(limit.Middleware).Post("/sellers", d.analytics.Sellers)
	})
	return r
}
