package health

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/seller-analytics/internal/common"
)

var ready atomic.Bool

func init() {
	ready.Store(true)
}

// SetReady toggles readiness. The server flips it off while draining on shutdown.
func SetReady(v bool) {
	ready.Store(v)
}

// Checker probes the optional report cache backend.
type Checker interface {
	PingRedis(ctx context.Context, timeout time.Duration) error
}

// RedisChecker pings a Redis client. A nil client reports the cache as disabled.
type RedisChecker struct {
	Client *redis.Client
}

// PingRedis implements Checker.
func (c RedisChecker) PingRedis(ctx context.Context, timeout time.Duration) error {
	if c.Client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.Client.Ping(ctx).Err()
}

// Handler exposes HTTP handlers for health endpoints.
type Handler struct {
	Checker      Checker
	RedisTimeout time.Duration
}

// Live reports liveness status.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready reports readiness based on the shutdown flag and the cache probe.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if !ready.Load() {
		common.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "shutting down"})
		return
	}
	status := map[string]string{"status": "ok", "redis": "ok"}
	if h.Checker != nil {
		if err := h.Checker.PingRedis(r.Context(), h.redisTimeout()); err != nil {
			status["status"] = "degraded"
			status["redis"] = err.Error()
			common.JSON(w, http.StatusServiceUnavailable, status)
			return
		}
	}
	common.JSON(w, http.StatusOK, status)
}

func (h Handler) redisTimeout() time.Duration {
	if h.RedisTimeout <= 0 {
		return 300 * time.Millisecond
	}
	return h.RedisTimeout
}
