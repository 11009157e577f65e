package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/noah-isme/seller-analytics/internal/resilience"
)

// StoreLimiter enforces a fixed window limit backed by a ulule/limiter store.
type StoreLimiter struct {
	Store limiter.Store
}

// NewMemoryLimiter keeps counters in process.
func NewMemoryLimiter(prefix string) StoreLimiter {
	return StoreLimiter{Store: memory.NewStoreWithOptions(limiter.StoreOptions{Prefix: prefix, CleanUpInterval: time.Minute})}
}

// NewRedisLimiter keeps counters in Redis so the limit is shared across instances.
func NewRedisLimiter(client *redis.Client, prefix string) (StoreLimiter, error) {
	store, err := limiterredis.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: prefix})
	if err != nil {
		return StoreLimiter{}, err
	}
	return StoreLimiter{Store: store}, nil
}

// Allow registers an event for key and reports whether it is within max events per window.
func (l StoreLimiter) Allow(ctx context.Context, key string, window time.Duration, max int) (allowed bool, remaining int, reset time.Time, err error) {
	if l.Store == nil || max <= 0 || window <= 0 {
		return true, max, time.Now().Add(window), nil
	}
	lim := limiter.New(l.Store, limiter.Rate{Period: window, Limit: int64(max)})
	res, err := lim.Get(ctx, key)
	if err != nil {
		return false, 0, time.Now().Add(window), err
	}
	return !res.Reached, int(res.Remaining), time.Unix(res.Reset, 0), nil
}

// GuardedLimiter routes checks through a circuit breaker. While the breaker is open Allow
// returns resilience.ErrOpenCircuit without touching the store and the middleware lets the
// request through.
type GuardedLimiter struct {
	Next    Limiter
	Breaker *resilience.Breaker
}

// Allow checks the limit through the breaker.
func (l GuardedLimiter) Allow(ctx context.Context, key string, window time.Duration, max int) (allowed bool, remaining int, reset time.Time, err error) {
	if l.Breaker == nil {
		return l.Next.Allow(ctx, key, window, max)
	}
	err = l.Breaker.Do(ctx, func(ctx context.Context) error {
		var callErr error
		allowed, remaining, reset, callErr = l.Next.Allow(ctx, key, window, max)
		return callErr
	})
	return allowed, remaining, reset, err
}
