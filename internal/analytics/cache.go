package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/seller-analytics/internal/resilience"
)

// Cache stores computed reports keyed by dataset digest.
type Cache interface {
	Get(ctx context.Context, key string) (*Report, bool, error)
	Set(ctx context.Context, key string, report *Report) error
}

// RedisCache keeps reports as JSON in Redis.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache constructs a Redis backed cache. A non-positive ttl disables writes.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// Get loads a cached report. It reports whether the key existed.
func (c *RedisCache) Get(ctx context.Context, key string) (*Report, bool, error) {
	if c == nil || c.client == nil || key == "" {
		return nil, false, nil
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, false, err
	}
	return &report, true, nil
}

// Set stores report with the configured TTL.
func (c *RedisCache) Set(ctx context.Context, key string, report *Report) error {
	if c == nil || c.client == nil || key == "" || c.ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(report)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

// MemoryCache keeps reports in process. It is used when no Redis URL is configured.
type MemoryCache struct {
	store *gocache.Cache
}

// NewMemoryCache constructs an in-process cache. A non-positive ttl disables writes.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		return &MemoryCache{}
	}
	return &MemoryCache{store: gocache.New(ttl, 2*ttl)}
}

// Get returns a copy of the cached report.
func (c *MemoryCache) Get(_ context.Context, key string) (*Report, bool, error) {
	if c == nil || c.store == nil {
		return nil, false, nil
	}
	v, ok := c.store.Get(key)
	if !ok {
		return nil, false, nil
	}
	report, ok := v.(Report)
	if !ok {
		return nil, false, nil
	}
	return &report, true, nil
}

// Set stores a copy of report with the default expiration.
func (c *MemoryCache) Set(_ context.Context, key string, report *Report) error {
	if c == nil || c.store == nil || report == nil {
		return nil
	}
	c.store.SetDefault(key, *report)
	return nil
}

// GuardedCache routes calls through a circuit breaker. While the breaker is open every
// lookup is a miss and writes are dropped, so reports are computed without the cache.
type GuardedCache struct {
	Next    Cache
	Breaker *resilience.Breaker
}

// Get reads through the breaker.
func (c GuardedCache) Get(ctx context.Context, key string) (*Report, bool, error) {
	if c.Breaker == nil {
		return c.Next.Get(ctx, key)
	}
	var (
		report *Report
		ok     bool
	)
	err := c.Breaker.Do(ctx, func(ctx context.Context) error {
		var err error
		report, ok, err = c.Next.Get(ctx, key)
		return err
	})
	if errors.Is(err, resilience.ErrOpenCircuit) {
		return nil, false, nil
	}
	return report, ok, err
}

// Set writes through the breaker.
func (c GuardedCache) Set(ctx context.Context, key string, report *Report) error {
	if c.Breaker == nil {
		return c.Next.Set(ctx, key, report)
	}
	err := c.Breaker.Do(ctx, func(ctx context.Context) error {
		return c.Next.Set(ctx, key, report)
	})
	if errors.Is(err, resilience.ErrOpenCircuit) {
		return nil
	}
	return err
}
