package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"

	"github.com/jonwraymond/depshield/resilience"
)

const (
	defaultDialTimeout  = 2 * time.Second
	defaultReadTimeout  = 2 * time.Second
	defaultWriteTimeout = 2 * time.Second
	defaultPoolTimeout  = 2 * time.Second

	defaultPoolSize     = 20
	defaultMinIdleConns = 2
)

// RedisConfig configures the Redis-backed cache.
type RedisConfig struct {
	// Addr is the server address, typically "localhost:6379".
	Addr     string
	Password string
	DB       int
}

// RedisCache is a Redis-backed cache implementation. It shares results
// across process instances, which makes it the right store for fallback
// reads in multi-replica deployments.
type RedisCache struct {
	client *redis.Client
	policy Policy
}

// NewRedisCache creates a Redis-backed cache with the given policy.
// The client is instrumented for tracing and metrics; instrumentation
// failures are non-fatal.
func NewRedisCache(config RedisConfig, policy Policy) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		DialTimeout:  defaultDialTimeout,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
		PoolTimeout:  defaultPoolTimeout,
		PoolSize:     defaultPoolSize,
		MinIdleConns: defaultMinIdleConns,
	})

	_ = redisotel.InstrumentTracing(client)
	_ = redisotel.InstrumentMetrics(client)

	return &RedisCache{client: client, policy: policy}
}

// NewRedisCacheFromClient wraps an existing Redis client.
func NewRedisCacheFromClient(client *redis.Client, policy Policy) *RedisCache {
	return &RedisCache{client: client, policy: policy}
}

// Get retrieves a value. Returns (nil, false) on miss or any Redis error.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		// redis.Nil is a plain miss; other errors degrade to a miss too
		return nil, false
	}
	return val, true
}

// Set stores a value with the given TTL. TTL=0 means don't cache.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	ttl = c.policy.EffectiveTTL(ttl)
	return c.client.Set(ctx, key, value, ttl).Err()
}

// Delete removes a value. Idempotent - no error on miss.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	err := c.client.Del(ctx, key).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}

// Ping verifies connectivity to the Redis server.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the underlying client's resources.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Ensure RedisCache implements Cache and can back a resilient client
var (
	_ Cache                  = (*RedisCache)(nil)
	_ resilience.ResultStore = (*RedisCache)(nil)
)
