package infra

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedis creates and validates a go-redis client connection.
func NewRedis(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opts)

	// Validate connectivity at startup
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}

	return rdb, nil
}

// ErrCacheMiss is returned by RedisCache.Get when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

// RedisCache is a byte cache on top of Redis. Every call goes through the
// circuit breaker so an unhealthy Redis fails fast instead of adding latency
// to each request. A nil *RedisCache is valid and always misses.
type RedisCache struct {
	rdb *redis.Client
	cb  *CircuitBreaker
}

func NewRedisCache(rdb *redis.Client, cb *CircuitBreaker) *RedisCache {
	if rdb == nil {
		return nil
	}
	if cb == nil {
		cb = NewCircuitBreaker(DefaultCBConfig())
	}
	return &RedisCache{rdb: rdb, cb: cb}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	if c == nil {
		return nil, ErrCacheMiss
	}
	var out []byte
	err := c.cb.Execute(func() error {
		b, err := c.rdb.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			// A miss is a healthy answer; don't count it against the breaker.
			return nil
		}
		out = b
		return err
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, ErrCacheMiss
	}
	return out, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if c == nil {
		return nil
	}
	return c.cb.Execute(func() error {
		return c.rdb.Set(ctx, key, value, ttl).Err()
	})
}

func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if c == nil {
		return nil
	}
	return c.cb.Execute(func() error {
		return c.rdb.Del(ctx, keys...).Err()
	})
}

// State exposes the breaker state for /health.
func (c *RedisCache) State() CBState {
	if c == nil {
		return CBOpen
	}
	return c.cb.State()
}

// Ping checks Redis directly, bypassing the breaker so /health reports the
// real connection state.
func (c *RedisCache) Ping(ctx context.Context) error {
	if c == nil {
		return ErrCacheMiss
	}
	return c.rdb.Ping(ctx).Err()
}
