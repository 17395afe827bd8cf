// Package tokencache provides a Redis-backed lookup hint from registration
// token to identity id. The relational store stays authoritative; the cache
// only short-circuits the common resolve path and expires with the
// registration window, so a stale entry can never resurrect a swept or
// consumed token.
package tokencache

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var lookupDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "castingbase_token_cache_lookup_duration_ms",
	Help:    "Latency of registration token cache lookups in milliseconds",
	Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
})

// Redis key prefix for registration tokens.
const tokenKeyPrefix = "reg:token:"

// Redis caches token-to-identity mappings with the registration TTL.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// Put records a token mapping with the given TTL.
func (c *Redis) Put(ctx context.Context, token string, id uuid.UUID, ttl time.Duration) error {
	if token == "" {
		return nil
	}
	return c.client.Set(ctx, tokenKeyPrefix+token, id.String(), ttl).Err()
}

// Get resolves a token to an identity id. A miss is not an error.
func (c *Redis) Get(ctx context.Context, token string) (uuid.UUID, bool, error) {
	start := time.Now()
	defer func() {
		lookupDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	if token == "" {
		return uuid.Nil, false, nil
	}
	val, err := c.client.Get(ctx, tokenKeyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, err
	}
	id, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, false, nil
	}
	return id, true, nil
}

// Evict drops a token mapping once the token is consumed.
func (c *Redis) Evict(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return c.client.Del(ctx, tokenKeyPrefix+token).Err()
}
