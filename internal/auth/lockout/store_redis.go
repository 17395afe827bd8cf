package lockout

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const failureKeyPrefix = "auth:failures:"

// Redis counts failures with INCR and lets the key TTL end the window, so
// every node sees the same lock state.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (s *Redis) RecordFailure(ctx context.Context, key string, window time.Duration) (int, error) {
	rkey := failureKeyPrefix + key
	count, err := s.client.Incr(ctx, rkey).Result()
	if err != nil {
		return 0, err
	}
	// Only the first failure arms the TTL; later ones ride the same window.
	if count == 1 {
		if err := s.client.Expire(ctx, rkey, window).Err(); err != nil {
			return int(count), err
		}
	}
	return int(count), nil
}

func (s *Redis) Failures(ctx context.Context, key string) (int, error) {
	count, err := s.client.Get(ctx, failureKeyPrefix+key).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Redis) Clear(ctx context.Context, key string) error {
	return s.client.Del(ctx, failureKeyPrefix+key).Err()
}
