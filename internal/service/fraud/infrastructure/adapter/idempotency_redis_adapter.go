package adapter

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const idempotencyKeyPrefix = "fraud-prevention:processed:"

// RedisIdempotencyAdapter 用 SETNX 记录已处理的事件，实现 port.IdempotencyStore
type RedisIdempotencyAdapter struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisIdempotencyAdapter(client redis.Cmdable, ttl time.Duration) *RedisIdempotencyAdapter {
	return &RedisIdempotencyAdapter{client: client, ttl: ttl}
}

// Claim 首次声明某个键时返回 true
func (a *RedisIdempotencyAdapter) Claim(ctx context.Context, key string) (bool, error) {
	ok, err := a.client.SetNX(ctx, idempotencyKeyPrefix+key, time.Now().Unix(), a.ttl).Result()
	if err != nil {
		return false, errors.Wrapf(err, "failed to claim idempotency key %s", key)
	}
	return ok, nil
}

// Release 删除声明，使事件在重投递时可以被再次处理
func (a *RedisIdempotencyAdapter) Release(ctx context.Context, key string) error {
	if err := a.client.Del(ctx, idempotencyKeyPrefix+key).Err(); err != nil {
		return errors.Wrapf(err, "failed to release idempotency key %s", key)
	}
	return nil
}
