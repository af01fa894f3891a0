package adapter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryRedis 只实现适配器用到的 SETNX / DEL
type memoryRedis struct {
	redis.Cmdable
	keys map[string]time.Duration
	err  error
}

func (m *memoryRedis) SetNX(ctx context.Context, key string, _ interface{}, ttl time.Duration) *redis.BoolCmd {
	cmd := redis.NewBoolCmd(ctx)
	if m.err != nil {
		cmd.SetErr(m.err)
		return cmd
	}
	if _, ok := m.keys[key]; ok {
		cmd.SetVal(false)
		return cmd
	}
	m.keys[key] = ttl
	cmd.SetVal(true)
	return cmd
}

func (m *memoryRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	if m.err != nil {
		cmd.SetErr(m.err)
		return cmd
	}
	var n int64
	for _, k := range keys {
		if _, ok := m.keys[k]; ok {
			delete(m.keys, k)
			n++
		}
	}
	cmd.SetVal(n)
	return cmd
}

func TestRedisIdempotencyAdapter(t *testing.T) {
	ctx := context.Background()
	client := &memoryRedis{keys: map[string]time.Duration{}}
	adapter := NewRedisIdempotencyAdapter(client, time.Hour)

	ok, err := adapter.Claim(ctx, "event:e1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, time.Hour, client.keys["fraud-prevention:processed:event:e1"])

	ok, err = adapter.Claim(ctx, "event:e1")
	require.NoError(t, err)
	assert.False(t, ok, "second claim loses")

	require.NoError(t, adapter.Release(ctx, "event:e1"))
	ok, err = adapter.Claim(ctx, "event:e1")
	require.NoError(t, err)
	assert.True(t, ok, "released key can be claimed again")
}

func TestRedisIdempotencyAdapter_Errors(t *testing.T) {
	ctx := context.Background()
	adapter := NewRedisIdempotencyAdapter(&memoryRedis{err: errors.New("connection refused")}, time.Hour)

	_, err := adapter.Claim(ctx, "event:e1")
	assert.ErrorContains(t, err, "connection refused")
	assert.ErrorContains(t, adapter.Release(ctx, "event:e1"), "event:e1")
}
