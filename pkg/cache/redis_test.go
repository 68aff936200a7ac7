package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// Port 1 on loopback is never a redis server, so every call fails fast.
func unreachable(t *testing.T) *RedisCache {
	t.Helper()
	c := NewRedisCache("127.0.0.1:1", "", 0, "dq:")
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestRedisCache_ErrorsAreWrapped(t *testing.T) {
	c := unreachable(t)
	ctx := context.Background()

	_, err := c.Get(ctx, "stats:2026-10-15")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrMiss)
	assert.ErrorContains(t, err, "failed to get from cache")

	err = c.Set(ctx, "stats:2026-10-15", []byte("{}"), time.Minute)
	assert.ErrorContains(t, err, "failed to set in cache")

	err = c.Delete(ctx, "stats:2026-10-15")
	assert.ErrorContains(t, err, "failed to delete from cache")

	_, err = c.Incr(ctx, "stats:gen:2026-10-15", time.Hour)
	assert.ErrorContains(t, err, "failed to incr in cache")

	assert.Error(t, c.Ping(ctx))
}

func TestRedisCache_DeleteNothingIsNoop(t *testing.T) {
	c := unreachable(t)
	assert.NoError(t, c.Delete(context.Background()))
}

func TestRedisCache_KeyPrefix(t *testing.T) {
	c := NewRedisCache("127.0.0.1:1", "", 0, "dq:")
	defer c.Close()
	assert.Equal(t, "dq:stats:2026-10-15", c.key("stats:2026-10-15"))
}
