package dedup

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRedisGuard(t *testing.T) (*RedisGuard, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb, err := NewRedisClient(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)

	g := NewRedisGuard(rdb, zap.NewNop())
	t.Cleanup(func() { _ = g.Close() })
	return g, mr
}

func TestRedisGuard_ClaimAndExpire(t *testing.T) {
	ctx := context.Background()
	g, mr := newTestRedisGuard(t)

	ok, err := g.Claim(ctx, "s1|Monday|10:00|2026-10-19", 70*time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, mr.Exists(occurrencePrefix+"s1|Monday|10:00|2026-10-19"))

	ok, err = g.Claim(ctx, "s1|Monday|10:00|2026-10-19", 70*time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	mr.FastForward(71 * time.Minute)

	ok, err = g.Claim(ctx, "s1|Monday|10:00|2026-10-19", 70*time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisGuard_Release(t *testing.T) {
	ctx := context.Background()
	g, mr := newTestRedisGuard(t)

	ok, err := g.Claim(ctx, "k", time.Hour)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, g.Release(ctx, "k"))
	assert.False(t, mr.Exists(occurrencePrefix+"k"))
}

func TestRedisGuard_ClaimErrorWhenServerDown(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr(), MaxRetries: -1})
	g := NewRedisGuard(rdb, zap.NewNop())
	t.Cleanup(func() { _ = g.Close() })

	mr.Close()

	_, err = g.Claim(context.Background(), "k", time.Hour)
	assert.Error(t, err)
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	_, err = NewRedisClient(context.Background(), addr, "", 0)
	assert.Error(t, err)
}
