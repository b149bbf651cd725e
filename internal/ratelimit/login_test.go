package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newLimiter(t *testing.T, max int64, window time.Duration) (*LoginLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewLoginLimiter(rdb, max, window), mr
}

func TestAllowWithinLimit(t *testing.T) {
	l, _ := newLimiter(t, 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := l.Allow(ctx, "a@x.com")
		require.NoError(t, err)
		require.True(t, ok, "attempt %d", i+1)
	}

	ok, err := l.Allow(ctx, "a@x.com")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestLimitIsPerKey(t *testing.T) {
	l, _ := newLimiter(t, 1, time.Minute)
	ctx := context.Background()

	ok, err := l.Allow(ctx, "a@x.com")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = l.Allow(ctx, "a@x.com")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = l.Allow(ctx, "b@x.com")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestWindowResets(t *testing.T) {
	l, mr := newLimiter(t, 1, time.Minute)
	ctx := context.Background()

	ok, err := l.Allow(ctx, "a@x.com")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = l.Allow(ctx, "a@x.com")
	require.NoError(t, err)
	require.False(t, ok)

	mr.FastForward(time.Minute + time.Second)

	ok, err = l.Allow(ctx, "a@x.com")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestRedisDownReturnsError(t *testing.T) {
	l, mr := newLimiter(t, 1, time.Minute)
	mr.Close()

	_, err := l.Allow(context.Background(), "a@x.com")
	require.Error(t, err)
}
