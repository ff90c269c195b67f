package distlock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestRedisLockMutualExclusion(t *testing.T) {
	ctx := context.Background()
	client := newTestRedis(t)

	a := NewRedisLock(client, "repricer", time.Minute)
	b := NewRedisLock(client, "repricer", time.Minute)

	ok, err := a.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = b.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, a.Release(ctx))

	ok, err = b.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLockReleaseRequiresOwnership(t *testing.T) {
	ctx := context.Background()
	client := newTestRedis(t)

	a := NewRedisLock(client, "zombie_scan", time.Minute)
	b := NewRedisLock(client, "zombie_scan", time.Minute)

	ok, err := a.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	// A stranger's release is a no-op; the owner still holds the lock.
	require.NoError(t, b.Release(ctx))

	ok, err = b.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisLockKeysAreNamespaced(t *testing.T) {
	ctx := context.Background()
	client := newTestRedis(t)

	a := NewRedisLock(client, "repricer", time.Minute)
	b := NewRedisLock(client, "offer_sniper", time.Minute)

	ok, err := a.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = b.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}
