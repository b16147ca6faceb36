package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLockClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	s := miniredis.RunT(t)
	c := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = c.Close() })
	return s, c
}

func TestAcquireLock_Exclusive(t *testing.T) {
	s, c := newLockClient(t)
	ctx := context.Background()

	first, err := AcquireLock(ctx, c, "lock:sweep", time.Minute)
	require.NoError(t, err)
	assert.True(t, s.Exists("lock:sweep"))

	_, err = AcquireLock(ctx, c, "lock:sweep", time.Minute)
	assert.ErrorIs(t, err, ErrLockHeld)

	require.NoError(t, first.Release(ctx))
	assert.False(t, s.Exists("lock:sweep"))

	again, err := AcquireLock(ctx, c, "lock:sweep", time.Minute)
	require.NoError(t, err)
	require.NoError(t, again.Release(ctx))
}

func TestAcquireLock_ExpiresWithTTL(t *testing.T) {
	s, c := newLockClient(t)
	ctx := context.Background()

	_, err := AcquireLock(ctx, c, "lock:expire", 30*time.Second)
	require.NoError(t, err)

	s.FastForward(31 * time.Second)

	l, err := AcquireLock(ctx, c, "lock:expire", 30*time.Second)
	require.NoError(t, err)
	require.NoError(t, l.Release(ctx))
}

func TestRunLock_ReleaseDoesNotStealForeignLease(t *testing.T) {
	s, c := newLockClient(t)
	ctx := context.Background()

	stale, err := AcquireLock(ctx, c, "lock:steal", 10*time.Second)
	require.NoError(t, err)

	s.FastForward(11 * time.Second)
	fresh, err := AcquireLock(ctx, c, "lock:steal", 10*time.Second)
	require.NoError(t, err)

	require.NoError(t, stale.Release(ctx))
	assert.True(t, s.Exists("lock:steal"), "stale holder must not delete the new lease")

	require.NoError(t, fresh.Release(ctx))
	assert.False(t, s.Exists("lock:steal"))
}

func TestGuard_ReleaseFreesKey(t *testing.T) {
	s, c := newLockClient(t)
	ctx := context.Background()
	acquire := Guard(c, "lock:credit-sweep", time.Minute)

	release, err := acquire(ctx)
	require.NoError(t, err)

	_, err = acquire(ctx)
	assert.ErrorIs(t, err, ErrLockHeld)

	require.NoError(t, release(ctx))
	assert.False(t, s.Exists("lock:credit-sweep"))
}
