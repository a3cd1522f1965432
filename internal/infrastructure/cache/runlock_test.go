package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestLock(t *testing.T, ttl time.Duration) (*RunLock, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRunLockWithClient(client, ttl, zap.NewNop()), mr
}

func TestRunLock_MutualExclusion(t *testing.T) {
	ctx := context.Background()
	lock, _ := newTestLock(t, time.Minute)

	release, err := lock.Acquire(ctx)
	require.NoError(t, err)

	_, err = lock.Acquire(ctx)
	assert.ErrorIs(t, err, ErrLockHeld)

	release()

	release2, err := lock.Acquire(ctx)
	require.NoError(t, err)
	release2()
}

func TestRunLock_ReleaseIsIdempotent(t *testing.T) {
	ctx := context.Background()
	lock, _ := newTestLock(t, time.Minute)

	release, err := lock.Acquire(ctx)
	require.NoError(t, err)

	release()
	release() // second call is a no-op

	_, err = lock.Acquire(ctx)
	assert.NoError(t, err)
}

func TestRunLock_TTLExpiresCrashedHolder(t *testing.T) {
	ctx := context.Background()
	lock, mr := newTestLock(t, time.Minute)

	_, err := lock.Acquire(ctx)
	require.NoError(t, err)

	// simulate a crashed holder: never released, TTL elapses
	mr.FastForward(2 * time.Minute)

	release, err := lock.Acquire(ctx)
	require.NoError(t, err)
	release()
}
