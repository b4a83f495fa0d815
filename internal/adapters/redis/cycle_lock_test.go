package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/obd-dialer/internal/testutil"
)

func TestNewCycleLock_RequiresClientAndKey(t *testing.T) {
	_, err := NewCycleLock(CycleLockOptions{Key: "k"})
	require.Error(t, err)

	_, client := testutil.SetupMiniRedis(t)
	_, err = NewCycleLock(CycleLockOptions{Client: client})
	require.Error(t, err)
}

func TestCycleLock_SingleHolder(t *testing.T) {
	mr, client := testutil.SetupMiniRedis(t)
	ctx := context.Background()

	first, err := NewCycleLock(CycleLockOptions{Client: client, Key: "obd:test:cycle", Expiry: time.Minute})
	require.NoError(t, err)
	second, err := NewCycleLock(CycleLockOptions{Client: client, Key: "obd:test:cycle", Expiry: time.Minute})
	require.NoError(t, err)

	release, ok, err := first.TryAcquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, mr.Exists("obd:test:cycle"))

	_, ok, err = second.TryAcquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "second replica must not acquire a held lock")

	require.NoError(t, release(ctx))
	assert.False(t, mr.Exists("obd:test:cycle"))

	release2, ok, err := second.TryAcquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, release2(ctx))
}

func TestCycleLock_ReleaseAfterExpiry(t *testing.T) {
	mr, client := testutil.SetupMiniRedis(t)
	ctx := context.Background()

	lock, err := NewCycleLock(CycleLockOptions{Client: client, Key: "obd:test:expiry", Expiry: time.Second})
	require.NoError(t, err)

	release, ok, err := lock.TryAcquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)
	require.Error(t, release(ctx), "releasing an expired lock must fail")
}
