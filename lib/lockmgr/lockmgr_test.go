package lockmgr

import (
	"context"
	"github.com/ValentinKolb/dCAS/lib/common"
	"github.com/ValentinKolb/dCAS/lib/script"
	"github.com/ValentinKolb/dCAS/lib/session/rsession"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

func newTestLockManager(t *testing.T) (*miniredis.Miniredis, ILockManager) {
	t.Helper()
	m := miniredis.RunT(t)
	pool := rsession.NewRedisPool(common.StoreConfig{Endpoint: m.Addr(), PoolSize: 2})
	t.Cleanup(func() { _ = pool.Close() })

	s, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return m, NewLockManager(script.NewEngine(), s)
}

func TestAcquireAndRelease(t *testing.T) {
	m, lm := newTestLockManager(t)
	ctx := context.Background()

	ok, owner, err := lm.AcquireLock(ctx, "resource:1", 0)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotEmpty(t, owner)

	value, err := m.Get("resource:1")
	require.NoError(t, err)
	assert.Equal(t, owner, value)

	// a second acquire must not overwrite the holder
	ok, other, err := lm.AcquireLock(ctx, "resource:1", 0)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, other)

	released, err := lm.ReleaseLock(ctx, "resource:1", "someone-else")
	require.NoError(t, err)
	assert.False(t, released)
	assert.True(t, m.Exists("resource:1"))

	released, err = lm.ReleaseLock(ctx, "resource:1", owner)
	require.NoError(t, err)
	assert.True(t, released)
	assert.False(t, m.Exists("resource:1"))
}

func TestExpiredLockCannotBeReleasedByOldOwner(t *testing.T) {
	m, lm := newTestLockManager(t)
	ctx := context.Background()

	ok, oldOwner, err := lm.AcquireLock(ctx, "resource:2", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	m.FastForward(2 * time.Second)

	ok, newOwner, err := lm.AcquireLock(ctx, "resource:2", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	released, err := lm.ReleaseLock(ctx, "resource:2", oldOwner)
	require.NoError(t, err)
	assert.False(t, released)

	value, err := m.Get("resource:2")
	require.NoError(t, err)
	assert.Equal(t, newOwner, value)
}
