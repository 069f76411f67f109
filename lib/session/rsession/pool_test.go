package rsession

import (
	"context"
	"github.com/ValentinKolb/dCAS/lib/common"
	"github.com/ValentinKolb/dCAS/lib/session"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

func newPool(t *testing.T, m *miniredis.Miniredis, size int) session.IPool {
	t.Helper()
	pool := NewRedisPool(common.StoreConfig{
		Endpoint:       m.Addr(),
		PoolSize:       size,
		AcquireTimeout: 200 * time.Millisecond,
	})
	t.Cleanup(func() { _ = pool.Close() })
	return pool
}

func TestEvaluateAndNilReply(t *testing.T) {
	m := miniredis.RunT(t)
	pool := newPool(t, m, 2)
	ctx := context.Background()

	s, err := pool.Acquire(ctx)
	require.NoError(t, err)
	defer s.Close()

	res, err := s.Evaluate(ctx, "return redis.call('set', KEYS[1], ARGV[1])", []string{"foo"}, "john")
	require.NoError(t, err)
	assert.Equal(t, "OK", res)

	res, err = s.Evaluate(ctx, "return redis.call('get', KEYS[1])", []string{"foo"})
	require.NoError(t, err)
	assert.Equal(t, "john", res)

	res, err = s.Evaluate(ctx, "return redis.call('get', KEYS[1])", []string{"missing"})
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestUnknownHandle(t *testing.T) {
	m := miniredis.RunT(t)
	pool := newPool(t, m, 1)
	ctx := context.Background()

	s, err := pool.Acquire(ctx)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.EvaluateByHandle(ctx, session.HandleOf("return 1"), nil)
	assert.True(t, session.IsScriptNotRegistered(err))
	assert.False(t, session.IsTransport(err))
}

func TestScriptErrorReply(t *testing.T) {
	m := miniredis.RunT(t)
	pool := newPool(t, m, 1)
	ctx := context.Background()

	s, err := pool.Acquire(ctx)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Evaluate(ctx, "return redis.error_reply('ERR broken')", nil)
	assert.Equal(t, session.RetCScriptError, session.CodeOf(err))
}

func TestAcquireExhaustedPool(t *testing.T) {
	m := miniredis.RunT(t)
	pool := newPool(t, m, 1)
	ctx := context.Background()

	held, err := pool.Acquire(ctx)
	require.NoError(t, err)

	_, err = pool.Acquire(ctx)
	require.Error(t, err)
	assert.True(t, session.IsResourceExhausted(err))

	// returning the session frees the slot
	require.NoError(t, held.Close())
	s, err := pool.Acquire(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Close())
}

func TestCloseIsIdempotent(t *testing.T) {
	m := miniredis.RunT(t)
	pool := newPool(t, m, 1)

	s, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err = s.Evaluate(context.Background(), "return 1", nil)
	assert.Equal(t, session.RetCClosed, session.CodeOf(err))

	require.NoError(t, pool.Close())
	require.NoError(t, pool.Close())
	_, err = pool.Acquire(context.Background())
	assert.Equal(t, session.RetCClosed, session.CodeOf(err))
}
