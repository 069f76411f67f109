package script

import (
	"context"
	"github.com/ValentinKolb/dCAS/lib/common"
	"github.com/ValentinKolb/dCAS/lib/session"
	"github.com/ValentinKolb/dCAS/lib/session/rsession"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"math/rand"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"
)

// newTestPool starts an in-process store and a session pool connected to it
func newTestPool(t *testing.T) (*miniredis.Miniredis, session.IPool) {
	t.Helper()
	m := miniredis.RunT(t)
	pool := rsession.NewRedisPool(common.StoreConfig{
		Endpoint:       m.Addr(),
		PoolSize:       64,
		AcquireTimeout: 2 * time.Second,
	})
	t.Cleanup(func() { _ = pool.Close() })
	return m, pool
}

func acquire(t *testing.T, pool session.IPool) session.ISession {
	t.Helper()
	s, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestReleaseLockIfOwner(t *testing.T) {
	m, pool := newTestPool(t)
	s := acquire(t, pool)
	e := NewEngine()
	ctx := context.Background()

	require.NoError(t, m.Set("user.lock", "1"))

	res, err := e.ReleaseLockIfOwner(ctx, s, "user.lock", "1")
	require.NoError(t, err)
	assert.Equal(t, Released, res)
	assert.False(t, m.Exists("user.lock"))

	// the lock is gone, an absent value never equals the token
	res, err = e.ReleaseLockIfOwner(ctx, s, "user.lock", "1")
	require.NoError(t, err)
	assert.Equal(t, NotOwner, res)
}

func TestReleaseLockOfOtherOwner(t *testing.T) {
	m, pool := newTestPool(t)
	s := acquire(t, pool)
	e := NewEngine()

	require.NoError(t, m.Set("user.lock", "owner-b"))

	res, err := e.ReleaseLockIfOwner(context.Background(), s, "user.lock", "owner-a")
	require.NoError(t, err)
	assert.Equal(t, NotOwner, res)

	value, err := m.Get("user.lock")
	require.NoError(t, err)
	assert.Equal(t, "owner-b", value)
}

func TestConcurrentReleaseDeletesOnce(t *testing.T) {
	m, pool := newTestPool(t)
	e := NewEngine()
	require.NoError(t, m.Set("user.lock", "token-a"))

	const attempts = 20
	var wg sync.WaitGroup
	results := make(chan ReleaseResult, attempts)
	for i := 0; i < attempts; i++ {
		token := "token-a"
		if i%2 == 1 {
			token = "token-b"
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := pool.Acquire(context.Background())
			if !assert.NoError(t, err) {
				return
			}
			defer s.Close()
			res, err := e.ReleaseLockIfOwner(context.Background(), s, "user.lock", token)
			assert.NoError(t, err)
			results <- res
		}()
	}
	wg.Wait()
	close(results)

	released := 0
	for res := range results {
		if res == Released {
			released++
		}
	}
	assert.Equal(t, 1, released)
	assert.False(t, m.Exists("user.lock"))
}

func TestDecrementComparesNumerically(t *testing.T) {
	m, pool := newTestPool(t)
	s := acquire(t, pool)
	e := NewEngine()
	ctx := context.Background()

	// "9" > "10" lexically, but not numerically
	require.NoError(t, m.Set("goods.a", "10"))
	res, err := e.DecrementIfSufficient(ctx, s, "goods.a", 9)
	require.NoError(t, err)
	assert.False(t, res.Insufficient)
	assert.Equal(t, int64(1), res.Remaining)

	require.NoError(t, m.Set("goods.b", "2"))
	res, err = e.DecrementIfSufficient(ctx, s, "goods.b", 10)
	require.NoError(t, err)
	assert.True(t, res.Insufficient)
	value, err := m.Get("goods.b")
	require.NoError(t, err)
	assert.Equal(t, "2", value)
}

func TestDecrementToZeroAndMissingCounter(t *testing.T) {
	m, pool := newTestPool(t)
	s := acquire(t, pool)
	e := NewEngine()
	ctx := context.Background()

	require.NoError(t, m.Set("goods.c", "3"))
	res, err := e.DecrementIfSufficient(ctx, s, "goods.c", 3)
	require.NoError(t, err)
	assert.Equal(t, DecrementResult{Remaining: 0}, res)

	res, err = e.DecrementIfSufficient(ctx, s, "goods.missing", 1)
	require.NoError(t, err)
	assert.True(t, res.Insufficient)
	assert.False(t, m.Exists("goods.missing"))
}

func TestDecrementRejectsInvalidInput(t *testing.T) {
	m, pool := newTestPool(t)
	s := acquire(t, pool)
	e := NewEngine()
	ctx := context.Background()

	_, err := e.DecrementIfSufficient(ctx, s, "goods.d", 0)
	assert.Equal(t, session.RetCInvalidArgument, session.CodeOf(err))

	require.NoError(t, m.Set("goods.d", "many"))
	_, err = e.DecrementIfSufficient(ctx, s, "goods.d", 1)
	assert.Equal(t, session.RetCScriptError, session.CodeOf(err))
	assert.False(t, session.IsTransport(err))
}

func TestConcurrentDecrementScenario(t *testing.T) {
	m, pool := newTestPool(t)
	e := NewEngine()
	require.NoError(t, m.Set("goods1.number", "5"))

	var wg sync.WaitGroup
	var mu sync.Mutex
	var remaining []int64
	insufficient := 0
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := pool.Acquire(context.Background())
			if !assert.NoError(t, err) {
				return
			}
			defer s.Close()
			res, err := e.DecrementIfSufficient(context.Background(), s, "goods1.number", 2)
			assert.NoError(t, err)
			mu.Lock()
			defer mu.Unlock()
			if res.Insufficient {
				insufficient++
			} else {
				remaining = append(remaining, res.Remaining)
			}
		}()
	}
	wg.Wait()

	sort.Slice(remaining, func(i, j int) bool { return remaining[i] > remaining[j] })
	assert.Equal(t, []int64{3, 1}, remaining)
	assert.Equal(t, 1, insufficient)
	value, err := m.Get("goods1.number")
	require.NoError(t, err)
	assert.Equal(t, "1", value)
}

func TestConcurrentDecrementNeverOversells(t *testing.T) {
	m, pool := newTestPool(t)
	e := NewEngine()

	const stock = 100
	const attempts = 60
	require.NoError(t, m.Set("goods.e", "100"))

	amounts := make([]int64, attempts)
	rng := rand.New(rand.NewSource(42))
	for i := range amounts {
		amounts[i] = int64(rng.Intn(10) + 1)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var sold int64
	for _, amount := range amounts {
		wg.Add(1)
		go func(amount int64) {
			defer wg.Done()
			s, err := pool.Acquire(context.Background())
			if !assert.NoError(t, err) {
				return
			}
			defer s.Close()
			res, err := e.DecrementIfSufficient(context.Background(), s, "goods.e", amount)
			assert.NoError(t, err)
			if !res.Insufficient {
				assert.GreaterOrEqual(t, res.Remaining, int64(0))
				mu.Lock()
				sold += amount
				mu.Unlock()
			}
		}(amount)
	}
	wg.Wait()

	assert.LessOrEqual(t, sold, int64(stock))
	value, err := m.Get("goods.e")
	require.NoError(t, err)
	assert.Equal(t, strconv.FormatInt(stock-sold, 10), value)
}

func TestSetIfAbsentOrStale(t *testing.T) {
	m, pool := newTestPool(t)
	s := acquire(t, pool)
	e := NewEngine()
	ctx := context.Background()

	res, err := e.SetIfAbsentOrStale(ctx, s, "ide:appcode", "1000", OlderVersion)
	require.NoError(t, err)
	assert.Equal(t, Set, res)

	// "999" < "1000" numerically even though it sorts after it
	res, err = e.SetIfAbsentOrStale(ctx, s, "ide:appcode", "999", OlderVersion)
	require.NoError(t, err)
	assert.Equal(t, Kept, res)

	res, err = e.SetIfAbsentOrStale(ctx, s, "ide:appcode", "1001", OlderVersion)
	require.NoError(t, err)
	assert.Equal(t, Set, res)
	value, err := m.Get("ide:appcode")
	require.NoError(t, err)
	assert.Equal(t, "1001", value)

	res, err = e.SetIfAbsentOrStale(ctx, s, "ide:appcode", "1001", NotEqual)
	require.NoError(t, err)
	assert.Equal(t, Kept, res)
}

func TestDrainSet(t *testing.T) {
	m, pool := newTestPool(t)
	s := acquire(t, pool)
	e := NewEngine()
	ctx := context.Background()

	_, err := m.SAdd("session:loop0", "a", "b", "c")
	require.NoError(t, err)

	members, err := e.DrainSet(ctx, s, "session:loop0")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, members)
	assert.False(t, m.Exists("session:loop0"))

	members, err = e.DrainSet(ctx, s, "session:loop0")
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestHandleRoundTrip(t *testing.T) {
	_, pool := newTestPool(t)
	s := acquire(t, pool)
	ctx := context.Background()

	source := "return {KEYS[1], KEYS[2], ARGV[1], ARGV[2]}"
	keys := []string{"userName", "age"}

	direct, err := s.Evaluate(ctx, source, keys, "Jack", "20")
	require.NoError(t, err)

	handle, err := s.Register(ctx, source)
	require.NoError(t, err)
	assert.Equal(t, session.HandleOf(source), handle)

	byHandle, err := s.EvaluateByHandle(ctx, handle, keys, "Jack", "20")
	require.NoError(t, err)
	assert.Equal(t, direct, byHandle)
}

func TestFallbackAfterScriptFlush(t *testing.T) {
	m, pool := newTestPool(t)
	s := acquire(t, pool)
	e := NewEngine()
	ctx := context.Background()

	require.NoError(t, e.Preload(ctx, s))
	require.NoError(t, m.Set("goods.f", "4"))

	// flush the server script cache through a separate connection
	admin := redis.NewClient(&redis.Options{Addr: m.Addr(), Protocol: 2})
	defer admin.Close()
	require.NoError(t, admin.ScriptFlush(ctx).Err())

	_, err := s.EvaluateByHandle(ctx, session.HandleOf(DecrementScript), []string{"goods.f"}, "1")
	assert.True(t, session.IsScriptNotRegistered(err))

	res, err := e.DecrementIfSufficient(ctx, s, "goods.f", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Remaining)
}

func TestTransportErrorIsNotRejection(t *testing.T) {
	m, pool := newTestPool(t)
	s := acquire(t, pool)
	e := NewEngine()

	m.Close()

	_, err := e.ReleaseLockIfOwner(context.Background(), s, "user.lock", "1")
	require.Error(t, err)
	assert.True(t, session.IsTransport(err))
}
