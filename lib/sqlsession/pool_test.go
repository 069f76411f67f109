package sqlsession

import (
	"context"
	"fmt"
	"github.com/ValentinKolb/dCAS/lib/common"
	"github.com/ValentinKolb/dCAS/lib/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"path/filepath"
	"testing"
	"time"
)

// openTestDB opens a sqlite database with an identity table holding one row
func openTestDB(t *testing.T, maxOpen int) IPool {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", filepath.Join(t.TempDir(), "bench.db"))
	pool, err := Open(context.Background(), common.DBConfig{
		Driver:         "sqlite3",
		DSN:            dsn,
		MaxOpenConns:   maxOpen,
		AcquireTimeout: 200 * time.Millisecond,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Close() })

	_, err = pool.DB().Exec("CREATE TABLE identity_t (biz_tag INTEGER PRIMARY KEY, step INTEGER NOT NULL)")
	require.NoError(t, err)
	_, err = pool.DB().Exec("INSERT INTO identity_t (biz_tag, step) VALUES (128758, 0)")
	require.NoError(t, err)
	return pool
}

func TestPrepareAndExecute(t *testing.T) {
	pool := openTestDB(t, 2)
	ctx := context.Background()

	s, err := pool.Acquire(ctx)
	require.NoError(t, err)
	defer s.Close()

	stmt, err := s.Prepare(ctx, "UPDATE identity_t SET step = step + ? WHERE biz_tag = 128758")
	require.NoError(t, err)

	again, err := s.Prepare(ctx, stmt.Text())
	require.NoError(t, err)
	assert.Same(t, stmt, again)

	rows, err := s.Execute(ctx, stmt, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	var step int
	require.NoError(t, pool.DB().QueryRow("SELECT step FROM identity_t WHERE biz_tag = 128758").Scan(&step))
	assert.Equal(t, 10, step)
}

func TestPrepareInvalidStatement(t *testing.T) {
	pool := openTestDB(t, 2)
	ctx := context.Background()

	s, err := pool.Acquire(ctx)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Prepare(ctx, "UPDATE missing_table SET x = 1")
	assert.Error(t, err)
}

func TestAcquireExhaustedDatabase(t *testing.T) {
	pool := openTestDB(t, 1)
	ctx := context.Background()

	held, err := pool.Acquire(ctx)
	require.NoError(t, err)

	_, err = pool.Acquire(ctx)
	assert.True(t, session.IsResourceExhausted(err))

	require.NoError(t, held.Close())
	s, err := pool.Acquire(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Close())
}

func TestSessionCloseIsIdempotent(t *testing.T) {
	pool := openTestDB(t, 1)
	ctx := context.Background()

	s, err := pool.Acquire(ctx)
	require.NoError(t, err)
	stmt, err := s.Prepare(ctx, "SELECT 1")
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err = s.Execute(ctx, stmt)
	assert.Equal(t, session.RetCClosed, session.CodeOf(err))
}

func TestOpenRequiresDriverAndDSN(t *testing.T) {
	_, err := Open(context.Background(), common.DBConfig{Driver: "sqlite3"})
	assert.Equal(t, session.RetCInvalidArgument, session.CodeOf(err))
}
