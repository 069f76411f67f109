package workload

import (
	"context"
	"fmt"
	"github.com/ValentinKolb/dCAS/lib/bench"
	"github.com/ValentinKolb/dCAS/lib/lockmgr"
	"github.com/ValentinKolb/dCAS/lib/script"
	"github.com/ValentinKolb/dCAS/lib/session"
	"github.com/ValentinKolb/dCAS/lib/sqlsession"
	"github.com/puzpuzpuz/xsync/v3"
	"time"
)

// --------------------------------------------------------------------------
// Store workloads
// --------------------------------------------------------------------------

// StoreAcquirer returns an Acquire function checking out sessions of pool.
// With preload set, the built-in scripts are registered before the worker
// reaches the barrier, so no registration round trip falls into the batch.
func StoreAcquirer(pool session.IPool, engine *script.Engine, preload bool) func(context.Context, int) (session.ISession, error) {
	return func(ctx context.Context, _ int) (session.ISession, error) {
		s, err := pool.Acquire(ctx)
		if err != nil || !preload {
			return s, err
		}
		if err := engine.Preload(ctx, s); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("preload scripts: %w", err)
		}
		return s, nil
	}
}

// Decrement buys amount units of the counter at key per operation
type Decrement struct {
	Engine *script.Engine
	Key    string
	Amount int64

	sold *xsync.Counter
}

// NewDecrement creates a decrement workload
func NewDecrement(engine *script.Engine, key string, amount int64) *Decrement {
	return &Decrement{
		Engine: engine,
		Key:    key,
		Amount: amount,
		sold:   xsync.NewCounter(),
	}
}

// UnitOfWork decrements the counter once. An exhausted counter is a rejection.
func (d *Decrement) UnitOfWork(ctx context.Context, s session.ISession, _ int) (bench.Outcome, error) {
	res, err := d.Engine.DecrementIfSufficient(ctx, s, d.Key, d.Amount)
	if err != nil {
		return bench.Rejected, err
	}
	if res.Insufficient {
		return bench.Rejected, nil
	}
	d.sold.Add(d.Amount)
	return bench.Applied, nil
}

// Sold returns the total amount decremented by all workers so far
func (d *Decrement) Sold() int64 {
	return d.sold.Value()
}

// Release releases the lock at Key with Token per operation. Only the first
// operation of a matching token can succeed, the rest measure the rejection path.
type Release struct {
	Engine *script.Engine
	Key    string
	Token  string
}

// UnitOfWork runs one release attempt
func (r *Release) UnitOfWork(ctx context.Context, s session.ISession, _ int) (bench.Outcome, error) {
	res, err := r.Engine.ReleaseLockIfOwner(ctx, s, r.Key, r.Token)
	if err != nil {
		return bench.Rejected, err
	}
	if res == script.Released {
		return bench.Applied, nil
	}
	return bench.Rejected, nil
}

// LockCycle acquires and releases the lock at Key per operation. All workers
// compete for the same key, so an operation is applied only if the worker won
// the lock and released it again.
type LockCycle struct {
	Engine *script.Engine
	Key    string
	TTL    time.Duration
}

// UnitOfWork runs one acquire-release cycle
func (l *LockCycle) UnitOfWork(ctx context.Context, s session.ISession, _ int) (bench.Outcome, error) {
	lm := lockmgr.NewLockManager(l.Engine, s)

	ok, owner, err := lm.AcquireLock(ctx, l.Key, l.TTL)
	if err != nil {
		return bench.Rejected, err
	}
	if !ok {
		return bench.Rejected, nil
	}

	released, err := lm.ReleaseLock(ctx, l.Key, owner)
	if err != nil {
		return bench.Rejected, err
	}
	if !released {
		// the ttl expired between acquire and release
		return bench.Rejected, nil
	}
	return bench.Applied, nil
}

// --------------------------------------------------------------------------
// Database workloads
// --------------------------------------------------------------------------

// DBAcquirer returns an Acquire function checking out sessions of pool
func DBAcquirer(pool sqlsession.IPool) func(context.Context, int) (sqlsession.ISession, error) {
	return func(ctx context.Context, _ int) (sqlsession.ISession, error) {
		return pool.Acquire(ctx)
	}
}

// Statement executes SQL with Args per operation. An operation affecting no
// rows is a rejection.
type Statement struct {
	SQL  string
	Args []any
}

// UnitOfWork prepares (cached per session) and executes the statement once
func (st *Statement) UnitOfWork(ctx context.Context, s sqlsession.ISession, _ int) (bench.Outcome, error) {
	stmt, err := s.Prepare(ctx, st.SQL)
	if err != nil {
		return bench.Rejected, err
	}
	rows, err := s.Execute(ctx, stmt, st.Args...)
	if err != nil {
		return bench.Rejected, err
	}
	if rows == 0 {
		return bench.Rejected, nil
	}
	return bench.Applied, nil
}
