package rsession

import (
	"context"
	"errors"
	"github.com/ValentinKolb/dCAS/lib/common"
	"github.com/ValentinKolb/dCAS/lib/session"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/redis/go-redis/v9"
	"strings"
	"sync/atomic"
)

var Logger = logger.GetLogger("session")

type poolImpl struct {
	client *redis.Client
	config common.StoreConfig
	closed atomic.Bool
}

// NewRedisPool creates a session pool for the store at config.Endpoint.
// The pool never holds more than config.PoolSize connections; a session pins
// one of them from Acquire until Close.
//
// Usage:
//
//	pool := rsession.NewRedisPool(common.StoreConfig{
//		Endpoint:       "localhost:6379",
//		PoolSize:       100,
//		AcquireTimeout: 5 * time.Second,
//	})
//	defer pool.Close()
//
//	s, err := pool.Acquire(ctx)
//	if err != nil {
//		return err
//	}
//	defer s.Close()
func NewRedisPool(config common.StoreConfig) session.IPool {
	opts := &redis.Options{
		Addr:                  config.Endpoint,
		Password:              config.Password,
		DB:                    config.DB,
		PoolSize:              config.PoolSize,
		MinIdleConns:          config.MinIdleConns,
		ContextTimeoutEnabled: true,
		Protocol:              2,
	}
	if config.AcquireTimeout > 0 {
		opts.PoolTimeout = config.AcquireTimeout
	}
	if config.CommandTimeout > 0 {
		opts.ReadTimeout = config.CommandTimeout
		opts.WriteTimeout = config.CommandTimeout
	}

	Logger.Debugf("created redis pool for %s (pool size %d)", config.Endpoint, config.PoolSize)

	return &poolImpl{
		client: redis.NewClient(opts),
		config: config,
	}
}

func (p *poolImpl) Acquire(ctx context.Context) (session.ISession, error) {
	if p.closed.Load() {
		return nil, session.NewError(session.RetCClosed, "pool is closed", nil)
	}

	acquireCtx := ctx
	if p.config.AcquireTimeout > 0 {
		var cancel context.CancelFunc
		acquireCtx, cancel = context.WithTimeout(ctx, p.config.AcquireTimeout)
		defer cancel()
	}

	// Conn binds lazily, the ping pins the connection to this session
	conn := p.client.Conn()
	if err := conn.Ping(acquireCtx).Err(); err != nil {
		_ = conn.Close()
		if isPoolWaitFailure(err) && ctx.Err() == nil {
			return nil, session.NewError(session.RetCResourceExhausted, "no session available", err)
		}
		return nil, classify("acquire", err)
	}

	return &sessionImpl{conn: conn}, nil
}

func (p *poolImpl) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	return p.client.Close()
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// isPoolWaitFailure reports whether err was caused by waiting for a free connection
func isPoolWaitFailure(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "pool timeout")
}

// classify maps a go-redis error to a session error
func classify(op string, err error) *session.Error {
	var rErr redis.Error
	switch {
	case errors.Is(err, redis.ErrClosed):
		return session.NewError(session.RetCClosed, op+" on closed connection", err)
	case errors.As(err, &rErr) && strings.HasPrefix(strings.TrimPrefix(rErr.Error(), "ERR "), "NOSCRIPT"):
		return session.NewError(session.RetCScriptNotRegistered, op+" referenced an unknown script", err)
	case errors.As(err, &rErr):
		return session.NewError(session.RetCScriptError, op+" returned an error reply", err)
	default:
		return session.NewError(session.RetCTransport, op+" failed", err)
	}
}
