package sqlsession

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"github.com/ValentinKolb/dCAS/lib/common"
	"github.com/ValentinKolb/dCAS/lib/session"
	_ "github.com/go-sql-driver/mysql"
	"github.com/lni/dragonboat/v4/logger"
	_ "github.com/mattn/go-sqlite3"
	"sync/atomic"
	"time"
)

var Logger = logger.GetLogger("sql")

type poolImpl struct {
	db     *sql.DB
	config common.DBConfig
	closed atomic.Bool
}

// Open opens the database described by config and verifies the connection.
// The pool never holds more than config.MaxOpenConns connections.
func Open(ctx context.Context, config common.DBConfig) (IPool, error) {
	if config.Driver == "" || config.DSN == "" {
		return nil, session.NewError(session.RetCInvalidArgument, "driver and dsn are required", nil)
	}

	db, err := sql.Open(config.Driver, config.DSN)
	if err != nil {
		return nil, session.NewError(session.RetCInvalidArgument, fmt.Sprintf("open %s database", config.Driver), err)
	}
	if config.MaxOpenConns > 0 {
		db.SetMaxOpenConns(config.MaxOpenConns)
		db.SetMaxIdleConns(config.MaxOpenConns)
	}

	// Health check
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, session.NewError(session.RetCTransport, fmt.Sprintf("ping %s database", config.Driver), err)
	}

	Logger.Debugf("opened %s database (max open connections %d)", config.Driver, config.MaxOpenConns)

	return &poolImpl{
		db:     db,
		config: config,
	}, nil
}

func (p *poolImpl) Acquire(ctx context.Context) (ISession, error) {
	if p.closed.Load() {
		return nil, session.NewError(session.RetCClosed, "pool is closed", nil)
	}

	acquireCtx := ctx
	if p.config.AcquireTimeout > 0 {
		var cancel context.CancelFunc
		acquireCtx, cancel = context.WithTimeout(ctx, p.config.AcquireTimeout)
		defer cancel()
	}

	conn, err := p.db.Conn(acquireCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, session.NewError(session.RetCResourceExhausted, "no connection available", err)
		}
		if errors.Is(err, sql.ErrConnDone) {
			return nil, session.NewError(session.RetCClosed, "acquire on closed database", err)
		}
		return nil, session.NewError(session.RetCTransport, "acquire failed", err)
	}

	return &sessionImpl{
		conn:       conn,
		statements: make(map[string]*statement),
	}, nil
}

func (p *poolImpl) DB() *sql.DB {
	return p.db
}

func (p *poolImpl) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	return p.db.Close()
}
