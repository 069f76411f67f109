package sqlsession

import (
	"context"
	"database/sql"
)

// IStatement is a statement prepared on a session's connection
type IStatement interface {
	// Text returns the SQL text the statement was prepared from
	Text() string
}

// ISession is an exclusive handle to one database connection
type ISession interface {
	// Prepare prepares sqlText on the session's connection. Statements are cached per session,
	// preparing the same text again returns the cached statement.
	Prepare(ctx context.Context, sqlText string) (IStatement, error)
	// Execute runs a prepared statement and returns the number of affected rows
	Execute(ctx context.Context, stmt IStatement, args ...any) (rowsAffected int64, err error)
	// Close closes all prepared statements and returns the connection to the pool.
	// Calling Close more than once is a no-op.
	Close() error
}

// IPool hands out database sessions. Implementations must be safe for concurrent use.
type IPool interface {
	// Acquire checks out a session, failing with a resource exhausted error
	// if no connection becomes available in time
	Acquire(ctx context.Context) (ISession, error)
	// DB returns the underlying handle, used for setup outside of sessions
	DB() *sql.DB
	// Close closes the underlying database handle
	Close() error
}
