package sqlsession

import (
	"context"
	"database/sql"
	"errors"
	"github.com/ValentinKolb/dCAS/lib/session"
)

type statement struct {
	text string
	stmt *sql.Stmt
}

func (s *statement) Text() string {
	return s.text
}

// sessionImpl is owned by one goroutine, the statement cache is not synchronized
type sessionImpl struct {
	conn       *sql.Conn
	statements map[string]*statement
	closed     bool
}

// --------------------------------------------------------------------------
// Interface Methods (docu see sqlsession/interface.go)
// --------------------------------------------------------------------------

func (s *sessionImpl) Prepare(ctx context.Context, sqlText string) (IStatement, error) {
	if s.closed {
		return nil, errSessionClosed
	}
	if stmt, ok := s.statements[sqlText]; ok {
		return stmt, nil
	}

	stmt, err := s.conn.PrepareContext(ctx, sqlText)
	if err != nil {
		return nil, classify("prepare", err)
	}
	prepared := &statement{text: sqlText, stmt: stmt}
	s.statements[sqlText] = prepared
	return prepared, nil
}

func (s *sessionImpl) Execute(ctx context.Context, stmt IStatement, args ...any) (int64, error) {
	if s.closed {
		return 0, errSessionClosed
	}
	prepared, ok := stmt.(*statement)
	if !ok || s.statements[prepared.text] != prepared {
		return 0, session.NewError(session.RetCInvalidArgument, "statement was not prepared on this session", nil)
	}

	res, err := prepared.stmt.ExecContext(ctx, args...)
	if err != nil {
		return 0, classify("execute", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, classify("rows affected", err)
	}
	return rows, nil
}

func (s *sessionImpl) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	for _, stmt := range s.statements {
		errs = append(errs, stmt.stmt.Close())
	}
	s.statements = nil
	errs = append(errs, s.conn.Close())
	return errors.Join(errs...)
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

var errSessionClosed = session.NewError(session.RetCClosed, "session is closed", nil)

func classify(op string, err error) *session.Error {
	if errors.Is(err, sql.ErrConnDone) {
		return session.NewError(session.RetCClosed, op+" on closed connection", err)
	}
	return session.NewError(session.RetCTransport, op+" failed", err)
}
