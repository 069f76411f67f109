package rsession

import (
	"context"
	"errors"
	"github.com/ValentinKolb/dCAS/lib/session"
	"github.com/redis/go-redis/v9"
	"sync/atomic"
)

type sessionImpl struct {
	conn   *redis.Conn
	closed atomic.Bool
}

// --------------------------------------------------------------------------
// Interface Methods (docu see session/interface.go)
// --------------------------------------------------------------------------

func (s *sessionImpl) Evaluate(ctx context.Context, source string, keys []string, args ...interface{}) (interface{}, error) {
	if s.closed.Load() {
		return nil, errSessionClosed
	}
	return result("evaluate", s.conn.Eval(ctx, source, keys, args...))
}

func (s *sessionImpl) EvaluateByHandle(ctx context.Context, handle string, keys []string, args ...interface{}) (interface{}, error) {
	if s.closed.Load() {
		return nil, errSessionClosed
	}
	return result("evaluate by handle", s.conn.EvalSha(ctx, handle, keys, args...))
}

func (s *sessionImpl) Register(ctx context.Context, source string) (string, error) {
	if s.closed.Load() {
		return "", errSessionClosed
	}
	handle, err := s.conn.ScriptLoad(ctx, source).Result()
	if err != nil {
		return "", classify("register", err)
	}
	return handle, nil
}

func (s *sessionImpl) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.conn.Close()
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

var errSessionClosed = session.NewError(session.RetCClosed, "session is closed", nil)

// result unwraps a script reply, a nil reply is not an error
func result(op string, cmd *redis.Cmd) (interface{}, error) {
	res, err := cmd.Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, classify(op, err)
	}
	return res, nil
}
