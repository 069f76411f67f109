package script

import (
	"context"
	"fmt"
	"github.com/ValentinKolb/dCAS/lib/session"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
	"strconv"
)

var Logger = logger.GetLogger("script")

// --------------------------------------------------------------------------
// Results
// --------------------------------------------------------------------------

// ReleaseResult is the outcome of ReleaseLockIfOwner
type ReleaseResult int

const (
	Released ReleaseResult = iota // the lock was held by the owner and is deleted
	NotOwner                      // the lock is held by someone else or missing, nothing changed
)

func (r ReleaseResult) String() string {
	if r == Released {
		return "RELEASED"
	}
	return "NOT_OWNER"
}

// DecrementResult is the outcome of DecrementIfSufficient.
// Remaining is only meaningful if Insufficient is false.
type DecrementResult struct {
	Remaining    int64
	Insufficient bool
}

func (r DecrementResult) String() string {
	if r.Insufficient {
		return "INSUFFICIENT"
	}
	return strconv.FormatInt(r.Remaining, 10)
}

// SetResult is the outcome of SetIfAbsentOrStale
type SetResult int

const (
	Set  SetResult = iota // the candidate was written
	Kept                  // the stored value was kept
)

func (r SetResult) String() string {
	if r == Set {
		return "SET"
	}
	return "KEPT"
}

// --------------------------------------------------------------------------
// Engine
// --------------------------------------------------------------------------

// Engine runs compare-and-mutate scripts against sessions of one store.
// Every operation is a single script evaluation, so the read, the check and
// the write are applied by the server as one indivisible unit.
//
// The engine remembers the handle of every script it registered. Handles are
// server specific, so an engine must only be used with sessions of one store.
// It is safe for concurrent use.
type Engine struct {
	handles *xsync.MapOf[string, string] // source -> handle
}

// NewEngine creates a new engine with an empty handle cache
func NewEngine() *Engine {
	return &Engine{
		handles: xsync.NewMapOf[string, string](),
	}
}

// Preload registers all built-in scripts on the server of s
func (e *Engine) Preload(ctx context.Context, s session.ISession) error {
	for _, source := range []string{ReleaseLockScript, DecrementScript, DrainSetScript, AcquireLockScript} {
		if _, err := e.register(ctx, s, source); err != nil {
			return err
		}
	}
	return nil
}

// Evaluate runs source by handle, registering it on first use. If the server
// lost the script the cached handle is dropped and the source is evaluated directly.
func (e *Engine) Evaluate(ctx context.Context, s session.ISession, source string, keys []string, args ...interface{}) (interface{}, error) {
	handle, err := e.register(ctx, s, source)
	if err != nil {
		return nil, err
	}

	res, err := s.EvaluateByHandle(ctx, handle, keys, args...)
	if session.IsScriptNotRegistered(err) {
		Logger.Debugf("script %s not registered on server, falling back to source", handle)
		e.handles.Delete(source)
		return s.Evaluate(ctx, source, keys, args...)
	}
	return res, err
}

// ReleaseLockIfOwner deletes lockKey if it holds ownerToken.
// A lock held by another owner, or no lock at all, is left untouched and NotOwner is returned.
func (e *Engine) ReleaseLockIfOwner(ctx context.Context, s session.ISession, lockKey, ownerToken string) (ReleaseResult, error) {
	res, err := e.Evaluate(ctx, s, ReleaseLockScript, []string{lockKey}, ownerToken)
	if err != nil {
		return NotOwner, err
	}
	n, err := toInt64(res)
	if err != nil {
		return NotOwner, err
	}
	if n == 1 {
		return Released, nil
	}
	return NotOwner, nil
}

// DecrementIfSufficient decrements counterKey by amount if the counter does not drop below zero.
// The comparison is done on the server on parsed integers.
func (e *Engine) DecrementIfSufficient(ctx context.Context, s session.ISession, counterKey string, amount int64) (DecrementResult, error) {
	if amount <= 0 {
		return DecrementResult{Insufficient: true}, session.NewError(session.RetCInvalidArgument,
			fmt.Sprintf("amount must be a positive integer, got %d", amount), nil)
	}

	res, err := e.Evaluate(ctx, s, DecrementScript, []string{counterKey}, strconv.FormatInt(amount, 10))
	if err != nil {
		return DecrementResult{Insufficient: true}, err
	}
	n, err := toInt64(res)
	if err != nil {
		return DecrementResult{Insufficient: true}, err
	}
	if n < 0 {
		return DecrementResult{Insufficient: true}, nil
	}
	return DecrementResult{Remaining: n}, nil
}

// SetIfAbsentOrStale writes candidateValue to key if the key is missing or the
// predicate considers the stored value stale.
func (e *Engine) SetIfAbsentOrStale(ctx context.Context, s session.ISession, key, candidateValue string, predicate Predicate) (SetResult, error) {
	res, err := e.Evaluate(ctx, s, predicate.source(), []string{key}, candidateValue)
	if err != nil {
		return Kept, err
	}
	n, err := toInt64(res)
	if err != nil {
		return Kept, err
	}
	if n == 1 {
		return Set, nil
	}
	return Kept, nil
}

// DrainSet returns all members of the set at key and deletes the set in the same step.
// A missing set yields no members.
func (e *Engine) DrainSet(ctx context.Context, s session.ISession, key string) ([]string, error) {
	res, err := e.Evaluate(ctx, s, DrainSetScript, []string{key})
	if err != nil || res == nil {
		return nil, err
	}

	values, ok := res.([]interface{})
	if !ok {
		return nil, unexpectedReply(res)
	}
	members := make([]string, 0, len(values))
	for _, v := range values {
		str, ok := v.(string)
		if !ok {
			return nil, unexpectedReply(v)
		}
		members = append(members, str)
	}
	return members, nil
}

// AcquireLock sets lockKey to ownerToken if no lock is held. A positive ttlMillis
// lets the lock expire. Returns whether the lock was taken.
func (e *Engine) AcquireLock(ctx context.Context, s session.ISession, lockKey, ownerToken string, ttlMillis int64) (bool, error) {
	if ttlMillis < 0 {
		ttlMillis = 0
	}
	res, err := e.Evaluate(ctx, s, AcquireLockScript, []string{lockKey}, ownerToken, strconv.FormatInt(ttlMillis, 10))
	if err != nil {
		return false, err
	}
	n, err := toInt64(res)
	return n == 1, err
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// register returns the cached handle of source or registers it
func (e *Engine) register(ctx context.Context, s session.ISession, source string) (string, error) {
	if handle, ok := e.handles.Load(source); ok {
		return handle, nil
	}
	handle, err := s.Register(ctx, source)
	if err != nil {
		return "", err
	}
	e.handles.Store(source, handle)
	return handle, nil
}

func toInt64(res interface{}) (int64, error) {
	switch v := res.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	default:
		return 0, unexpectedReply(res)
	}
}

func unexpectedReply(res interface{}) error {
	return session.NewError(session.RetCScriptError, fmt.Sprintf("unexpected script reply %v (%T)", res, res), nil)
}
