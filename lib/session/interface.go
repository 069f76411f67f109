package session

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// ISession is an exclusive handle to one connection of a script-capable store.
// A session is owned by exactly one goroutine at a time and must be closed when
// the owner is done with it, including on failure.
type ISession interface {
	// Evaluate runs the script source on the server.
	// A nil reply of the script is returned as a nil result.
	Evaluate(ctx context.Context, source string, keys []string, args ...interface{}) (result interface{}, err error)
	// EvaluateByHandle runs a previously registered script.
	// If the server does not know the handle, an error with RetCScriptNotRegistered is returned.
	EvaluateByHandle(ctx context.Context, handle string, keys []string, args ...interface{}) (result interface{}, err error)
	// Register stores the script source on the server and returns its handle.
	Register(ctx context.Context, source string) (handle string, err error)
	// Close returns the session to its pool. Calling Close more than once is a no-op.
	Close() error
}

// IPool hands out sessions. Implementations must be safe for concurrent use.
type IPool interface {
	// Acquire checks out a session. If no session becomes available within the
	// configured wait bound, an error with RetCResourceExhausted is returned.
	Acquire(ctx context.Context) (ISession, error)
	// Close releases all resources held by the pool
	Close() error
}

// HandleOf returns the content-based handle of a script source.
// It matches the handle the store computes on Register.
func HandleOf(source string) string {
	sum := sha1.Sum([]byte(source))
	return hex.EncodeToString(sum[:])
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error wraps a return code (of type RetCode), a message and the underlying cause
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message
	Err  error   // The cause, may be nil
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("SessionError (code %s): %s: %v", e.Code, e.Msg, e.Err)
	}
	return fmt.Sprintf("SessionError (code %s): %s", e.Code, e.Msg)
}

// Unwrap returns the cause of the error
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new session error with the given code, message and cause.
func NewError(code RetCode, msg string, cause error) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
		Err:  cause,
	}
}

// CodeOf returns the RetCode of err, RetCSuccess for nil and RetCTransport for foreign errors.
func CodeOf(err error) RetCode {
	if err == nil {
		return RetCSuccess
	}
	var sErr *Error
	if errors.As(err, &sErr) {
		return sErr.Code
	}
	return RetCTransport
}

// IsTransport reports whether err is a network or connection failure
func IsTransport(err error) bool {
	return err != nil && CodeOf(err) == RetCTransport
}

// IsScriptNotRegistered reports whether err was caused by an unknown script handle
func IsScriptNotRegistered(err error) bool {
	return CodeOf(err) == RetCScriptNotRegistered
}

// IsResourceExhausted reports whether err was caused by an exhausted session pool
func IsResourceExhausted(err error) bool {
	return CodeOf(err) == RetCResourceExhausted
}

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess             RetCode = iota // 0: Call executed successfully.
	RetCTransport                          // 1: Network, timeout or connection failure.
	RetCScriptNotRegistered                // 2: The script handle is unknown to the server.
	RetCResourceExhausted                  // 3: No session became available in time.
	RetCScriptError                        // 4: The script ran but returned an error reply.
	RetCInvalidArgument                    // 5: The call was rejected before reaching the server.
	RetCClosed                             // 6: The session or pool was already closed.
)

// String returns the name of the return code
func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCTransport:
		return "Transport"
	case RetCScriptNotRegistered:
		return "ScriptNotRegistered"
	case RetCResourceExhausted:
		return "ResourceExhausted"
	case RetCScriptError:
		return "ScriptError"
	case RetCInvalidArgument:
		return "InvalidArgument"
	case RetCClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}
