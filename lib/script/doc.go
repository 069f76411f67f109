// Package script implements atomic compare-and-mutate primitives on top of
// server-side script evaluation. Each primitive combines a read, a check and
// a conditional write into one script, which the store applies without
// interleaving any other client's operation on the same key.
//
// Primitives:
//
//   - ReleaseLockIfOwner: delete a lock only if it holds the caller's token
//   - DecrementIfSufficient: decrement an inventory counter only if it stays >= 0
//   - SetIfAbsentOrStale: write a value if the key is missing or its value is stale
//   - DrainSet: return and delete all members of a set
//   - AcquireLock: set a lock token if no lock is held
//
// Rejections (NotOwner, Insufficient, Kept) are results, not errors. Errors
// are always *session.Error values, so a transport failure can never be
// mistaken for a lost race.
//
// Numeric Arguments:
//
//	Arguments reach the server as strings. The decrement and version scripts
//	parse both operands with tonumber before comparing them; comparing the raw
//	strings would order "9" after "10".
//
// Handles:
//
//	The Engine registers every script once and evaluates it by handle
//	afterwards. If the server answers that a handle is unknown, the engine
//	forgets the handle and evaluates the source instead; the next call
//	registers the script again.
//
// Usage Example:
//
//	engine := script.NewEngine()
//
//	s, err := pool.Acquire(ctx)
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	res, err := engine.DecrementIfSufficient(ctx, s, "goods1.number", 1)
//	if err != nil {
//	    return err // transport or script failure
//	}
//	if res.Insufficient {
//	    // sold out, stop buying
//	}
package script
