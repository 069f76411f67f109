// Package lockmgr implements a locking mechanism on top of the atomic scripts
// of the script package. It provides a simple way to coordinate access to
// shared resources across multiple processes.
//
// The lockmgr only ever stores in the store behind the session and has no
// other internal state. It is safe to create a new lockmgr for every acquire
// and or release operation, as long as all of them talk to the same store.
//
// Implementation Approach:
//
//	- Lock Acquisition: one script sets the key to a random owner ID only if
//	  the key is unset, optionally with a ttl after which the store deletes it.
//
//	- Safe Release: one script deletes the key only if it still holds the
//	  owner ID. A client whose lock expired and was taken over by another
//	  client can therefore never delete the new owner's lock.
//
// Usage Example:
//
//	lm := lockmgr.NewLockManager(script.NewEngine(), s)
//
//	acquired, ownerID, err := lm.AcquireLock(ctx, "resource:123", 30*time.Second)
//	if err != nil {
//	    // Handle error
//	}
//
//	if acquired {
//	    // Use the resource safely
//	    // ...
//
//	    released, err := lm.ReleaseLock(ctx, "resource:123", ownerID)
//	}
package lockmgr
