package lockmgr

import (
	"context"
	"time"
)

// ILockManager defines the interface for a lock provider.
type ILockManager interface {
	// AcquireLock acquires a lock for the given key with an optional ttl (zero means no expiry).
	// Return a boolean indicating whether the lock was acquired, an owner ID, and an error if any.
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (ok bool, ownerID string, err error)

	// ReleaseLock releases the lock for the given key if it is held by ownerID.
	// Return a boolean indicating whether the lock was released, and an error if any.
	// A missing lock or a lock of another owner yields false without error.
	ReleaseLock(ctx context.Context, key string, ownerID string) (ok bool, err error)
}
