package lockmgr

import (
	"context"
	"github.com/ValentinKolb/dCAS/lib/script"
	"github.com/ValentinKolb/dCAS/lib/session"
	"github.com/google/uuid"
	"github.com/lni/dragonboat/v4/logger"
	"time"
)

var Logger = logger.GetLogger("lockmgr")

type lockMgrImpl struct {
	engine  *script.Engine
	session session.ISession
}

// NewLockManager creates a lock manager issuing its scripts over s.
// The manager borrows the session, closing it stays the caller's job.
func NewLockManager(engine *script.Engine, s session.ISession) ILockManager {
	return &lockMgrImpl{
		engine:  engine,
		session: s,
	}
}

func (lm *lockMgrImpl) AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, string, error) {
	// Generate owner ID
	ownerID := generateOwnerID()

	// Try to acquire the lock (set only if unset - one script evaluation)
	ok, err := lm.engine.AcquireLock(ctx, lm.session, key, ownerID, ttl.Milliseconds())
	if err != nil {
		Logger.Warningf("acquiring lock %s failed: %v", key, err)
		return false, "", err
	}
	if !ok {
		return false, "", nil
	}
	return true, ownerID, nil
}

func (lm *lockMgrImpl) ReleaseLock(ctx context.Context, key string, ownerID string) (bool, error) {
	res, err := lm.engine.ReleaseLockIfOwner(ctx, lm.session, key, ownerID)
	if err != nil {
		Logger.Warningf("releasing lock %s failed: %v", key, err)
		return false, err
	}
	return res == script.Released, nil
}

// generateOwnerID creates a new unique owner ID
func generateOwnerID() string {
	return uuid.NewString()
}
