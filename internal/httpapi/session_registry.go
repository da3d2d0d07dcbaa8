package httpapi

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionRegistry tracks active audio sessions and supports graceful
// draining. When draining is enabled, new sessions are rejected while
// in-flight sessions finish naturally.
//
// The mu mutex makes the draining check and wg.Add atomic in Add(),
// preventing a TOCTOU race where StartDraining+Wait could be called between
// the draining check and wg.Add.
//
// When a Redis client is configured, the registry mirrors active sessions
// into it so operators can see cluster-wide session state; Redis being down
// never blocks the session itself.
type SessionRegistry struct {
	mu       sync.Mutex
	draining bool
	wg       sync.WaitGroup
	count    atomic.Int64

	rdb    *redis.Client
	logger *log.Logger
	ttl    time.Duration
}

// NewSessionRegistry creates a registry. rdb may be nil.
func NewSessionRegistry(rdb *redis.Client, logger *log.Logger) *SessionRegistry {
	if logger == nil {
		logger = log.Default()
	}
	return &SessionRegistry{
		rdb:    rdb,
		logger: logger,
		ttl:    24 * time.Hour,
	}
}

// Add registers a new active session. Returns false if the registry is
// draining, meaning no new sessions should be accepted.
func (sr *SessionRegistry) Add(sessionID, remoteAddr string) bool {
	sr.mu.Lock()
	if sr.draining {
		sr.mu.Unlock()
		return false
	}
	sr.wg.Add(1)
	sr.count.Add(1)
	sr.mu.Unlock()

	if sr.rdb != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := sr.rdb.HSet(ctx, "session:"+sessionID, map[string]interface{}{
			"remote_addr": remoteAddr,
			"started_at":  time.Now().UTC().Format(time.RFC3339),
		}).Err(); err != nil {
			sr.logger.Printf("registry: redis mirror failed for %s: %v", sessionID, err)
		} else {
			sr.rdb.SAdd(ctx, "active_sessions", sessionID)
			sr.rdb.Expire(ctx, "session:"+sessionID, sr.ttl)
		}
	}
	return true
}

// Done marks a session as completed. Must be called exactly once per
// successful Add.
func (sr *SessionRegistry) Done(sessionID string) {
	if sr.rdb != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		sr.rdb.Del(ctx, "session:"+sessionID)
		sr.rdb.SRem(ctx, "active_sessions", sessionID)
	}

	sr.count.Add(-1)
	sr.wg.Done()
}

// StartDraining sets the draining flag so that future Add calls return false.
func (sr *SessionRegistry) StartDraining() {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	sr.draining = true
}

// IsDraining reports whether the registry is in draining mode.
func (sr *SessionRegistry) IsDraining() bool {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	return sr.draining
}

// ActiveCount returns the number of currently active sessions.
func (sr *SessionRegistry) ActiveCount() int64 {
	return sr.count.Load()
}

// Wait blocks until all active sessions have completed.
func (sr *SessionRegistry) Wait() {
	sr.wg.Wait()
}
