package schedule

import (
	"context"
	"sync"
)

// CancelRegistry tracks in-flight cycles by user ID so a cancellation signal
// can abort the matching run. Matching is by user ID equality only; other
// users' cycles are untouched.
type CancelRegistry struct {
	mu      sync.Mutex
	running map[string]context.CancelFunc
}

func NewCancelRegistry() *CancelRegistry {
	return &CancelRegistry{running: make(map[string]context.CancelFunc)}
}

// Register associates a cancel function with a user's in-flight cycle.
// One cycle per user is in flight at a time.
func (r *CancelRegistry) Register(userID string, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running[userID] = cancel
}

func (r *CancelRegistry) Unregister(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.running, userID)
}

// Cancel aborts the user's in-flight cycle, if any. It reports whether a
// cycle was actually cancelled.
func (r *CancelRegistry) Cancel(userID string) bool {
	r.mu.Lock()
	cancel, ok := r.running[userID]
	delete(r.running, userID)
	r.mu.Unlock()

	if ok {
		cancel()
	}
	return ok
}
