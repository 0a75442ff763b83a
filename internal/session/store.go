// Package session owns the cookie lifecycle: issuance with hardened
// attributes, sliding inactivity expiry, anti-fixation regeneration, and
// the CSRF double-submit check.
package session

import (
	"context"
	"sync"
	"time"
)

// TouchResult reports what Touch decided for a session id.
type TouchResult int

const (
	// TouchNew means the store had no record; the id is now tracked.
	TouchNew TouchResult = iota
	// TouchRefreshed means the session was active and its timestamp moved.
	TouchRefreshed
	// TouchExpired means the session idled past the timeout and the
	// record was evicted.
	TouchExpired
)

// ActivityStore tracks when each session was last seen. Implementations
// must make the refresh-or-evict decision atomically per key so a sweep
// cannot race a refresh into a false eviction.
type ActivityStore interface {
	Touch(ctx context.Context, sessionID string, now time.Time, timeout time.Duration) (TouchResult, error)
	Delete(ctx context.Context, sessionID string) error
	Sweep(ctx context.Context, now time.Time, timeout time.Duration) (int, error)
}

// MemoryStore is the single-instance ActivityStore: a mutex-guarded map.
// Two requests racing on the same id may each read a slightly stale
// timestamp; the only consequence is a marginally generous window.
type MemoryStore struct {
	mu         sync.Mutex
	lastActive map[string]time.Time
}

// NewMemoryStore returns an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{lastActive: make(map[string]time.Time)}
}

// Touch refreshes the session or evicts it when idle past timeout.
func (s *MemoryStore) Touch(_ context.Context, sessionID string, now time.Time, timeout time.Duration) (TouchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.lastActive[sessionID]
	if ok && now.Sub(prev) > timeout {
		delete(s.lastActive, sessionID)
		return TouchExpired, nil
	}
	s.lastActive[sessionID] = now
	if ok {
		return TouchRefreshed, nil
	}
	return TouchNew, nil
}

// Delete removes a session record.
func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lastActive, sessionID)
	return nil
}

// Sweep purges idle entries. Best-effort GC: anything it misses is still
// caught lazily by Touch.
func (s *MemoryStore) Sweep(_ context.Context, now time.Time, timeout time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, last := range s.lastActive {
		if now.Sub(last) > timeout {
			delete(s.lastActive, id)
			removed++
		}
	}
	return removed, nil
}

// Len reports how many sessions are tracked. Test helper.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lastActive)
}
