package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/promobot/core/logger"
)

// Store holds one session per user with per-user exclusive updates.
// The registry lock only guards the map; mutations run under the entry's own
// mutex so concurrent users never serialize against each other while updates
// to the same user stay strictly ordered.
type Store struct {
	mu      sync.RWMutex
	entries map[int64]*entry

	clock func() time.Time
}

type entry struct {
	mu      sync.Mutex
	session Session
}

// NewStore constructs an empty in-memory Store.
func NewStore() *Store {
	return &Store{
		entries: make(map[int64]*entry),
		clock:   time.Now,
	}
}

// GetOrCreate returns a copy of the session for userID, creating an idle one
// if none exists. Creation is atomic with respect to concurrent callers.
func (s *Store) GetOrCreate(userID int64) Session {
	e := s.entryFor(userID)
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session
}

// Get returns a copy of the session for userID if one exists.
func (s *Store) Get(userID int64) (Session, bool) {
	s.mu.RLock()
	e, ok := s.entries[userID]
	s.mu.RUnlock()
	if !ok {
		return Session{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session, true
}

// Update applies fn to the session for userID under that user's lock and
// returns the updated copy. The session is created idle if missing, and
// LastActivity is refreshed on every call.
func (s *Store) Update(userID int64, fn func(*Session)) Session {
	e := s.entryFor(userID)
	e.mu.Lock()
	defer e.mu.Unlock()
	if fn != nil {
		fn(&e.session)
	}
	e.session.UserID = userID
	e.session.LastActivity = s.clock()
	return e.session
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Delete removes the session for userID.
func (s *Store) Delete(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, userID)
}

// EvictIdle removes sessions whose LastActivity is older than maxIdle and
// returns how many were dropped. Sessions being actively mutated keep their
// entry lock, so eviction never observes a half-applied update.
func (s *Store) EvictIdle(maxIdle time.Duration) int {
	if maxIdle <= 0 {
		return 0
	}
	cutoff := s.clock().Add(-maxIdle)

	s.mu.Lock()
	defer s.mu.Unlock()
	evicted := 0
	for id, e := range s.entries {
		e.mu.Lock()
		stale := e.session.LastActivity.Before(cutoff)
		e.mu.Unlock()
		if stale {
			delete(s.entries, id)
			evicted++
		}
	}
	return evicted
}

// Run sweeps idle sessions every interval until ctx is done.
func (s *Store) Run(ctx context.Context, maxIdle, interval time.Duration) {
	if interval <= 0 || maxIdle <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.EvictIdle(maxIdle); n > 0 {
				logger.Debug(ctx, "session", "evict.sweep",
					slog.Int("count", n),
					slog.Int("remaining", s.Len()),
				)
			}
		}
	}
}

func (s *Store) entryFor(userID int64) *entry {
	s.mu.RLock()
	e, ok := s.entries[userID]
	s.mu.RUnlock()
	if ok {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok = s.entries[userID]; ok {
		return e
	}
	e = &entry{session: Session{
		UserID:       userID,
		State:        StateIdle,
		LastActivity: s.clock(),
	}}
	s.entries[userID] = e
	return e
}
