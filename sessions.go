package studycompanion

import (
	"context"
	"sync"
	"time"
)

// Session is the state owned by one browser session.
type Session struct {
	ID      string
	Plan    *PlanContext
	History *History
	Gate    *BusyGate

	lastSeen time.Time
}

// SessionRegistry hands out sessions by id, loading persisted state the
// first time an id is seen.
type SessionRegistry struct {
	mu       sync.Mutex
	store    Store
	sessions map[string]*Session
	now      func() time.Time
}

func NewSessionRegistry(store Store) *SessionRegistry {
	return &SessionRegistry{
		store:    store,
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// Get returns the session for id, creating and loading it if needed.
func (r *SessionRegistry) Get(ctx context.Context, id string) *Session {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if !ok {
		s = &Session{
			ID:      id,
			Plan:    NewPlanContext(r.store, id),
			History: NewHistory(r.store, id),
			Gate:    &BusyGate{},
		}
		r.sessions[id] = s
	}
	s.lastSeen = r.now()
	r.mu.Unlock()

	s.Plan.Load(ctx)
	return s
}

// Prune drops sessions idle for longer than idle that have no request in
// flight. Their state stays in the store and is reloaded on next use.
func (r *SessionRegistry) Prune(idle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-idle)
	pruned := 0
	for id, s := range r.sessions {
		if s.lastSeen.Before(cutoff) && !s.Gate.Busy() {
			delete(r.sessions, id)
			pruned++
		}
	}
	return pruned
}

// Len returns the number of sessions held in memory.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
