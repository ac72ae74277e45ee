package focus

import (
	"sort"
	"sync"
	"time"

	"github.com/B-Eddie/WOSSIB/internal/domain/shared"
)

// SessionStore is the in-memory registry of active sessions, one per owner.
// It is process-resident only: a restart clears all active sessions.
//
// Handlers and the expiry sweep run on separate goroutines, so every
// check-then-act sequence happens under the store's mutex. External calls
// (capability grants, platform sends) never happen while the lock is held.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[OwnerID]*Session
}

// NewSessionStore creates an empty session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[OwnerID]*Session),
	}
}

// Put inserts a session for its owner. It fails with ErrAlreadyActive when
// the owner already has one, leaving the existing session untouched.
func (st *SessionStore) Put(s *Session) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, exists := st.sessions[s.Owner]; exists {
		return shared.ErrAlreadyActive
	}
	st.sessions[s.Owner] = s
	return nil
}

// Get returns the owner's session, swept or not.
func (st *SessionStore) Get(owner OwnerID) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[owner]
	return s, ok
}

// Remove deletes and returns the owner's session.
func (st *SessionStore) Remove(owner OwnerID) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[owner]
	if ok {
		delete(st.sessions, owner)
	}
	return s, ok
}

// RemoveIfEndedBy deletes and returns the owner's session only when it has
// ended by now. A fresh session started after an expiry snapshot was taken
// stays in place.
func (st *SessionStore) RemoveIfEndedBy(owner OwnerID, now time.Time) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[owner]
	if !ok || !s.Expired(now) {
		return nil, false
	}
	delete(st.sessions, owner)
	return s, true
}

// Active returns the sessions whose end time has not passed, sorted by
// ascending minutes remaining. Sessions past their end time are filtered
// lazily here, independent of sweep timing.
func (st *SessionStore) Active(now time.Time) []*Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	active := make([]*Session, 0, len(st.sessions))
	for _, s := range st.sessions {
		if !s.Expired(now) {
			active = append(active, s)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		return active[i].EndsAt.Before(active[j].EndsAt)
	})
	return active
}

// ExpiredOwners snapshots the owners whose sessions have ended by now.
// The snapshot lets the sweeper terminate each one without holding the lock,
// tolerating concurrent Start calls for other owners.
func (st *SessionStore) ExpiredOwners(now time.Time) []OwnerID {
	st.mu.Lock()
	defer st.mu.Unlock()

	expired := make([]OwnerID, 0)
	for owner, s := range st.sessions {
		if s.Expired(now) {
			expired = append(expired, owner)
		}
	}
	return expired
}

// Len returns the number of stored sessions, swept or not.
func (st *SessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}
