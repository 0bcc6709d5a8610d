package survey

import "sync"

// Store holds one session per respondent identity.
//
// Sessions are volatile by design; a restart drops every in-flight
// conversation. Lock serializes transitions per identity so a double click
// cannot interleave two mutations of the same session.
type Store struct {
	mu       sync.RWMutex
	sessions map[int64]*Session

	locksMu sync.Mutex
	locks   map[int64]*sync.Mutex
}

// NewStore constructs an empty in-memory session store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[int64]*Session),
		locks:    make(map[int64]*sync.Mutex),
	}
}

// Lock acquires the per-identity transition lock and returns its release
// function. Locks are never removed; the map grows with the set of
// identities ever seen, which stays small for a single bot process.
func (s *Store) Lock(identity int64) func() {
	s.locksMu.Lock()
	l, ok := s.locks[identity]
	if !ok {
		l = &sync.Mutex{}
		s.locks[identity] = l
	}
	s.locksMu.Unlock()

	l.Lock()
	return l.Unlock
}

// Get returns the session for an identity, or nil when none exists.
func (s *Store) Get(identity int64) *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[identity]
}

// Put stores a session under its identity, replacing any existing one.
func (s *Store) Put(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.Identity] = sess
}

// Remove deletes the session for an identity and reports whether one existed.
func (s *Store) Remove(identity int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[identity]
	delete(s.sessions, identity)
	return ok
}

// InProgress reports whether the identity has an active session.
func (s *Store) InProgress(identity int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sessions[identity]
	return ok
}

// Len returns the number of active sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
