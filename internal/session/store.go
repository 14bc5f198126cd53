// ABOUTME: Process-wide session store keyed by correspondent identity
// ABOUTME: Owns session lifecycle and hands out per-correspondent locks so events serialize

package session

import "sync"

// Store is an in-memory session store. Concurrent events for different
// correspondents proceed independently; events for the same correspondent
// must serialize through Lock/Unlock to avoid lost updates on the draft and
// the welcome flag.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	locks    map[string]*keyLock
}

// keyLock is a per-correspondent mutex with a holder/waiter count. The map
// entry lives only while events for the key are in flight, so the lock map
// stays bounded no matter how many distinct correspondents ever write in.
type keyLock struct {
	mu   sync.Mutex
	refs int
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*Session),
		locks:    make(map[string]*keyLock),
	}
}

// Lock acquires the per-correspondent mutex, creating it on first use.
// The caller must call Unlock with the same key.
func (s *Store) Lock(correspondent string) {
	s.mu.Lock()
	l, ok := s.locks[correspondent]
	if !ok {
		l = &keyLock{}
		s.locks[correspondent] = l
	}
	l.refs++
	s.mu.Unlock()
	l.mu.Lock()
}

// Unlock releases the per-correspondent mutex, dropping the map entry once
// no other event holds or waits on it. Calling Unlock without a matching
// Lock is a caller bug and panics.
func (s *Store) Unlock(correspondent string) {
	s.mu.Lock()
	l, ok := s.locks[correspondent]
	if !ok {
		s.mu.Unlock()
		panic("session: Unlock of unlocked correspondent " + correspondent)
	}
	l.refs--
	if l.refs == 0 {
		delete(s.locks, correspondent)
	}
	s.mu.Unlock()
	l.mu.Unlock()
}

// Get returns the session for a correspondent, creating a fresh Idle,
// un-welcomed session on first contact.
func (s *Store) Get(correspondent string) *Session {
	s.mu.RLock()
	sess, ok := s.sessions[correspondent]
	s.mu.RUnlock()
	if ok {
		return sess
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[correspondent]; ok {
		return sess
	}
	sess = &Session{
		Correspondent: correspondent,
		State:         StateIdle,
	}
	s.sessions[correspondent] = sess
	return sess
}

// Peek returns the session without creating one. The boolean is false when
// the correspondent has never been seen.
func (s *Store) Peek(correspondent string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[correspondent]
	return sess, ok
}

// Delete removes the session entirely. The next event from the
// correspondent starts from a fresh Idle session.
func (s *Store) Delete(correspondent string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, correspondent)
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
