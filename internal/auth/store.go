package auth

import (
	"crypto/subtle"
	"sync"
	"time"
)

// DefaultSessionTTL bounds how long an auth-realm session may wait to be
// redeemed by a world-realm hello.
const DefaultSessionTTL = time.Hour

// Session is a verified account waiting to bind to a character. Exactly one
// connection may redeem it.
type Session struct {
	AccountID  uint64
	SessionKey [16]byte
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// SessionStore holds auth sessions between the auth and world handshakes.
// Contention is login-rate, not tick-rate, so a mutex-protected map is fine.
type SessionStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[uint64]*Session
	now      func() time.Time
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionStore{
		ttl:      ttl,
		sessions: make(map[uint64]*Session),
		now:      time.Now,
	}
}

// Put stores a fresh session for the account, replacing any unredeemed one
// (the client restarted the handshake; the old key is dead).
func (s *SessionStore) Put(accountID uint64, key [16]byte) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	sess := &Session{
		AccountID:  accountID,
		SessionKey: key,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.ttl),
	}
	s.sessions[accountID] = sess
	return sess
}

// Redeem validates the presented key against the stored session and consumes
// it. Accepted up to and including the expiry instant; a second redeem with
// the same key fails because the first one deleted the session.
func (s *SessionStore) Redeem(accountID uint64, key []byte) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[accountID]
	if !ok {
		return nil, false
	}
	if s.now().After(sess.ExpiresAt) {
		delete(s.sessions, accountID)
		return nil, false
	}
	if subtle.ConstantTimeCompare(sess.SessionKey[:], key) != 1 {
		return nil, false
	}
	delete(s.sessions, accountID)
	return sess, true
}

// Sweep drops expired sessions. Called periodically from the server's
// housekeeping loop.
func (s *SessionStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for id, sess := range s.sessions {
		if now.After(sess.ExpiresAt) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// SetClock overrides the time source. Test hook.
func (s *SessionStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}
