// Package session implements the server-side session registry.  A session
// is an opaque token mapped to a principal email and an expiry, plus a
// short-id indirection layer so clients never see raw tokens.  Tokens move
// absent → active → expired/revoked; expired tokens are lazily deleted on
// verification.  The registry is deliberately dumb about principals: it
// stores whatever email it is given and leaves account existence checks to
// the auth middleware, so a stale session after out-of-band account
// deletion verifies here and fails there.
package session

import (
	"sync"
	"time"

	"github.com/EldonT123/bs-reviews/internal/utils"
)

// Principal kinds tracked by the registry.  Users authenticate with a short
// session id; admins present their raw token in a dedicated header.
const (
	KindUser  = "user"
	KindAdmin = "admin"
)

// Session is the registry record behind a token.
type Session struct {
	Token     string    `json:"-"`
	Email     string    `json:"email"`
	Kind      string    `json:"kind"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Store is the session registry interface.  Two implementations exist: an
// in-memory map behind a mutex (default) and a Redis-backed store for
// deployments that want sessions to survive a restart.
type Store interface {
	// Create mints a new active token for the principal.
	Create(email, kind string) (Session, error)
	// CreateID mints a new token and a new short id pointing at it.
	CreateID(email, kind string) (string, Session, error)
	// Verify resolves a token.  An expired token is deleted and reported
	// as absent.
	Verify(token string) (Session, bool)
	// VerifyID resolves a short id through to its token.
	VerifyID(id string) (Session, bool)
	// Revoke deletes a token.  Returns false if it was already absent.
	Revoke(token string) bool
	// RevokeID deletes a short id and its underlying token.
	RevokeID(id string) bool
	// RevokeAll deletes every session belonging to the email and any
	// short ids left pointing at them.  Returns the number of tokens
	// revoked.
	RevokeAll(email string) int
	// Sweep removes expired sessions.  Best-effort; never fails.
	Sweep() int
}

// MemoryStore keeps the registry in process memory.  All sessions are lost
// on restart and every user must re-authenticate; this is a documented
// limitation, not a bug.
type MemoryStore struct {
	mu     sync.Mutex
	ttl    time.Duration
	tokens map[string]Session
	ids    map[string]string // short id -> token

	// overridable for tests
	now      func() time.Time
	newToken func() (string, error)
	newID    func() (string, error)
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:      ttl,
		tokens:   map[string]Session{},
		ids:      map[string]string{},
		now:      time.Now,
		newToken: utils.NewSessionToken,
		newID:    utils.NewSessionID,
	}
}

func (s *MemoryStore) Create(email, kind string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLocked(email, kind)
}

func (s *MemoryStore) createLocked(email, kind string) (Session, error) {
	token, err := s.newToken()
	if err != nil {
		return Session{}, err
	}
	sess := Session{
		Token:     token,
		Email:     utils.NormalizeEmail(email),
		Kind:      kind,
		ExpiresAt: s.now().Add(s.ttl),
	}
	s.tokens[token] = sess
	return sess, nil
}

func (s *MemoryStore) CreateID(email, kind string) (string, Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.createLocked(email, kind)
	if err != nil {
		return "", Session{}, err
	}
	// Short ids are small enough to collide; keep generating until the id
	// is unused.
	for {
		id, err := s.newID()
		if err != nil {
			delete(s.tokens, sess.Token)
			return "", Session{}, err
		}
		if _, taken := s.ids[id]; taken {
			continue
		}
		s.ids[id] = sess.Token
		return id, sess, nil
	}
}

func (s *MemoryStore) Verify(token string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.verifyLocked(token)
}

func (s *MemoryStore) verifyLocked(token string) (Session, bool) {
	sess, ok := s.tokens[token]
	if !ok {
		return Session{}, false
	}
	if !s.now().Before(sess.ExpiresAt) {
		delete(s.tokens, token) // lazy expiry
		return Session{}, false
	}
	return sess, true
}

func (s *MemoryStore) VerifyID(id string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, ok := s.ids[id]
	if !ok {
		return Session{}, false
	}
	sess, ok := s.verifyLocked(token)
	if !ok {
		delete(s.ids, id) // token expired or revoked out from under the id
		return Session{}, false
	}
	return sess, true
}

func (s *MemoryStore) Revoke(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tokens[token]; !ok {
		return false
	}
	delete(s.tokens, token)
	return true
}

func (s *MemoryStore) RevokeID(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, ok := s.ids[id]
	if !ok {
		return false
	}
	delete(s.ids, id)
	_, had := s.tokens[token]
	delete(s.tokens, token)
	return had
}

func (s *MemoryStore) RevokeAll(email string) int {
	email = utils.NormalizeEmail(email)
	s.mu.Lock()
	defer s.mu.Unlock()
	revoked := 0
	for token, sess := range s.tokens {
		if sess.Email == email {
			delete(s.tokens, token)
			revoked++
		}
	}
	s.dropDanglingIDsLocked()
	return revoked
}

func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	swept := 0
	for token, sess := range s.tokens {
		if !now.Before(sess.ExpiresAt) {
			delete(s.tokens, token)
			swept++
		}
	}
	s.dropDanglingIDsLocked()
	return swept
}

func (s *MemoryStore) dropDanglingIDsLocked() {
	for id, token := range s.ids {
		if _, ok := s.tokens[token]; !ok {
			delete(s.ids, id)
		}
	}
}
