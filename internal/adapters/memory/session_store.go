// Package memory provides in-process adapters used for development, single-instance
// deployments and tests.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/target/forum-api/internal/data/cryptoutil"
	domainauth "github.com/target/forum-api/internal/domain/auth"
)

const defaultIdleTimeout = 30 * time.Minute

// SessionStoreOptions configures an in-memory session store.
type SessionStoreOptions struct {
	IdleTimeout   time.Duration
	SingleSession bool
	Tokens        cryptoutil.TokenGenerator
	Now           func() time.Time
}

// SessionStore keeps sessions in a map guarded by a RWMutex. Read touches the
// session, so it takes the write lock; Len and Sweep scans share the read path.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]domainauth.Session
	byUser   map[string]map[string]struct{}

	idle   time.Duration
	single bool
	tokens cryptoutil.TokenGenerator
	now    func() time.Time
}

// NewSessionStore creates an empty in-memory session store.
func NewSessionStore(opts SessionStoreOptions) *SessionStore {
	s := &SessionStore{
		sessions: make(map[string]domainauth.Session),
		byUser:   make(map[string]map[string]struct{}),
		idle:     opts.IdleTimeout,
		single:   opts.SingleSession,
		tokens:   opts.Tokens,
		now:      opts.Now,
	}
	if s.idle <= 0 {
		s.idle = defaultIdleTimeout
	}
	if s.tokens == nil {
		s.tokens = cryptoutil.RandomTokenGenerator{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Create issues a new session, removing priorID and (in single-session mode) the
// user's other sessions under the same lock.
func (s *SessionStore) Create(
	_ context.Context,
	identity domainauth.Identity,
	priorID string,
) (domainauth.Session, error) {
	if identity.UserID == "" {
		return domainauth.Session{}, errors.New("identity user ID cannot be empty")
	}
	id, err := s.tokens.NewToken()
	if err != nil {
		return domainauth.Session{}, fmt.Errorf("generate session id: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.sessions[id]; taken {
		return domainauth.Session{}, errors.New("session id collision")
	}

	s.removeLocked(priorID)
	if s.single {
		for old := range s.byUser[identity.UserID] {
			s.removeLocked(old)
		}
	}

	now := s.now()
	sess := domainauth.Session{
		ID:        id,
		UserID:    identity.UserID,
		Username:  identity.Username,
		CreatedAt: now,
	}.Touch(now, s.idle)

	s.sessions[id] = sess
	ids, ok := s.byUser[identity.UserID]
	if !ok {
		ids = make(map[string]struct{})
		s.byUser[identity.UserID] = ids
	}
	ids[id] = struct{}{}
	return sess, nil
}

// Read returns a snapshot of the session and restarts its idle window.
func (s *SessionStore) Read(_ context.Context, id string) (domainauth.Session, error) {
	if id == "" {
		return domainauth.Session{}, domainauth.ErrSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return domainauth.Session{}, domainauth.ErrSessionNotFound
	}
	now := s.now()
	if sess.Expired(now) {
		s.removeLocked(id)
		return domainauth.Session{}, domainauth.ErrSessionNotFound
	}
	sess = sess.Touch(now, s.idle)
	s.sessions[id] = sess
	return sess, nil
}

// Destroy removes a session; unknown ids are ignored.
func (s *SessionStore) Destroy(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(id)
	return nil
}

// DestroyUser removes all sessions of userID.
func (s *SessionStore) DestroyUser(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.byUser[userID]
	n := len(ids)
	for id := range ids {
		delete(s.sessions, id)
	}
	delete(s.byUser, userID)
	return n, nil
}

// Sweep deletes every session that is idle-expired at now and returns how many it removed.
func (s *SessionStore) Sweep(now time.Time) int {
	s.mu.RLock()
	var expired []string
	for id, sess := range s.sessions {
		if sess.Expired(now) {
			expired = append(expired, id)
		}
	}
	s.mu.RUnlock()

	if len(expired) == 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for _, id := range expired {
		// Re-check: a Read may have touched it between the two locks.
		if sess, ok := s.sessions[id]; ok && sess.Expired(now) {
			s.removeLocked(id)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored sessions, including expired ones not yet swept.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *SessionStore) removeLocked(id string) {
	if id == "" {
		return
	}
	sess, ok := s.sessions[id]
	if !ok {
		return
	}
	delete(s.sessions, id)
	if ids, ok := s.byUser[sess.UserID]; ok {
		delete(ids, id)
		if len(ids) == 0 {
			delete(s.byUser, sess.UserID)
		}
	}
}
