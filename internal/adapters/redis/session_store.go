package redis

// Package redis provides Redis-based adapters for the forum API.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/target/forum-api/internal/data/cryptoutil"
	domainauth "github.com/target/forum-api/internal/domain/auth"
)

const (
	defaultPrefix      = "session:"
	defaultIdleTimeout = 30 * time.Minute
	userIndexSegment   = "user:"
)

// SessionStoreOptions configures a Redis-backed session store.
type SessionStoreOptions struct {
	Client redis.UniversalClient
	// Prefix namespaces every key. Defaults to "session:".
	Prefix string
	// IdleTimeout is both the key TTL and the sliding idle window.
	IdleTimeout time.Duration
	// SingleSession makes Create evict the user's other sessions.
	SingleSession bool
	Tokens        cryptoutil.TokenGenerator
	Now           func() time.Time
}

// SessionStore is a Redis-based session store for production use.
// Sessions live under <prefix><id> with a TTL equal to the idle timeout; each user has
// a set <prefix>user:<userID> indexing their live session ids.
type SessionStore struct {
	client redis.UniversalClient
	prefix string
	idle   time.Duration
	single bool
	tokens cryptoutil.TokenGenerator
	now    func() time.Time
}

// NewSessionStore creates a new Redis-based session store.
func NewSessionStore(opts SessionStoreOptions) (*SessionStore, error) {
	if opts.Client == nil {
		return nil, errors.New("redis client is required")
	}
	s := &SessionStore{
		client: opts.Client,
		prefix: opts.Prefix,
		idle:   opts.IdleTimeout,
		single: opts.SingleSession,
		tokens: opts.Tokens,
		now:    opts.Now,
	}
	if s.prefix == "" {
		s.prefix = defaultPrefix
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
	return s, nil
}

func (s *SessionStore) sessionKey(id string) string { return s.prefix + id }

func (s *SessionStore) userKey(userID string) string {
	return s.prefix + userIndexSegment + userID
}

// Create issues a new session for identity. priorID is destroyed first through Destroy,
// so it leaves whichever user index holds it. In single-session mode the user's other
// sessions are evicted in the same MULTI/EXEC that writes the new one.
func (s *SessionStore) Create(
	ctx context.Context,
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

	now := s.now()
	sess := domainauth.Session{
		ID:        id,
		UserID:    identity.UserID,
		Username:  identity.Username,
		CreatedAt: now,
	}.Touch(now, s.idle)

	data, err := json.Marshal(sess)
	if err != nil {
		return domainauth.Session{}, fmt.Errorf("marshal session: %w", err)
	}

	if err := s.Destroy(ctx, priorID); err != nil {
		return domainauth.Session{}, fmt.Errorf("destroy prior session: %w", err)
	}
	evict, err := s.evictionSet(ctx, identity.UserID)
	if err != nil {
		return domainauth.Session{}, err
	}

	userKey := s.userKey(identity.UserID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, old := range evict {
			pipe.Del(ctx, s.sessionKey(old))
			pipe.SRem(ctx, userKey, old)
		}
		pipe.Set(ctx, s.sessionKey(id), data, s.idle)
		pipe.SAdd(ctx, userKey, id)
		pipe.Expire(ctx, userKey, s.idle)
		return nil
	})
	if err != nil {
		return domainauth.Session{}, fmt.Errorf("redis create session: %w", err)
	}
	return sess, nil
}

// evictionSet lists the user's live session ids when only one session per user is allowed.
func (s *SessionStore) evictionSet(ctx context.Context, userID string) ([]string, error) {
	if !s.single {
		return nil, nil
	}
	ids, err := s.client.SMembers(ctx, s.userKey(userID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis list user sessions: %w", err)
	}
	return ids, nil
}

// Read returns the session for id and slides its idle window.
func (s *SessionStore) Read(ctx context.Context, id string) (domainauth.Session, error) {
	if !validID(id) {
		return domainauth.Session{}, domainauth.ErrSessionNotFound
	}

	key := s.sessionKey(id)
	data, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domainauth.Session{}, domainauth.ErrSessionNotFound
		}
		return domainauth.Session{}, fmt.Errorf("redis get: %w", err)
	}

	var sess domainauth.Session
	if unmarshalErr := json.Unmarshal([]byte(data), &sess); unmarshalErr != nil {
		return domainauth.Session{}, fmt.Errorf("unmarshal session: %w", unmarshalErr)
	}

	now := s.now()
	if sess.Expired(now) {
		// Redis TTL normally wins this race; clean up if it did not.
		if deleteErr := s.Destroy(ctx, id); deleteErr != nil {
			return domainauth.Session{}, fmt.Errorf("cleanup expired session: %w", deleteErr)
		}
		return domainauth.Session{}, domainauth.ErrSessionNotFound
	}

	touched := sess.Touch(now, s.idle)
	payload, err := json.Marshal(touched)
	if err != nil {
		return domainauth.Session{}, fmt.Errorf("marshal session: %w", err)
	}

	// SET XX only rewrites a key that still exists, so a concurrent Destroy is never undone.
	var setCmd *redis.BoolCmd
	_, err = s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		setCmd = pipe.SetXX(ctx, key, payload, s.idle)
		pipe.Expire(ctx, s.userKey(sess.UserID), s.idle)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return domainauth.Session{}, fmt.Errorf("redis touch session: %w", err)
	}
	if !setCmd.Val() {
		return domainauth.Session{}, domainauth.ErrSessionNotFound
	}
	return touched, nil
}

// Destroy removes the session. Unknown ids are ignored.
func (s *SessionStore) Destroy(ctx context.Context, id string) error {
	if !validID(id) {
		return nil
	}

	data, err := s.client.GetDel(ctx, s.sessionKey(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("redis delete session: %w", err)
	}

	var sess domainauth.Session
	if unmarshalErr := json.Unmarshal([]byte(data), &sess); unmarshalErr != nil || sess.UserID == "" {
		// The key is gone; a stale index entry expires with the index TTL.
		return nil
	}
	if err := s.client.SRem(ctx, s.userKey(sess.UserID), id).Err(); err != nil {
		return fmt.Errorf("redis update user index: %w", err)
	}
	return nil
}

// DestroyUser removes every session indexed for userID.
func (s *SessionStore) DestroyUser(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, nil
	}

	userKey := s.userKey(userID)
	ids, err := s.client.SMembers(ctx, userKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("redis list user sessions: %w", err)
	}

	dels := make([]*redis.IntCmd, 0, len(ids))
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range ids {
			dels = append(dels, pipe.Del(ctx, s.sessionKey(id)))
		}
		pipe.Del(ctx, userKey)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("redis purge user sessions: %w", err)
	}

	removed := 0
	for _, cmd := range dels {
		removed += int(cmd.Val())
	}
	return removed, nil
}

// validID rejects ids that could address the user index namespace.
func validID(id string) bool {
	return id != "" && !strings.Contains(id, ":")
}
