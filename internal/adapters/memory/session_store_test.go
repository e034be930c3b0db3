package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/forum-api/internal/domain/auth"
	"github.com/target/forum-api/internal/testutil"
)

type seqTokens struct{ n int }

func (g *seqTokens) NewToken() (string, error) {
	g.n++
	return fmt.Sprintf("tok-%d", g.n), nil
}

var alice = domainauth.Identity{UserID: "user-1", Username: "alice"}

func newStore(single bool) (*SessionStore, *testutil.Clock) {
	clock := testutil.NewClock(testutil.TestTime())
	return NewSessionStore(SessionStoreOptions{
		IdleTimeout:   30 * time.Minute,
		SingleSession: single,
		Now:           clock.Now,
	}), clock
}

func TestSessionStore_CreateReadDestroy(t *testing.T) {
	store, _ := newStore(true)
	ctx := context.Background()

	sess, err := store.Create(ctx, alice, "")
	require.NoError(t, err)
	assert.Len(t, sess.ID, 43)

	got, err := store.Read(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, alice, got.Identity())

	require.NoError(t, store.Destroy(ctx, sess.ID))
	require.NoError(t, store.Destroy(ctx, sess.ID), "destroy must be idempotent")

	_, err = store.Read(ctx, sess.ID)
	assert.ErrorIs(t, err, domainauth.ErrSessionNotFound)
	assert.Zero(t, store.Len())
}

func TestSessionStore_RejectsEmptyIdentity(t *testing.T) {
	store, _ := newStore(true)
	_, err := store.Create(context.Background(), domainauth.Identity{}, "")
	require.Error(t, err)
}

func TestSessionStore_IdleExpiry(t *testing.T) {
	store, clock := newStore(true)
	ctx := context.Background()

	sess, err := store.Create(ctx, alice, "")
	require.NoError(t, err)

	clock.Advance(20 * time.Minute)
	_, err = store.Read(ctx, sess.ID)
	require.NoError(t, err, "read inside idle window")

	clock.Advance(20 * time.Minute)
	_, err = store.Read(ctx, sess.ID)
	require.NoError(t, err, "previous read slid the window")

	clock.Advance(31 * time.Minute)
	_, err = store.Read(ctx, sess.ID)
	assert.ErrorIs(t, err, domainauth.ErrSessionNotFound)
}

func TestSessionStore_CreateRotatesPriorID(t *testing.T) {
	store, _ := newStore(false)
	ctx := context.Background()

	anon, err := store.Create(ctx, domainauth.Identity{UserID: "user-2", Username: "bob"}, "")
	require.NoError(t, err)

	sess, err := store.Create(ctx, alice, anon.ID)
	require.NoError(t, err)
	assert.NotEqual(t, anon.ID, sess.ID)

	_, err = store.Read(ctx, anon.ID)
	assert.ErrorIs(t, err, domainauth.ErrSessionNotFound)

	// The rotated id left bob's index too.
	n, err := store.DestroyUser(ctx, "user-2")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSessionStore_SingleSessionPerUser(t *testing.T) {
	store, _ := newStore(true)
	ctx := context.Background()

	first, err := store.Create(ctx, alice, "")
	require.NoError(t, err)
	second, err := store.Create(ctx, alice, "")
	require.NoError(t, err)

	_, err = store.Read(ctx, first.ID)
	assert.ErrorIs(t, err, domainauth.ErrSessionNotFound)
	_, err = store.Read(ctx, second.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1, store.Len())
}

func TestSessionStore_UnlimitedSessionsAndDestroyUser(t *testing.T) {
	store, _ := newStore(false)
	ctx := context.Background()

	for range 3 {
		_, err := store.Create(ctx, alice, "")
		require.NoError(t, err)
	}
	bob, err := store.Create(ctx, domainauth.Identity{UserID: "user-2", Username: "bob"}, "")
	require.NoError(t, err)

	removed, err := store.DestroyUser(ctx, alice.UserID)
	require.NoError(t, err)
	assert.Equal(t, 3, removed)
	assert.Equal(t, 1, store.Len())

	_, err = store.Read(ctx, bob.ID)
	assert.NoError(t, err)
}

func TestSessionStore_Sweep(t *testing.T) {
	store, clock := newStore(false)
	ctx := context.Background()

	stale, err := store.Create(ctx, alice, "")
	require.NoError(t, err)
	clock.Advance(20 * time.Minute)
	fresh, err := store.Create(ctx, alice, "")
	require.NoError(t, err)

	clock.Advance(15 * time.Minute)
	assert.Equal(t, 1, store.Sweep(clock.Now()))
	assert.Equal(t, 1, store.Len())

	_, err = store.Read(ctx, stale.ID)
	assert.ErrorIs(t, err, domainauth.ErrSessionNotFound)
	_, err = store.Read(ctx, fresh.ID)
	assert.NoError(t, err)
}

func TestSessionStore_TokenCollision(t *testing.T) {
	store := NewSessionStore(SessionStoreOptions{Tokens: fixedToken("same")})
	ctx := context.Background()

	_, err := store.Create(ctx, alice, "")
	require.NoError(t, err)
	_, err = store.Create(ctx, domainauth.Identity{UserID: "user-2"}, "")
	require.Error(t, err)
}

type fixedToken string

func (f fixedToken) NewToken() (string, error) { return string(f), nil }

func TestSessionStore_ConcurrentAccess(t *testing.T) {
	store := NewSessionStore(SessionStoreOptions{})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := domainauth.Identity{UserID: fmt.Sprintf("user-%d", i%5)}
			sess, err := store.Create(ctx, id, "")
			if err != nil {
				t.Errorf("create: %v", err)
				return
			}
			_, _ = store.Read(ctx, sess.ID)
			_ = store.Destroy(ctx, sess.ID)
			store.Sweep(time.Now())
		}(i)
	}
	wg.Wait()
}

func TestSessionStore_SequentialTokens(t *testing.T) {
	store := NewSessionStore(SessionStoreOptions{Tokens: &seqTokens{}})
	sess, err := store.Create(context.Background(), alice, "")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", sess.ID)
}
