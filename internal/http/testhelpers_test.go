package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/target/forum-api/internal/adapters/memory"
	"github.com/target/forum-api/internal/adapters/passwords"
	"github.com/target/forum-api/internal/core"
	domainauth "github.com/target/forum-api/internal/domain/auth"
	"github.com/target/forum-api/internal/domain/model"
	apperrors "github.com/target/forum-api/internal/errors"
	"github.com/target/forum-api/internal/service"
	"golang.org/x/crypto/bcrypt"
)

// fakeStore is an in-memory backing for the repository fakes below.
type fakeStore struct {
	mu          sync.Mutex
	clock       time.Time
	users       map[string]*model.User
	posts       map[string]*model.Post
	comments    map[string]*model.Comment
	likes       map[string]map[string]*model.Like
	attachments map[string][]*model.Attachment
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		clock:       time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		users:       map[string]*model.User{},
		posts:       map[string]*model.Post{},
		comments:    map[string]*model.Comment{},
		likes:       map[string]map[string]*model.Like{},
		attachments: map[string][]*model.Attachment{},
	}
}

// tick returns a strictly increasing timestamp; callers hold mu.
func (s *fakeStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

type fakeUsers struct{ *fakeStore }

func (f fakeUsers) Create(_ context.Context, p model.CreateUserParams) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if strings.EqualFold(u.Username, p.Username) {
			return nil, apperrors.Conflict("Username is already taken.")
		}
	}
	now := f.tick()
	u := &model.User{ID: uuid.NewString(), Username: p.Username, Email: p.Email, PasswordHash: p.PasswordHash, CreatedAt: now, UpdatedAt: now}
	f.users[u.ID] = u
	return u, nil
}

func (f fakeUsers) GetByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, apperrors.NotFound("user not found")
}

func (f fakeUsers) GetByUsername(_ context.Context, username string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if strings.EqualFold(u.Username, username) {
			return u, nil
		}
	}
	return nil, apperrors.NotFound("user not found")
}

func (f fakeUsers) FindCredential(ctx context.Context, username string) (domainauth.Credential, error) {
	u, err := f.GetByUsername(ctx, username)
	if err != nil {
		return domainauth.Credential{}, err
	}
	return domainauth.Credential{UserID: u.ID, Username: u.Username, PasswordHash: u.PasswordHash}, nil
}

type fakePosts struct{ *fakeStore }

func (f fakePosts) Create(_ context.Context, authorID string, req *model.CreatePostRequest) (*model.Post, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	author, ok := f.users[authorID]
	if !ok {
		return nil, apperrors.NotFound("user not found")
	}
	now := f.tick()
	p := &model.Post{
		ID: uuid.NewString(), AuthorID: authorID, AuthorUsername: author.Username,
		Title: req.Title, Body: req.Body, CreatedAt: now, UpdatedAt: now,
	}
	f.posts[p.ID] = p
	return p, nil
}

func (f fakePosts) GetByID(_ context.Context, id string) (*model.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.posts[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, apperrors.NotFound("post not found")
}

func (f fakePosts) List(_ context.Context, opts model.PostListOptions) ([]*model.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Post
	for _, p := range f.posts {
		if opts.AuthorID != nil && p.AuthorID != *opts.AuthorID {
			continue
		}
		if opts.Q != nil && !strings.Contains(strings.ToLower(p.Title), strings.ToLower(*opts.Q)) {
			continue
		}
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b *model.Post) int { return b.CreatedAt.Compare(a.CreatedAt) })
	if opts.Offset >= len(out) {
		return []*model.Post{}, nil
	}
	out = out[opts.Offset:]
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (f fakePosts) Update(_ context.Context, id string, req *model.UpdatePostRequest) (*model.Post, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.posts[id]
	if !ok {
		return nil, apperrors.NotFound("post not found")
	}
	if req.Title != nil {
		p.Title = *req.Title
	}
	if req.Body != nil {
		p.Body = *req.Body
	}
	p.UpdatedAt = f.tick()
	cp := *p
	return &cp, nil
}

func (f fakePosts) Delete(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.posts[id]; !ok {
		return false, nil
	}
	delete(f.posts, id)
	delete(f.likes, id)
	delete(f.attachments, id)
	for cid, c := range f.comments {
		if c.PostID == id {
			delete(f.comments, cid)
		}
	}
	return true, nil
}

func (f fakePosts) CountByAuthor(_ context.Context, authorID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, p := range f.posts {
		if p.AuthorID == authorID {
			n++
		}
	}
	return n, nil
}

type fakeComments struct{ *fakeStore }

func (f fakeComments) Create(_ context.Context, p core.CreateCommentParams) (*model.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.posts[p.PostID]; !ok {
		return nil, apperrors.NotFound("post not found")
	}
	c := &model.Comment{
		ID: uuid.NewString(), PostID: p.PostID, AuthorID: p.AuthorID,
		AuthorUsername: f.users[p.AuthorID].Username, Body: p.Body, CreatedAt: f.tick(),
	}
	f.comments[c.ID] = c
	return c, nil
}

func (f fakeComments) GetByID(_ context.Context, id string) (*model.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.comments[id]; ok {
		return c, nil
	}
	return nil, apperrors.NotFound("comment not found")
}

func (f fakeComments) ListByPost(_ context.Context, postID string) ([]*model.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Comment
	for _, c := range f.comments {
		if c.PostID == postID {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b *model.Comment) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out, nil
}

func (f fakeComments) Delete(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.comments[id]
	delete(f.comments, id)
	return ok, nil
}

type fakeLikes struct{ *fakeStore }

func (f fakeLikes) Like(_ context.Context, postID, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.posts[postID]; !ok {
		return false, apperrors.NotFound("post not found")
	}
	if f.likes[postID] == nil {
		f.likes[postID] = map[string]*model.Like{}
	}
	if _, ok := f.likes[postID][userID]; ok {
		return false, nil
	}
	f.likes[postID][userID] = &model.Like{PostID: postID, UserID: userID, Username: f.users[userID].Username, CreatedAt: f.tick()}
	return true, nil
}

func (f fakeLikes) Unlike(_ context.Context, postID, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.likes[postID][userID]
	delete(f.likes[postID], userID)
	return ok, nil
}

func (f fakeLikes) CountByPost(_ context.Context, postID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.likes[postID]), nil
}

func (f fakeLikes) ListByPost(_ context.Context, postID string) ([]*model.Like, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*model.Like, 0, len(f.likes[postID]))
	for _, l := range f.likes[postID] {
		out = append(out, l)
	}
	slices.SortFunc(out, func(a, b *model.Like) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

func (f fakeLikes) Exists(_ context.Context, postID, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.likes[postID][userID]
	return ok, nil
}

type fakeAttachments struct{ *fakeStore }

func (f fakeAttachments) Create(_ context.Context, req *model.CreateAttachmentRequest) (*model.Attachment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	a := &model.Attachment{
		ID: uuid.NewString(), PostID: req.PostID, FileName: req.FileName, ContentType: req.ContentType,
		SizeBytes: req.SizeBytes, StorageKey: req.StorageKey, CreatedAt: f.tick(),
	}
	f.attachments[req.PostID] = append(f.attachments[req.PostID], a)
	return a, nil
}

func (f fakeAttachments) ListByPost(_ context.Context, postID string) ([]*model.Attachment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.attachments[postID]), nil
}

// testServer is a fully wired router backed by fakes and the in-memory session store.
type testServer struct {
	t        *testing.T
	handler  http.Handler
	store    *fakeStore
	sessions *memory.SessionStore
	hasher   *passwords.BcryptHasher
	now      time.Time
	nowMu    sync.Mutex
}

const testCookie = "SESSION"

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{
		t:      t,
		store:  newFakeStore(),
		hasher: passwords.NewBcryptHasher(bcrypt.MinCost),
		now:    time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	ts.sessions = memory.NewSessionStore(memory.SessionStoreOptions{
		IdleTimeout:   30 * time.Minute,
		SingleSession: true,
		Now:           ts.clock,
	})

	users := fakeUsers{ts.store}
	posts := fakePosts{ts.store}
	comments := fakeComments{ts.store}
	likes := fakeLikes{ts.store}
	attachments := fakeAttachments{ts.store}

	ts.handler = NewRouter(RouterServices{
		Auth: service.NewAuthService(service.AuthServiceOptions{
			Credentials: users,
			Hasher:      ts.hasher,
			Sessions:    ts.sessions,
			Users:       users,
		}),
		Posts: service.NewPostService(service.PostServiceOptions{
			Posts: posts, Comments: comments, Likes: likes, Attachments: attachments,
		}),
		Comments:    service.NewCommentService(service.CommentServiceOptions{Posts: posts, Comments: comments}),
		Likes:       service.NewLikeService(service.LikeServiceOptions{Posts: posts, Likes: likes}),
		Users:       service.NewUserService(service.UserServiceOptions{Users: users, Posts: posts}),
		Cookies:     CookieConfig{Name: testCookie},
		PublicPaths: []string{"/api/auth/login", "/api/auth/register", "/healthz"},
	})
	return ts
}

func (ts *testServer) clock() time.Time {
	ts.nowMu.Lock()
	defer ts.nowMu.Unlock()
	return ts.now
}

func (ts *testServer) advance(d time.Duration) {
	ts.nowMu.Lock()
	defer ts.nowMu.Unlock()
	ts.now = ts.now.Add(d)
}

// addUser stores a user whose password hash is bcrypt(password).
func (ts *testServer) addUser(username, password string) *model.User {
	ts.t.Helper()
	hash, err := ts.hasher.Hash(password)
	require.NoError(ts.t, err)
	u, err := fakeUsers{ts.store}.Create(context.Background(), model.CreateUserParams{Username: username, PasswordHash: hash})
	require.NoError(ts.t, err)
	return u
}

// do sends a request with an optional session cookie and JSON body.
func (ts *testServer) do(method, path, session string, body any) *httptest.ResponseRecorder {
	ts.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(ts.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if session != "" {
		req.AddCookie(&http.Cookie{Name: testCookie, Value: session})
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

// login logs in and returns the issued session id.
func (ts *testServer) login(username, password string) string {
	ts.t.Helper()
	rec := ts.do(http.MethodPost, "/api/auth/login", "", map[string]string{"username": username, "password": password})
	require.Equal(ts.t, http.StatusOK, rec.Code, rec.Body.String())
	id := sessionCookie(rec)
	require.NotEmpty(ts.t, id)
	return id
}

// sessionCookie returns the session cookie value set by a response, or "".
func sessionCookie(rec *httptest.ResponseRecorder) string {
	for _, c := range rec.Result().Cookies() {
		if c.Name == testCookie && c.MaxAge >= 0 {
			return c.Value
		}
	}
	return ""
}

// decodeEnvelope decodes the response body; Data is decoded into data when non-nil.
func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder, data any) Envelope {
	t.Helper()
	var raw struct {
		Message string          `json:"message"`
		Code    string          `json:"code"`
		Data    json.RawMessage `json:"data"`
		Error   string          `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw), rec.Body.String())
	if data != nil && len(raw.Data) > 0 {
		require.NoError(t, json.Unmarshal(raw.Data, data))
	}
	return Envelope{Message: raw.Message, Code: raw.Code, Error: raw.Error}
}
