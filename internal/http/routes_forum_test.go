package httpx

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/forum-api/internal/domain/model"
)

// forumFixture logs in two users against a fresh router.
type forumFixture struct {
	*testServer
	alice, bob       *model.User
	aliceSID, bobSID string
}

func newForumFixture(t *testing.T) *forumFixture {
	t.Helper()
	ts := newTestServer(t)
	f := &forumFixture{testServer: ts}
	f.alice = ts.addUser("alice", "alice-pass")
	f.bob = ts.addUser("bob", "bob-pass")
	f.aliceSID = ts.login("alice", "alice-pass")
	f.bobSID = ts.login("bob", "bob-pass")
	return f
}

func (f *forumFixture) createPost(sid, title string) *model.Post {
	f.t.Helper()
	rec := f.do(http.MethodPost, "/api/posts", sid, map[string]string{"title": title, "body": "body of " + title})
	require.Equal(f.t, http.StatusCreated, rec.Code, rec.Body.String())
	var p model.Post
	decodeEnvelope(f.t, rec, &p)
	return &p
}

func TestRouter_PostLifecycle(t *testing.T) {
	f := newForumFixture(t)

	post := f.createPost(f.aliceSID, "Hello")
	assert.Equal(t, f.alice.ID, post.AuthorID)
	assert.Equal(t, "alice", post.AuthorUsername)

	rec := f.do(http.MethodGet, "/api/posts/"+post.ID, f.bobSID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var detail model.PostDetail
	decodeEnvelope(t, rec, &detail)
	assert.Equal(t, "Hello", detail.Post.Title)
	assert.NotNil(t, detail.Comments)
	assert.Zero(t, detail.LikeCount)

	rec = f.do(http.MethodPut, "/api/posts/"+post.ID, f.bobSID, map[string]string{"title": "Hijacked"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "not allowed to update this post", decodeEnvelope(t, rec, nil).Message)

	rec = f.do(http.MethodPut, "/api/posts/"+post.ID, f.aliceSID, map[string]string{"title": "Hello again"})
	require.Equal(t, http.StatusOK, rec.Code)
	var updated model.Post
	decodeEnvelope(t, rec, &updated)
	assert.Equal(t, "Hello again", updated.Title)
	assert.Equal(t, "body of Hello", updated.Body)

	rec = f.do(http.MethodDelete, "/api/posts/"+post.ID, f.bobSID, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(http.MethodDelete, "/api/posts/"+post.ID, f.aliceSID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Post deleted", decodeEnvelope(t, rec, nil).Message)

	rec = f.do(http.MethodGet, "/api/posts/"+post.ID, f.aliceSID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_CreatePostValidation(t *testing.T) {
	f := newForumFixture(t)

	rec := f.do(http.MethodPost, "/api/posts", f.aliceSID, map[string]string{"title": "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "title: Missing required parameter;body: Missing required parameter;", decodeEnvelope(t, rec, nil).Message)
}

func TestRouter_ListPosts(t *testing.T) {
	f := newForumFixture(t)
	for i := range 5 {
		f.createPost(f.aliceSID, fmt.Sprintf("alice %d", i))
	}
	f.createPost(f.bobSID, "bob's only post")

	var page Page[*model.Post]
	rec := f.do(http.MethodGet, "/api/posts?limit=4", f.aliceSID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeEnvelope(t, rec, &page)
	require.Len(t, page.Items, 4)
	assert.True(t, page.HasMore)
	assert.Equal(t, "bob's only post", page.Items[0].Title, "newest first")

	page = Page[*model.Post]{}
	rec = f.do(http.MethodGet, "/api/posts?limit=4&offset=4", f.aliceSID, nil)
	decodeEnvelope(t, rec, &page)
	assert.Len(t, page.Items, 2)
	assert.False(t, page.HasMore)

	page = Page[*model.Post]{}
	rec = f.do(http.MethodGet, "/api/posts?author_id="+f.bob.ID, f.aliceSID, nil)
	decodeEnvelope(t, rec, &page)
	require.Len(t, page.Items, 1)
	assert.Equal(t, f.bob.ID, page.Items[0].AuthorID)

	page = Page[*model.Post]{}
	rec = f.do(http.MethodGet, "/api/posts?q=ALICE%203", f.aliceSID, nil)
	decodeEnvelope(t, rec, &page)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "alice 3", page.Items[0].Title)
}

func TestRouter_Comments(t *testing.T) {
	f := newForumFixture(t)
	post := f.createPost(f.aliceSID, "Discuss")

	rec := f.do(http.MethodPost, "/api/posts/"+post.ID+"/comments", f.bobSID, map[string]string{"body": "first!"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var c model.Comment
	decodeEnvelope(t, rec, &c)
	assert.Equal(t, "bob", c.AuthorUsername)

	rec = f.do(http.MethodPost, "/api/posts/"+post.ID+"/comments", f.bobSID, map[string]string{"body": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/api/posts/missing/comments", f.bobSID, map[string]string{"body": "hi"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var list []*model.Comment
	rec = f.do(http.MethodGet, "/api/posts/"+post.ID+"/comments", f.aliceSID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeEnvelope(t, rec, &list)
	require.Len(t, list, 1)

	rec = f.do(http.MethodDelete, "/api/comments/"+c.ID, f.aliceSID, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code, "post owner cannot delete someone else's comment")

	rec = f.do(http.MethodDelete, "/api/comments/"+c.ID, f.bobSID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodGet, "/api/posts/"+post.ID+"/comments", f.aliceSID, nil)
	assert.Contains(t, rec.Body.String(), `"data":[]`)
}

func TestRouter_Likes(t *testing.T) {
	f := newForumFixture(t)
	post := f.createPost(f.aliceSID, "Like me")
	likes := "/api/posts/" + post.ID + "/likes"

	var sum model.LikeSummary
	for range 2 {
		rec := f.do(http.MethodPost, likes, f.bobSID, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		decodeEnvelope(t, rec, &sum)
	}
	assert.Equal(t, 1, sum.Count, "liking twice counts once")
	assert.True(t, sum.LikedByMe)

	sum = model.LikeSummary{}
	decodeEnvelope(t, f.do(http.MethodGet, likes, f.aliceSID, nil), &sum)
	assert.Equal(t, 1, sum.Count)
	assert.False(t, sum.LikedByMe)

	var detail model.PostDetail
	decodeEnvelope(t, f.do(http.MethodGet, "/api/posts/"+post.ID, f.bobSID, nil), &detail)
	assert.Equal(t, 1, detail.LikeCount)
	assert.True(t, detail.LikedByMe)

	sum = model.LikeSummary{}
	rec := f.do(http.MethodDelete, likes, f.bobSID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeEnvelope(t, rec, &sum)
	assert.Zero(t, sum.Count)
	assert.False(t, sum.LikedByMe)

	rec = f.do(http.MethodPost, "/api/posts/nope/likes", f.bobSID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_UserProfile(t *testing.T) {
	f := newForumFixture(t)
	f.createPost(f.aliceSID, "one")
	f.createPost(f.aliceSID, "two")

	rec := f.do(http.MethodGet, "/api/users/"+f.alice.ID, f.bobSID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var p model.UserProfile
	decodeEnvelope(t, rec, &p)
	assert.Equal(t, "alice", p.Username)
	assert.Equal(t, 2, p.PostCount)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = f.do(http.MethodGet, "/api/users/unknown", f.bobSID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_UnmatchedRoutes(t *testing.T) {
	f := newForumFixture(t)

	rec := f.do(http.MethodGet, "/api/nothing-here", f.aliceSID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	env := decodeEnvelope(t, rec, nil)
	assert.Equal(t, "Resource not found", env.Message)
	assert.Equal(t, CodeFailure, env.Code)

	rec = f.do(http.MethodPatch, "/api/posts", f.aliceSID, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, rec.Header().Get("Allow"), http.MethodGet)
	assert.Equal(t, "Method not allowed", decodeEnvelope(t, rec, nil).Message)
}
