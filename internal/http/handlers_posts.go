package httpx

import (
	"context"
	"net/http"

	"github.com/target/forum-api/internal/domain/model"
	"github.com/target/forum-api/internal/service"
)

// PostHandlers provides HTTP handlers for posts and their attachments.
type PostHandlers struct {
	Svc *service.PostService
	Responder
}

// List returns posts newest first. Optional filters: author_id, q (title substring).
// GET /api/posts?limit=&offset=&author_id=&q=.
func (h *PostHandlers) List(w http.ResponseWriter, r *http.Request) {
	authorID := optionalQuery(r, "author_id")
	q := optionalQuery(r, "q")

	HandleList(ListHandlerOpts[*model.Post]{
		W: w, R: r,
		Respond:  h.Responder,
		Message:  "OK",
		DefLimit: DefaultPageSize,
		MaxLimit: MaxPageSize,
		Fetcher: func(ctx context.Context, pg pageOpts) ([]*model.Post, error) {
			return h.Svc.List(ctx, model.PostListOptions{
				Limit:    pg.Limit,
				Offset:   pg.Offset,
				AuthorID: authorID,
				Q:        q,
			})
		},
	})
}

// Get returns a post with its comments, attachments and like information.
// GET /api/posts/{id}.
func (h *PostHandlers) Get(w http.ResponseWriter, r *http.Request) {
	detail, err := h.Svc.GetDetail(r.Context(), IdentityFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteSuccess(w, http.StatusOK, "OK", detail)
}

// Create publishes a post as the current user.
// POST /api/posts.
func (h *PostHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreatePostRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	post, err := h.Svc.Create(r.Context(), IdentityFromContext(r.Context()), &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteSuccess(w, http.StatusCreated, "Post created", post)
}

// Update edits a post owned by the current user.
// PUT /api/posts/{id}.
func (h *PostHandlers) Update(w http.ResponseWriter, r *http.Request) {
	var req model.UpdatePostRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	post, err := h.Svc.Update(r.Context(), IdentityFromContext(r.Context()), r.PathValue("id"), &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteSuccess(w, http.StatusOK, "Post updated", post)
}

// Delete removes a post owned by the current user.
// DELETE /api/posts/{id}.
func (h *PostHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.Delete(r.Context(), IdentityFromContext(r.Context()), r.PathValue("id")); err != nil {
		h.fail(w, r, err)
		return
	}
	WriteSuccess(w, http.StatusOK, "Post deleted", nil)
}

// ListAttachments returns attachment metadata for a post.
// GET /api/posts/{id}/attachments.
func (h *PostHandlers) ListAttachments(w http.ResponseWriter, r *http.Request) {
	list, err := h.Svc.ListAttachments(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteSuccess(w, http.StatusOK, "OK", nonNil(list))
}

// nonNil keeps empty lists encoded as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
