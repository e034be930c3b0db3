package httpx

import (
	"net/http"

	"github.com/target/forum-api/internal/domain/model"
	"github.com/target/forum-api/internal/service"
)

// CommentHandlers provides HTTP handlers for comments.
type CommentHandlers struct {
	Svc *service.CommentService
	Responder
}

// List returns a post's comments, oldest first.
// GET /api/posts/{id}/comments.
func (h *CommentHandlers) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Svc.ListByPost(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteSuccess(w, http.StatusOK, "OK", nonNil(list))
}

// Create adds a comment to a post.
// POST /api/posts/{id}/comments.
func (h *CommentHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateCommentRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	c, err := h.Svc.Create(r.Context(), IdentityFromContext(r.Context()), r.PathValue("id"), &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteSuccess(w, http.StatusCreated, "Comment created", c)
}

// Delete removes a comment written by the current user.
// DELETE /api/comments/{id}.
func (h *CommentHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.Delete(r.Context(), IdentityFromContext(r.Context()), r.PathValue("id")); err != nil {
		h.fail(w, r, err)
		return
	}
	WriteSuccess(w, http.StatusOK, "Comment deleted", nil)
}
