package httpx

import (
	"net/http"

	"github.com/target/forum-api/internal/service"
)

// LikeHandlers provides HTTP handlers for likes.
type LikeHandlers struct {
	Svc *service.LikeService
	Responder
}

// List returns the like summary for a post.
// GET /api/posts/{id}/likes.
func (h *LikeHandlers) List(w http.ResponseWriter, r *http.Request) {
	sum, err := h.Svc.Summary(r.Context(), IdentityFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteSuccess(w, http.StatusOK, "OK", sum)
}

// Like records the current user's like. Repeating it is not an error.
// POST /api/posts/{id}/likes.
func (h *LikeHandlers) Like(w http.ResponseWriter, r *http.Request) {
	sum, err := h.Svc.Like(r.Context(), IdentityFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteSuccess(w, http.StatusOK, "Post liked", sum)
}

// Unlike removes the current user's like.
// DELETE /api/posts/{id}/likes.
func (h *LikeHandlers) Unlike(w http.ResponseWriter, r *http.Request) {
	sum, err := h.Svc.Unlike(r.Context(), IdentityFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteSuccess(w, http.StatusOK, "Post unliked", sum)
}
