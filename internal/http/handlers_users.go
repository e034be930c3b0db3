package httpx

import (
	"net/http"

	"github.com/target/forum-api/internal/service"
)

// UserHandlers provides HTTP handlers for public user profiles.
type UserHandlers struct {
	Svc *service.UserService
	Responder
}

// Get returns a user's public profile.
// GET /api/users/{id}.
func (h *UserHandlers) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.Svc.Profile(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteSuccess(w, http.StatusOK, "OK", p)
}
