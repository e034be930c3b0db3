package httpx

import (
	"log/slog"
	"net/http"

	"github.com/target/forum-api/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Auth     AuthServiceInterface
	Posts    *service.PostService
	Comments *service.CommentService
	Likes    *service.LikeService
	Users    *service.UserService

	// HealthChecks are probed by /healthz (optional).
	HealthChecks map[string]HealthCheck

	Cookies CookieConfig
	// PublicPaths bypass RequireAuth even when registered as protected.
	PublicPaths []string
	// Compression enables gzip responses when non-nil.
	Compression *CompressionConfig

	IsDev  bool         // Development mode: error detail in 500 bodies.
	Logger *slog.Logger // Logger for request and error logging (optional)
}

// NewRouter creates the API router wrapped in the standard middleware chain:
// Recover, Logging, optional Compression, then IdentityFilter.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	resp := Responder{Dev: services.IsDev, Logger: logger}
	mux := http.NewServeMux()
	protect := RequireAuth(services.PublicPaths)

	authHandlers := &AuthHandlers{Svc: services.Auth, Cookies: services.Cookies, Responder: resp}
	registerAuthRoutes(mux, authHandlers, protect)

	registerPostRoutes(mux, &PostHandlers{Svc: services.Posts, Responder: resp}, protect)
	registerCommentRoutes(mux, &CommentHandlers{Svc: services.Comments, Responder: resp}, protect)
	registerLikeRoutes(mux, &LikeHandlers{Svc: services.Likes, Responder: resp}, protect)
	mux.Handle("GET /api/users/{id}", protect(http.HandlerFunc((&UserHandlers{Svc: services.Users, Responder: resp}).Get)))

	health := &HealthHandlers{Checks: services.HealthChecks, Responder: resp}
	mux.HandleFunc("GET /healthz", health.Health)
	mux.HandleFunc("HEAD /healthz", health.Health)

	var handler http.Handler = &notFoundHandler{mux: mux}
	handler = IdentityFilter(IdentityFilterOptions{
		Sessions: services.Auth,
		Cookies:  services.Cookies,
		Logger:   logger,
	})(handler)
	if services.Compression != nil {
		cfg := *services.Compression
		cfg.Logger = logger
		handler = Compression(cfg)(handler)
	}
	handler = Logging(logger)(handler)
	return Recover(logger)(handler)
}

type middleware = func(http.Handler) http.Handler

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers, protect middleware) {
	mux.HandleFunc("POST /api/auth/login", h.Login)
	mux.HandleFunc("POST /api/auth/register", h.Register)
	// Logout answers "not logged in" itself rather than through the entry point.
	mux.HandleFunc("POST /api/auth/logout", h.Logout)
	mux.HandleFunc("GET /api/auth/logout", h.Logout)
	mux.Handle("GET /api/auth/me", protect(http.HandlerFunc(h.Me)))
}

func registerPostRoutes(mux *http.ServeMux, h *PostHandlers, protect middleware) {
	mux.Handle("GET /api/posts", protect(http.HandlerFunc(h.List)))
	mux.Handle("POST /api/posts", protect(http.HandlerFunc(h.Create)))
	mux.Handle("GET /api/posts/{id}", protect(http.HandlerFunc(h.Get)))
	mux.Handle("PUT /api/posts/{id}", protect(http.HandlerFunc(h.Update)))
	mux.Handle("DELETE /api/posts/{id}", protect(http.HandlerFunc(h.Delete)))
	mux.Handle("GET /api/posts/{id}/attachments", protect(http.HandlerFunc(h.ListAttachments)))
}

func registerCommentRoutes(mux *http.ServeMux, h *CommentHandlers, protect middleware) {
	mux.Handle("GET /api/posts/{id}/comments", protect(http.HandlerFunc(h.List)))
	mux.Handle("POST /api/posts/{id}/comments", protect(http.HandlerFunc(h.Create)))
	mux.Handle("DELETE /api/comments/{id}", protect(http.HandlerFunc(h.Delete)))
}

func registerLikeRoutes(mux *http.ServeMux, h *LikeHandlers, protect middleware) {
	mux.Handle("GET /api/posts/{id}/likes", protect(http.HandlerFunc(h.List)))
	mux.Handle("POST /api/posts/{id}/likes", protect(http.HandlerFunc(h.Like)))
	mux.Handle("DELETE /api/posts/{id}/likes", protect(http.HandlerFunc(h.Unlike)))
}

// notFoundHandler wraps a ServeMux so unmatched requests get the FAILURE envelope.
type notFoundHandler struct {
	mux *http.ServeMux
}

// ServeHTTP implements http.Handler.
func (h *notFoundHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if _, pattern := h.mux.Handler(r); pattern != "" {
		h.mux.ServeHTTP(w, r)
		return
	}

	// Let the mux decide between 404 and 405, then replace its plain-text body.
	cw := &captureWriter{header: make(http.Header), status: http.StatusOK}
	h.mux.ServeHTTP(cw, r)

	if cw.status == http.StatusMethodNotAllowed {
		if allow := cw.header.Get("Allow"); allow != "" {
			w.Header().Set("Allow", allow)
		}
		WriteFailure(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	WriteFailure(w, http.StatusNotFound, "Resource not found")
}

// captureWriter records the status and headers of a response and discards its body.
type captureWriter struct {
	header http.Header
	status int
}

func (c *captureWriter) Header() http.Header         { return c.header }
func (c *captureWriter) Write(b []byte) (int, error) { return len(b), nil }
func (c *captureWriter) WriteHeader(status int)      { c.status = status }
