package httpx

import (
	"context"
	"net/http"
	"time"
)

const healthCheckTimeout = 2 * time.Second

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// HealthHandlers serves readiness/liveness checks.
type HealthHandlers struct {
	// Checks are run on every request; any failure yields 503.
	Checks map[string]HealthCheck
	Responder
}

// Health returns 200 when every check passes, 503 otherwise.
// GET|HEAD /healthz.
func (h *HealthHandlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	status := make(map[string]string, len(h.Checks))
	healthy := true
	for name, check := range h.Checks {
		if err := check(ctx); err != nil {
			h.logger().WarnContext(ctx, "health check failed", "check", name, "error", err)
			status[name] = "down"
			healthy = false
			continue
		}
		status[name] = "ok"
	}

	code, env := http.StatusOK, Envelope{Message: "ok", Code: CodeSuccess, Data: status}
	if !healthy {
		code, env = http.StatusServiceUnavailable, Envelope{Message: "unavailable", Code: CodeFailure, Data: status}
	}
	if r.Method == http.MethodHead {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		return
	}
	WriteJSON(w, code, env)
}
