package httpx

import (
	"log/slog"
	"net/http"
)

// Pagination bounds for list endpoints.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Responder writes envelopes and translates errors for a group of handlers.
type Responder struct {
	// Dev includes error detail in 500 responses.
	Dev    bool
	Logger *slog.Logger
}

func (p Responder) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

func (p Responder) fail(w http.ResponseWriter, r *http.Request, err error) {
	WriteAppError(ErrorOpts{W: w, R: r, Err: err, Dev: p.Dev, Logger: p.logger()})
}
