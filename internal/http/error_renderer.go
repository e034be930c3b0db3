package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/target/forum-api/internal/errors"
)

const internalErrorMessage = "Internal server error"

// ErrorOpts contains all options needed to render an error response.
type ErrorOpts struct {
	W   http.ResponseWriter
	R   *http.Request
	Err error
	// Dev includes the underlying error text in 500 responses.
	Dev    bool
	Logger *slog.Logger
}

// StatusFor maps an error to its HTTP status code.
func StatusFor(err error) int {
	switch apperrors.GetCode(err) {
	case apperrors.ErrCodeMissingParameter, apperrors.ErrCodeValidation:
		return http.StatusBadRequest
	case apperrors.ErrCodeBadCredentials, apperrors.ErrCodeUserNotFound,
		apperrors.ErrCodeWrongPassword, apperrors.ErrCodeNotLoggedIn:
		return http.StatusUnauthorized
	case apperrors.ErrCodeUnauthorized:
		return http.StatusForbidden
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeConflict, apperrors.ErrCodeForeignKey:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// WriteAppError translates err into a FAILURE envelope. Client errors carry the
// AppError message; everything else becomes a generic 500 and is logged.
func WriteAppError(opts ErrorOpts) {
	status := StatusFor(opts.Err)
	if status != http.StatusInternalServerError {
		WriteFailure(opts.W, status, clientMessage(opts.Err, status))
		return
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.R != nil {
		logger.ErrorContext(opts.R.Context(), "request failed",
			"method", opts.R.Method,
			"path", opts.R.URL.Path,
			"error", opts.Err,
		)
	}

	env := Envelope{Message: internalErrorMessage, Code: CodeFailure}
	if opts.Dev && opts.Err != nil {
		env.Error = opts.Err.Error()
	}
	WriteJSON(opts.W, status, env)
}

func clientMessage(err error, status int) string {
	switch {
	case apperrors.IsBadCredentials(err):
		return msgBadCredentials
	case apperrors.IsNotLoggedIn(err):
		return msgNotLoggedIn
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return http.StatusText(status)
}
