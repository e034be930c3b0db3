package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode represents a category of application error.
type ErrorCode string

const (
	// ErrCodeMissingParameter indicates a required request parameter was absent.
	ErrCodeMissingParameter ErrorCode = "missing_parameter"
	// ErrCodeBadCredentials indicates a login attempt with an unknown user or a wrong password.
	ErrCodeBadCredentials ErrorCode = "bad_credentials"
	// ErrCodeUserNotFound indicates the credential lookup found no such user.
	ErrCodeUserNotFound ErrorCode = "user_not_found"
	// ErrCodeWrongPassword indicates the supplied password did not match the stored hash.
	ErrCodeWrongPassword ErrorCode = "wrong_password"
	// ErrCodeNotLoggedIn indicates an operation that needs an active session found none.
	ErrCodeNotLoggedIn ErrorCode = "not_logged_in"
	// ErrCodeUnauthorized indicates the caller is authenticated but may not perform the action.
	ErrCodeUnauthorized ErrorCode = "unauthorized"
	// ErrCodeNotFound indicates a resource was not found.
	ErrCodeNotFound ErrorCode = "not_found"
	// ErrCodeConflict indicates a conflict with existing data (e.g., unique constraint violation).
	ErrCodeConflict ErrorCode = "conflict"
	// ErrCodeValidation indicates invalid input data.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeForeignKey indicates a foreign key constraint violation.
	ErrCodeForeignKey ErrorCode = "foreign_key"
	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal ErrorCode = "internal"
	// ErrCodeTimeout indicates a timeout occurred.
	ErrCodeTimeout ErrorCode = "timeout"
	// ErrCodeCanceled indicates the operation was canceled.
	ErrCodeCanceled ErrorCode = "canceled"
)

// AppError represents a structured application error with a code, message, and optional cause.
// It supports error wrapping and unwrapping for use with errors.Is and errors.As.
type AppError struct {
	// Code categorizes the error type
	Code ErrorCode
	// Message is a human-readable error message
	Message string
	// Cause is the underlying error that caused this error (optional)
	Cause error
	// Field is the specific field that caused the error (optional, for validation errors)
	Field string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *AppError carrying the same code.
// This lets callers compare against sentinel values such as ErrNotLoggedIn.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code && (t.Message == "" || t.Message == e.Message)
}

// New creates an AppError with the given code and message.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

const missingParameterSuffix = ": Missing required parameter;"

// MissingParameters reports one or more absent request parameters.
// The message concatenates "<field>: Missing required parameter;" in the order given.
func MissingParameters(fields ...string) *AppError {
	var b strings.Builder
	for _, f := range fields {
		b.WriteString(f)
		b.WriteString(missingParameterSuffix)
	}
	err := &AppError{Code: ErrCodeMissingParameter, Message: b.String()}
	if len(fields) > 0 {
		err.Field = fields[0]
	}
	return err
}

// UserNotFound reports that no credential record exists for username.
func UserNotFound(username string) *AppError {
	return &AppError{
		Code:    ErrCodeUserNotFound,
		Message: "user not found",
		Field:   username,
	}
}

// WrongPassword reports a password that does not match the stored hash.
func WrongPassword() *AppError {
	return &AppError{Code: ErrCodeWrongPassword, Message: "wrong password"}
}

// NotLoggedIn reports that no active session backs the request.
func NotLoggedIn() *AppError {
	return &AppError{Code: ErrCodeNotLoggedIn, Message: "Authentication is required"}
}

// Unauthorized reports that the current identity may not perform action.
func Unauthorized(action string) *AppError {
	return &AppError{
		Code:    ErrCodeUnauthorized,
		Message: "not allowed to " + action,
		Field:   action,
	}
}

// NotFound creates a new NotFound error.
func NotFound(message string) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: message,
	}
}

// NotFoundf creates a new NotFound error with formatted message.
func NotFoundf(format string, args ...any) *AppError {
	return NotFound(fmt.Sprintf(format, args...))
}

// Conflict creates a new Conflict error.
func Conflict(message string) *AppError {
	return &AppError{
		Code:    ErrCodeConflict,
		Message: message,
	}
}

// Validation creates a new Validation error.
func Validation(message string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: message,
	}
}

// ValidationField creates a new Validation error for a specific field.
func ValidationField(field, message string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: message,
		Field:   field,
	}
}

// Internal creates a new Internal error.
func Internal(message string) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: message,
	}
}

// Wrap wraps an existing error with an AppError, preserving the cause.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an existing error with an AppError and formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...any) *AppError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// isCode checks if an error has a specific error code.
func isCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// IsMissingParameter checks if an error is a MissingParameter error.
func IsMissingParameter(err error) bool { return isCode(err, ErrCodeMissingParameter) }

// IsBadCredentials reports whether err is any credential-verification failure.
// UserNotFound and WrongPassword collapse into this category at the HTTP boundary.
func IsBadCredentials(err error) bool {
	switch GetCode(err) {
	case ErrCodeBadCredentials, ErrCodeUserNotFound, ErrCodeWrongPassword:
		return true
	default:
		return false
	}
}

// IsNotLoggedIn checks if an error is a NotLoggedIn error.
func IsNotLoggedIn(err error) bool { return isCode(err, ErrCodeNotLoggedIn) }

// IsUnauthorized checks if an error is an Unauthorized error.
func IsUnauthorized(err error) bool { return isCode(err, ErrCodeUnauthorized) }

// IsNotFound checks if an error is a NotFound error.
func IsNotFound(err error) bool { return isCode(err, ErrCodeNotFound) }

// IsConflict checks if an error is a Conflict error.
func IsConflict(err error) bool { return isCode(err, ErrCodeConflict) }

// IsValidation checks if an error is a Validation error.
func IsValidation(err error) bool { return isCode(err, ErrCodeValidation) }

// IsForeignKey checks if an error is a ForeignKey error.
func IsForeignKey(err error) bool { return isCode(err, ErrCodeForeignKey) }

// IsInternal checks if an error is an Internal error.
func IsInternal(err error) bool { return isCode(err, ErrCodeInternal) }

// IsTimeout checks if an error is a Timeout error.
func IsTimeout(err error) bool { return isCode(err, ErrCodeTimeout) }

// IsCanceled checks if an error is a Canceled error.
func IsCanceled(err error) bool { return isCode(err, ErrCodeCanceled) }

// GetCode returns the ErrorCode from an error, or empty string if not an AppError.
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// GetField returns the Field from an error, or empty string if not an AppError or no field set.
func GetField(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Field
	}
	return ""
}
