//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	apperrors "github.com/target/forum-api/internal/errors"
)

const (
	minUsernameLen    = 3
	maxUsernameLen    = 32
	minPasswordLen    = 8
	maxPasswordBytes  = 72
	maxEmailLen       = 254
	usernameCharsHint = "letters, digits, '.', '_' or '-'"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// User is a registered forum member. PasswordHash never leaves the server.
type User struct {
	ID           string    `json:"id"         db:"id"`
	Username     string    `json:"username"   db:"username"`
	Email        *string   `json:"email,omitempty" db:"email"`
	PasswordHash string    `json:"-"          db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// UserProfile is the public view of a user.
type UserProfile struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
	PostCount int       `json:"post_count"`
}

// RegisterRequest carries sign-up input.
type RegisterRequest struct {
	Username string  `json:"username"`
	Password string  `json:"password"`
	Email    *string `json:"email,omitempty"`
}

// CreateUserParams is what the repository persists; the password is already hashed.
type CreateUserParams struct {
	Username     string
	Email        *string
	PasswordHash string
}

// Normalize trims surrounding whitespace from username and email.
func (r *RegisterRequest) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
	if r.Email != nil {
		e := strings.TrimSpace(*r.Email)
		if e == "" {
			r.Email = nil
		} else {
			r.Email = &e
		}
	}
}

// Validate checks sign-up input. Missing username or password yields a missing_parameter error.
func (r *RegisterRequest) Validate() error {
	r.Normalize()

	var missing []string
	if r.Username == "" {
		missing = append(missing, "username")
	}
	if r.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return apperrors.MissingParameters(missing...)
	}

	n := utf8.RuneCountInString(r.Username)
	if n < minUsernameLen || n > maxUsernameLen {
		return apperrors.ValidationField("username", "username must be between 3 and 32 characters")
	}
	if !usernamePattern.MatchString(r.Username) {
		return apperrors.ValidationField("username", "username may only contain "+usernameCharsHint)
	}
	if utf8.RuneCountInString(r.Password) < minPasswordLen {
		return apperrors.ValidationField("password", "password must be at least 8 characters")
	}
	if len(r.Password) > maxPasswordBytes {
		return apperrors.ValidationField("password", "password cannot exceed 72 bytes")
	}
	if r.Email != nil {
		if len(*r.Email) > maxEmailLen || !strings.Contains(*r.Email, "@") {
			return apperrors.ValidationField("email", "email is not valid")
		}
	}
	return nil
}
