package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "error without cause",
			err:  NotFound("post not found"),
			want: "post not found",
		},
		{
			name: "error with cause",
			err:  Wrap(errors.New("connection reset"), ErrCodeInternal, "load post"),
			want: "load post: connection reset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("AppError.Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(cause, ErrCodeInternal, "wrapped error")
	if !errors.Is(err, cause) {
		t.Errorf("errors.Is should find the cause through Unwrap")
	}
}

func TestAppError_IsMatchesByCode(t *testing.T) {
	sentinel := NotLoggedIn()
	wrapped := fmt.Errorf("logout: %w", NotLoggedIn())

	if !errors.Is(wrapped, sentinel) {
		t.Errorf("expected wrapped NotLoggedIn to match sentinel")
	}
	if errors.Is(wrapped, WrongPassword()) {
		t.Errorf("different codes must not match")
	}
	if errors.Is(NotFound("post 1 not found"), NotFound("post 2 not found")) {
		t.Errorf("differing messages must not match when target carries a message")
	}
	if !errors.Is(NotFound("post 1 not found"), &AppError{Code: ErrCodeNotFound}) {
		t.Errorf("code-only target should match any message")
	}
}

func TestMissingParameters(t *testing.T) {
	tests := []struct {
		name      string
		fields    []string
		want      string
		wantField string
	}{
		{
			name:      "single field",
			fields:    []string{"username"},
			want:      "username: Missing required parameter;",
			wantField: "username",
		},
		{
			name:      "two fields keep order",
			fields:    []string{"username", "password"},
			want:      "username: Missing required parameter;password: Missing required parameter;",
			wantField: "username",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MissingParameters(tt.fields...)
			if err.Message != tt.want {
				t.Errorf("Message = %q, want %q", err.Message, tt.want)
			}
			if err.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", err.Field, tt.wantField)
			}
			if !IsMissingParameter(err) {
				t.Errorf("expected missing_parameter code")
			}
		})
	}
}

func TestIsBadCredentials(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "user not found", err: UserNotFound("ghost"), want: true},
		{name: "wrong password", err: WrongPassword(), want: true},
		{name: "explicit bad credentials", err: New(ErrCodeBadCredentials, "bad"), want: true},
		{name: "wrapped wrong password", err: fmt.Errorf("verify: %w", WrongPassword()), want: true},
		{name: "not logged in", err: NotLoggedIn(), want: false},
		{name: "plain error", err: errors.New("boom"), want: false},
		{name: "nil", err: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsBadCredentials(tt.err); got != tt.want {
				t.Errorf("IsBadCredentials() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUnauthorized(t *testing.T) {
	err := Unauthorized("delete post")
	if !IsUnauthorized(err) {
		t.Fatalf("expected unauthorized code, got %v", err.Code)
	}
	if err.Field != "delete post" {
		t.Errorf("Field = %q, want action", err.Field)
	}
	if err.Message != "not allowed to delete post" {
		t.Errorf("Message = %q", err.Message)
	}
}

func TestWrap_NilError(t *testing.T) {
	if err := Wrap(nil, ErrCodeInternal, "should be nil"); err != nil {
		t.Errorf("Wrap(nil) = %v, want nil", err)
	}
	if err := Wrapf(nil, ErrCodeInternal, "id %d", 1); err != nil {
		t.Errorf("Wrapf(nil) = %v, want nil", err)
	}
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{name: "not found", err: NotFoundf("post %d not found", 3), check: IsNotFound},
		{name: "conflict", err: Conflict("already liked"), check: IsConflict},
		{name: "validation", err: ValidationField("title", "title is required"), check: IsValidation},
		{name: "foreign key", err: New(ErrCodeForeignKey, "fk"), check: IsForeignKey},
		{name: "internal", err: Internal("boom"), check: IsInternal},
		{name: "timeout", err: New(ErrCodeTimeout, "slow"), check: IsTimeout},
		{name: "canceled", err: New(ErrCodeCanceled, "gone"), check: IsCanceled},
		{name: "not logged in", err: NotLoggedIn(), check: IsNotLoggedIn},
		{name: "wrapped", err: fmt.Errorf("outer: %w", NotFound("x")), check: IsNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.check(tt.err) {
				t.Errorf("predicate returned false for %v (code %q)", tt.err, GetCode(tt.err))
			}
			if tt.check(errors.New("plain")) {
				t.Errorf("predicate returned true for plain error")
			}
		})
	}
}

func TestGetCodeAndField(t *testing.T) {
	if got := GetCode(errors.New("plain")); got != "" {
		t.Errorf("GetCode(plain) = %q, want empty", got)
	}
	if got := GetField(ValidationField("body", "too long")); got != "body" {
		t.Errorf("GetField() = %q, want body", got)
	}
	if got := GetField(errors.New("plain")); got != "" {
		t.Errorf("GetField(plain) = %q, want empty", got)
	}
}
