package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapDBError_NilError(t *testing.T) {
	if err := MapDBError(nil); err != nil {
		t.Errorf("MapDBError(nil) = %v, want nil", err)
	}
}

func TestMapDBError_ContextErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode ErrorCode
	}{
		{name: "deadline exceeded", err: context.DeadlineExceeded, wantCode: ErrCodeTimeout},
		{name: "canceled", err: context.Canceled, wantCode: ErrCodeCanceled},
		{name: "wrapped deadline", err: fmt.Errorf("query posts: %w", context.DeadlineExceeded), wantCode: ErrCodeTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(MapDBError(tt.err)); got != tt.wantCode {
				t.Errorf("MapDBError() code = %v, want %v", got, tt.wantCode)
			}
		})
	}
}

func TestMapDBError_NoRows(t *testing.T) {
	err := MapDBError(pgx.ErrNoRows)
	if !IsNotFound(err) {
		t.Errorf("MapDBError(pgx.ErrNoRows) should be NotFound, got %v", GetCode(err))
	}
}

func TestMapDBError_UniqueViolation(t *testing.T) {
	tests := []struct {
		name        string
		pgErr       *pgconn.PgError
		wantField   string
		wantMessage string
	}{
		{
			name: "username taken via column name",
			pgErr: &pgconn.PgError{
				Code:           pgerrcode.UniqueViolation,
				ConstraintName: "users_username_key",
				ColumnName:     "username",
			},
			wantField:   "username",
			wantMessage: "Username is already taken.",
		},
		{
			name: "field from detail",
			pgErr: &pgconn.PgError{
				Code:   pgerrcode.UniqueViolation,
				Detail: `Key (email)=(a@example.com) already exists.`,
			},
			wantField:   "email",
			wantMessage: "This value already exists. Please choose a different one.",
		},
		{
			name: "multi-column detail",
			pgErr: &pgconn.PgError{
				Code:           pgerrcode.UniqueViolation,
				ConstraintName: "likes_post_id_user_id_key",
				Detail:         `Key (post_id, user_id)=(1, 2) already exists.`,
			},
			wantField:   "post_id, user_id",
			wantMessage: "This value already exists. Please choose a different one.",
		},
		{
			name: "inferred from constraint",
			pgErr: &pgconn.PgError{
				Code:           pgerrcode.UniqueViolation,
				ConstraintName: "users_username_key",
			},
			wantField:   "username",
			wantMessage: "Username is already taken.",
		},
		{
			name: "ambiguous constraint",
			pgErr: &pgconn.PgError{
				Code:           pgerrcode.UniqueViolation,
				ConstraintName: "likes_post_id_user_id_key",
			},
			wantField:   "",
			wantMessage: "This value already exists. Please choose a different one.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapDBError(tt.pgErr)
			if !IsConflict(err) {
				t.Fatalf("MapDBError() should be Conflict, got %v", GetCode(err))
			}
			if field := GetField(err); field != tt.wantField {
				t.Errorf("MapDBError() field = %q, want %q", field, tt.wantField)
			}
			var appErr *AppError
			if !stderrors.As(err, &appErr) || appErr.Message != tt.wantMessage {
				t.Errorf("MapDBError() message = %q, want %q", appErr.Message, tt.wantMessage)
			}
		})
	}
}

func TestMapDBError_ForeignKeyViolation(t *testing.T) {
	tests := []struct {
		name         string
		pgErr        *pgconn.PgError
		wantContains string
	}{
		{
			name: "deleting a referenced post",
			pgErr: &pgconn.PgError{
				Code:   pgerrcode.ForeignKeyViolation,
				Detail: `Key (id)=(7) is still referenced from table "comments".`,
			},
			wantContains: "in use by Comment",
		},
		{
			name: "comment on missing post",
			pgErr: &pgconn.PgError{
				Code:   pgerrcode.ForeignKeyViolation,
				Detail: `Key (post_id)=(99) is not present in table "posts".`,
			},
			wantContains: "referenced Post does not exist",
		},
		{
			name: "table name fallback",
			pgErr: &pgconn.PgError{
				Code:      pgerrcode.ForeignKeyViolation,
				TableName: "likes",
			},
			wantContains: "in use by Like",
		},
		{
			name: "constraint name fallback",
			pgErr: &pgconn.PgError{
				Code:           pgerrcode.ForeignKeyViolation,
				ConstraintName: "posts_author_id_fkey",
			},
			wantContains: "referenced User does not exist",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapDBError(tt.pgErr)
			if !IsForeignKey(err) {
				t.Fatalf("MapDBError() should be ForeignKey, got %v", GetCode(err))
			}
			if !strings.Contains(err.Error(), tt.wantContains) {
				t.Errorf("MapDBError() = %q, want it to contain %q", err.Error(), tt.wantContains)
			}
		})
	}
}

func TestMapDBError_ColumnViolations(t *testing.T) {
	tests := []struct {
		name      string
		pgErr     *pgconn.PgError
		wantField string
	}{
		{name: "not null with column", pgErr: &pgconn.PgError{Code: pgerrcode.NotNullViolation, ColumnName: "title"}, wantField: "title"},
		{name: "not null without column", pgErr: &pgconn.PgError{Code: pgerrcode.NotNullViolation}},
		{name: "check with column", pgErr: &pgconn.PgError{Code: pgerrcode.CheckViolation, ColumnName: "body"}, wantField: "body"},
		{name: "check without column", pgErr: &pgconn.PgError{Code: pgerrcode.CheckViolation}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapDBError(tt.pgErr)
			if !IsValidation(err) {
				t.Fatalf("MapDBError() should be Validation, got %v", GetCode(err))
			}
			if field := GetField(err); field != tt.wantField {
				t.Errorf("MapDBError() field = %q, want %q", field, tt.wantField)
			}
		})
	}
}

func TestMapDBError_UnknownPgError(t *testing.T) {
	err := MapDBError(&pgconn.PgError{Code: pgerrcode.DeadlockDetected})
	if !IsInternal(err) {
		t.Errorf("MapDBError() should be Internal, got %v", GetCode(err))
	}
}

func TestMapDBError_StandardError(t *testing.T) {
	orig := New(ErrCodeValidation, "already mapped")
	if got := MapDBError(orig); got != orig {
		t.Errorf("MapDBError() should pass through unrecognized errors, got %v", got)
	}
}

func TestInferFieldFromConstraint(t *testing.T) {
	tests := map[string]string{
		"users_username_key":        "username",
		"users_lower_key":           "",
		"likes_post_id_user_id_key": "",
		"":                          "",
		"pkey":                      "",
	}
	for in, want := range tests {
		if got := inferFieldFromConstraint(in); got != want {
			t.Errorf("inferFieldFromConstraint(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMapTableToDomain(t *testing.T) {
	tests := map[string]string{
		"posts":         "Post",
		" COMMENTS ":    "Comment",
		"attachments":   "Attachment",
		"post_tags":     "Post Tags",
		"session_audit": "Session Audit",
	}
	for in, want := range tests {
		if got := mapTableToDomain(in); got != want {
			t.Errorf("mapTableToDomain(%q) = %q, want %q", in, got, want)
		}
	}
}
