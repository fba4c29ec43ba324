package errors

import (
	"context"
	"errors"
	"fmt"
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

func TestMapDBError_Codes(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode ErrorCode
	}{
		{"deadline exceeded", context.DeadlineExceeded, ErrCodeTimeout},
		{"canceled", context.Canceled, ErrCodeCanceled},
		{"wrapped canceled", fmt.Errorf("query: %w", context.Canceled), ErrCodeCanceled},
		{"no rows", pgx.ErrNoRows, ErrCodeNotFound},
		{"unique", &pgconn.PgError{Code: pgerrcode.UniqueViolation}, ErrCodeConflict},
		{"foreign key", &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation}, ErrCodeForeignKey},
		{"check", &pgconn.PgError{Code: pgerrcode.CheckViolation}, ErrCodeValidation},
		{"not null", &pgconn.PgError{Code: pgerrcode.NotNullViolation, ColumnName: "status"}, ErrCodeValidation},
		{"other pg error", &pgconn.PgError{Code: pgerrcode.DeadlockDetected}, ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapDBError(tt.err)
			if got := GetCode(err); got != tt.wantCode {
				t.Errorf("MapDBError() code = %v, want %v", got, tt.wantCode)
			}
		})
	}
}

func TestMapDBError_StandardError(t *testing.T) {
	stdErr := errors.New("standard error")
	if err := MapDBError(stdErr); !errors.Is(err, stdErr) {
		t.Errorf("MapDBError() should return original error for non-db errors, got %v", err)
	}
}

func TestMapDBError_UniqueField(t *testing.T) {
	tests := []struct {
		name  string
		pgErr *pgconn.PgError
		want  string
	}{
		{
			name:  "column metadata",
			pgErr: &pgconn.PgError{Code: pgerrcode.UniqueViolation, ColumnName: "job_number"},
			want:  "job_number",
		},
		{
			name:  "detail message",
			pgErr: &pgconn.PgError{Code: pgerrcode.UniqueViolation, Detail: "Key (job_id)=(abc) already exists."},
			want:  "job_id",
		},
		{
			name:  "constraint name",
			pgErr: &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "jobs_number_key"},
			want:  "number",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetField(MapDBError(tt.pgErr)); got != tt.want {
				t.Errorf("GetField() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMapDBError_ForeignKeyMessage(t *testing.T) {
	err := MapDBError(&pgconn.PgError{
		Code:   pgerrcode.ForeignKeyViolation,
		Detail: `Key (job_id)=(x) is not present in table "jobs".`,
	})
	var appErr *AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %T", err)
	}
	if appErr.Message != "referenced Job does not exist" {
		t.Errorf("Message = %q", appErr.Message)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "reviews_job_id_key"}
	wrapped := fmt.Errorf("insert review: %w", pgErr)

	if !IsUniqueViolation(wrapped, "reviews_job_id_key") {
		t.Error("IsUniqueViolation() = false for matching constraint")
	}
	if !IsUniqueViolation(wrapped, "") {
		t.Error("IsUniqueViolation() = false for any constraint")
	}
	if IsUniqueViolation(wrapped, "jobs_job_number_key") {
		t.Error("IsUniqueViolation() = true for other constraint")
	}
	if IsUniqueViolation(errors.New("x"), "") {
		t.Error("IsUniqueViolation() = true for plain error")
	}
}

func TestInferFieldFromConstraint(t *testing.T) {
	tests := []struct {
		constraintName string
		want           string
	}{
		{"jobs_status_check", "status"},
		{"table_field1_field2_key", ""},
		{"table_lower_key", ""},
		{"", ""},
		{"table_key", ""},
	}

	for _, tt := range tests {
		t.Run(tt.constraintName, func(t *testing.T) {
			if got := inferFieldFromConstraint(tt.constraintName); got != tt.want {
				t.Errorf("inferFieldFromConstraint() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMapTableToDomain(t *testing.T) {
	tests := []struct {
		tableName string
		want      string
	}{
		{"jobs", "Job"},
		{"job_messages", "Job"},
		{"reviews", "Review"},
		{"  REVIEWS ", "Review"},
		{"unknown_table", "Unknown Table"},
	}

	for _, tt := range tests {
		t.Run(tt.tableName, func(t *testing.T) {
			if got := mapTableToDomain(tt.tableName); got != tt.want {
				t.Errorf("mapTableToDomain() = %v, want %v", got, tt.want)
			}
		})
	}
}
