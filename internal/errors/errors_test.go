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
			err:  &AppError{Code: ErrCodeNotFound, Message: "job not found"},
			want: "job not found",
		},
		{
			name: "error with cause",
			err:  &AppError{Code: ErrCodeInternal, Message: "apply transition", Cause: errors.New("connection reset")},
			want: "apply transition: connection reset",
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

	if unwrapped := err.Unwrap(); !errors.Is(unwrapped, cause) {
		t.Errorf("AppError.Unwrap() = %v, want %v", unwrapped, cause)
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		code ErrorCode
	}{
		{"not found", NotFoundf("job %s not found", "j-1"), ErrCodeNotFound},
		{"conflict", Conflict("job was modified concurrently"), ErrCodeConflict},
		{"validation", Validationf("status %q is unknown", "sideways"), ErrCodeValidation},
		{"invalid transition", InvalidTransitionf("%s -> %s", "pending", "completed"), ErrCodeInvalidTransition},
		{"forbidden", Forbidden("not a participant"), ErrCodeForbidden},
		{"ineligible review", IneligibleReview("job_not_completed", "job is not completed"), ErrCodeIneligibleReview},
		{"duplicate response", DuplicateResponse("already responded"), ErrCodeDuplicateResponse},
		{"foreign key", ForeignKey("missing job"), ErrCodeForeignKey},
		{"internal", Internal("boom"), ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("Code = %v, want %v", tt.err.Code, tt.code)
			}
			if tt.err.Message == "" {
				t.Error("Message should not be empty")
			}
		})
	}
}

func TestValidationField(t *testing.T) {
	err := ValidationField("quoted_price", "must be a number")
	if err.Code != ErrCodeValidation {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeValidation)
	}
	if got := GetField(err); got != "quoted_price" {
		t.Errorf("GetField() = %v, want quoted_price", got)
	}
}

func TestIneligibleReview_Reason(t *testing.T) {
	err := fmt.Errorf("submit: %w", IneligibleReview("already_reviewed", "job already reviewed"))
	if !IsIneligibleReview(err) {
		t.Fatal("IsIneligibleReview() = false, want true")
	}
	if got := GetReason(err); got != "already_reviewed" {
		t.Errorf("GetReason() = %v, want already_reviewed", got)
	}
	if got := GetReason(errors.New("plain")); got != "" {
		t.Errorf("GetReason(plain) = %v, want empty", got)
	}
}

func TestWrap_NilError(t *testing.T) {
	if err := Wrap(nil, ErrCodeInternal, "should be nil"); err != nil {
		t.Errorf("Wrap(nil) = %v, want nil", err)
	}
}

func TestInfrastructure(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		if err := Infrastructure(nil, "op"); err != nil {
			t.Errorf("Infrastructure(nil) = %v, want nil", err)
		}
	})

	t.Run("typed error passes through", func(t *testing.T) {
		orig := Conflict("stale")
		err := Infrastructure(fmt.Errorf("store: %w", orig), "append message")
		if !IsConflict(err) {
			t.Errorf("Infrastructure() code = %v, want conflict", GetCode(err))
		}
	})

	t.Run("opaque error becomes internal", func(t *testing.T) {
		cause := errors.New("dial tcp: refused")
		err := Infrastructure(cause, "load job")
		if !IsInternal(err) {
			t.Errorf("Infrastructure() code = %v, want internal", GetCode(err))
		}
		if !errors.Is(err, cause) {
			t.Error("Infrastructure() should preserve cause")
		}
	})
}

func TestIsChecks(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
		want  bool
	}{
		{"not found", NotFound("x"), IsNotFound, true},
		{"wrapped not found", fmt.Errorf("ctx: %w", NotFound("x")), IsNotFound, true},
		{"conflict is not not found", Conflict("x"), IsNotFound, false},
		{"plain error", errors.New("x"), IsConflict, false},
		{"nil", nil, IsValidation, false},
		{"forbidden", Forbidden("x"), IsForbidden, true},
		{"invalid transition", InvalidTransitionf("x"), IsInvalidTransition, true},
		{"duplicate response", DuplicateResponse("x"), IsDuplicateResponse, true},
		{"foreign key", ForeignKey("x"), IsForeignKey, true},
		{"timeout", &AppError{Code: ErrCodeTimeout}, IsTimeout, true},
		{"canceled", &AppError{Code: ErrCodeCanceled}, IsCanceled, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.check(tt.err); got != tt.want {
				t.Errorf("check() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(Validation("x")); got != ErrCodeValidation {
		t.Errorf("GetCode() = %v, want %v", got, ErrCodeValidation)
	}
	if got := GetCode(errors.New("x")); got != "" {
		t.Errorf("GetCode(plain) = %v, want empty", got)
	}
}
