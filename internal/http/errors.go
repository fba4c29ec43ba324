package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	domainauth "github.com/William-Ta0/Migo-Marketplcase-sub000/internal/domain/auth"
	apperrors "github.com/William-Ta0/Migo-Marketplcase-sub000/internal/errors"
)

// errUnauthenticated is the code written for missing or rejected credentials.
const errUnauthenticated = "unauthenticated"

// statusByCode maps error kinds onto HTTP statuses.
//
//nolint:gochecknoglobals // static read-only lookup
var statusByCode = map[apperrors.ErrorCode]int{
	apperrors.ErrCodeValidation:        http.StatusBadRequest,
	apperrors.ErrCodeInvalidTransition: http.StatusUnprocessableEntity,
	apperrors.ErrCodeForbidden:         http.StatusForbidden,
	apperrors.ErrCodeNotFound:          http.StatusNotFound,
	apperrors.ErrCodeConflict:          http.StatusConflict,
	apperrors.ErrCodeIneligibleReview:  http.StatusUnprocessableEntity,
	apperrors.ErrCodeDuplicateResponse: http.StatusConflict,
	apperrors.ErrCodeForeignKey:        http.StatusConflict,
	apperrors.ErrCodeTimeout:           http.StatusGatewayTimeout,
	apperrors.ErrCodeCanceled:          http.StatusRequestTimeout,
	apperrors.ErrCodeInternal:          http.StatusInternalServerError,
}

// StatusForError returns the HTTP status for err.
func StatusForError(err error) int {
	if errors.Is(err, domainauth.ErrUnauthenticated) {
		return http.StatusUnauthorized
	}
	if status, ok := statusByCode[apperrors.GetCode(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// errorWriter renders service errors. Internal errors are logged and their
// messages replaced, since they may carry driver or broker details.
type errorWriter struct {
	logger *slog.Logger
}

func (e errorWriter) write(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusForError(err)
	code := string(apperrors.GetCode(err))
	switch {
	case errors.Is(err, domainauth.ErrUnauthenticated):
		code = errUnauthenticated
	case status == http.StatusInternalServerError:
		e.logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		WriteError(w, ErrorParams{Code: status, ErrCode: string(apperrors.ErrCodeInternal), Err: errors.New("internal error")})
		return
	}
	WriteError(w, ErrorParams{
		Code:    status,
		ErrCode: code,
		Err:     errMessage(err),
		Field:   apperrors.GetField(err),
		Reason:  apperrors.GetReason(err),
	})
}

// errMessage strips the cause chain from AppErrors so responses carry only the message.
func errMessage(err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return errors.New(appErr.Message)
	}
	return err
}
