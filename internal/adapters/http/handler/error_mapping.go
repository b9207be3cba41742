package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/nanasync/nanasync-api/internal/adapters/http/middleware"
	"github.com/nanasync/nanasync-api/internal/core/auth"
	"github.com/nanasync/nanasync-api/internal/core/company"
	"github.com/nanasync/nanasync-api/internal/core/credential"
	"github.com/nanasync/nanasync-api/internal/core/employee"
	"github.com/nanasync/nanasync-api/internal/core/timeclock"
)

// requestError はリクエストの形式不正を表します。
type requestError struct {
	msg string
}

func (e *requestError) Error() string {
	return e.msg
}

func badRequest(msg string) error {
	return &requestError{msg: msg}
}

var errForbidden = errors.New("forbidden")

const internalErrorMessage = "internal server error"

func toHTTPStatus(err error) int {
	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr),
		errors.Is(err, company.ErrInvalidName),
		errors.Is(err, company.ErrInvalidEmail),
		errors.Is(err, company.ErrInvalidDisplayName),
		errors.Is(err, company.ErrInvalidID),
		errors.Is(err, company.ErrEmptyUpdate),
		errors.Is(err, employee.ErrInvalidID),
		errors.Is(err, employee.ErrInvalidCompanyID),
		errors.Is(err, employee.ErrInvalidName),
		errors.Is(err, employee.ErrInvalidAge),
		errors.Is(err, employee.ErrInvalidPosition),
		errors.Is(err, employee.ErrInvalidRank),
		errors.Is(err, employee.ErrInvalidSchedule),
		errors.Is(err, employee.ErrInvalidUsername),
		errors.Is(err, employee.ErrInvalidConnectionState),
		errors.Is(err, auth.ErrMissingEmail),
		errors.Is(err, auth.ErrMissingUsername),
		errors.Is(err, auth.ErrMissingPassword),
		errors.Is(err, credential.ErrEmptyPassword),
		errors.Is(err, auth.ErrMissingEmployeeID),
		errors.Is(err, timeclock.ErrMissingEmployeeID),
		errors.Is(err, timeclock.ErrMissingCompanyID),
		errors.Is(err, timeclock.ErrMissingAssignedState),
		errors.Is(err, timeclock.ErrInvalidType):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, errForbidden):
		return http.StatusForbidden
	case errors.Is(err, company.ErrCompanyNotFound),
		errors.Is(err, employee.ErrCompanyNotFound),
		errors.Is(err, employee.ErrEmployeeNotFound):
		return http.StatusNotFound
	case errors.Is(err, company.ErrEmailAlreadyExists),
		errors.Is(err, employee.ErrUsernameAlreadyExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError はエラーを HTTP ステータスに変換して返却します。
// 想定外のエラーは原因をログに残し、クライアントには汎用メッセージのみ返します。
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := toHTTPStatus(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.Error(err),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.RequestIDFromContext(r.Context())),
		)
		h.writeJSON(w, status, errorResponse{Error: internalErrorMessage})
		return
	}
	h.writeJSON(w, status, errorResponse{Error: err.Error()})
}
