package handler

import (
	"net/http"
	"strings"

	"github.com/nanasync/nanasync-api/internal/adapters/http/middleware"
	"github.com/nanasync/nanasync-api/internal/core/timeclock"
	"github.com/nanasync/nanasync-api/internal/platform/token"
)

type clockEventRequest struct {
	EmployeeID    string `json:"employeeId"`
	CompanyID     string `json:"companyId"`
	Type          string `json:"type"`
	AssignedState string `json:"assignedState"`
}

// recordClockEvent は POST /api/fichajes を処理します。
func (h *Handler) recordClockEvent(w http.ResponseWriter, r *http.Request) {
	var req clockEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := authorizeClock(r, strings.TrimSpace(req.EmployeeID), strings.TrimSpace(req.CompanyID)); err != nil {
		h.writeError(w, r, err)
		return
	}

	recorded, err := h.timeclock.Clock(r.Context(), timeclock.ClockInput{
		EmployeeID:    req.EmployeeID,
		CompanyID:     req.CompanyID,
		Type:          timeclock.Type(req.Type),
		AssignedState: req.AssignedState,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.metrics.RecordClockEvent(string(recorded.Type))

	h.writeJSON(w, http.StatusCreated, toClockEventResponse(recorded))
}

// listClockEvents は GET /api/fichajes?employeeId= を処理します。
func (h *Handler) listClockEvents(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	employeeID := strings.TrimSpace(query.Get("employeeId"))

	// トークンがあれば自社の記録に限定し、社員トークンは本人の記録のみ参照できます。
	var companyID string
	if claims, ok := middleware.ClaimsFromContext(r.Context()); ok {
		if claims.Kind == token.KindEmployee && claims.Subject != employeeID {
			h.writeError(w, r, errForbidden)
			return
		}
		companyID = claims.CompanyID
	}

	limit, err := parseIntParam(query.Get("limit"), 0, "limit")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	events, err := h.timeclock.History(r.Context(), timeclock.HistoryInput{
		EmployeeID: employeeID,
		CompanyID:  companyID,
		Limit:      limit,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	items := make([]clockEventResponse, 0, len(events))
	for _, e := range events {
		items = append(items, toClockEventResponse(e))
	}
	h.writeJSON(w, http.StatusOK, clockHistoryResponse{Items: items})
}

// authorizeClock は社員トークンなら本人、会社トークンなら自社の打刻のみ許可します。
func authorizeClock(r *http.Request, employeeID, companyID string) error {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return nil
	}
	if claims.CompanyID != companyID {
		return errForbidden
	}
	if claims.Kind == token.KindEmployee && claims.Subject != employeeID {
		return errForbidden
	}
	return nil
}
