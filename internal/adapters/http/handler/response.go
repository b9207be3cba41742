package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/nanasync/nanasync-api/internal/core/company"
	"github.com/nanasync/nanasync-api/internal/core/employee"
	"github.com/nanasync/nanasync-api/internal/core/timeclock"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

type companyResponse struct {
	ID          string    `json:"_id"`
	Name        string    `json:"name"`
	DisplayName string    `json:"displayName"`
	Email       string    `json:"email"`
	LogoURL     *string   `json:"logoUrl"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type scheduleResponse struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type employeeResponse struct {
	ID              string           `json:"_id"`
	CompanyID       string           `json:"companyId"`
	Name            string           `json:"name"`
	Age             int              `json:"age"`
	Position        string           `json:"position"`
	Rank            string           `json:"rank"`
	Schedule        scheduleResponse `json:"schedule"`
	Role            string           `json:"role"`
	ConnectionState string           `json:"connectionState"`
	ClockedIn       bool             `json:"clockedIn"`
	LastClockEvent  *time.Time       `json:"lastClockEvent,omitempty"`
	Username        string           `json:"username"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

type sessionToken struct {
	Token          string     `json:"token,omitempty"`
	TokenExpiresAt *time.Time `json:"tokenExpiresAt,omitempty"`
}

type companyLoginResponse struct {
	companyResponse
	sessionToken
}

type employeeLoginResponse struct {
	employeeResponse
	sessionToken
}

type provisionResponse struct {
	ID                string `json:"_id"`
	Username          string `json:"username"`
	TemporaryPassword string `json:"temporaryPassword,omitempty"`
}

type employeeListResponse struct {
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"pageSize"`
	Items    []employeeResponse `json:"items"`
}

type clockEventResponse struct {
	ID            string    `json:"_id"`
	EmployeeID    string    `json:"employeeId"`
	CompanyID     string    `json:"companyId"`
	Type          string    `json:"type"`
	AssignedState string    `json:"assignedState"`
	Timestamp     time.Time `json:"timestamp"`
}

type clockHistoryResponse struct {
	Items []clockEventResponse `json:"items"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

func toCompanyResponse(c *company.Company) companyResponse {
	p := c.Profile()
	return companyResponse{
		ID:          p.ID,
		Name:        p.Name,
		DisplayName: p.DisplayName,
		Email:       p.Email,
		LogoURL:     p.LogoURL,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toEmployeeResponse(e *employee.Employee) employeeResponse {
	return employeeResponse{
		ID:              e.ID,
		CompanyID:       e.CompanyID,
		Name:            e.Name,
		Age:             e.Age,
		Position:        e.Position,
		Rank:            e.Rank,
		Schedule:        scheduleResponse{Start: e.Schedule.Start, End: e.Schedule.End},
		Role:            string(e.Role),
		ConnectionState: string(e.ConnectionState),
		ClockedIn:       e.ClockedIn,
		LastClockEvent:  e.LastClockEvent,
		Username:        e.Username,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

func toClockEventResponse(e *timeclock.Event) clockEventResponse {
	return clockEventResponse{
		ID:            e.ID,
		EmployeeID:    e.EmployeeID,
		CompanyID:     e.CompanyID,
		Type:          string(e.Type),
		AssignedState: e.AssignedState,
		Timestamp:     e.Timestamp,
	}
}

// decodeJSON はリクエストボディを dst に読み込みます。未知のフィールドは無視します。
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return badRequest("request body is required")
		case errors.As(err, &maxErr):
			return badRequest("request body too large")
		default:
			return badRequest("invalid request body")
		}
	}
	return nil
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("failed to marshal JSON response", zap.Error(err))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
