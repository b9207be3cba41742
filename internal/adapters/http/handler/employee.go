package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nanasync/nanasync-api/internal/core/auth"
	"github.com/nanasync/nanasync-api/internal/core/employee"
	"github.com/nanasync/nanasync-api/internal/platform/token"
)

const principalEmployee = "employee"

type scheduleRequest struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type provisionEmployeeRequest struct {
	CompanyID string          `json:"companyId"`
	Name      string          `json:"name"`
	Age       json.Number     `json:"age"`
	Position  string          `json:"position"`
	Rank      string          `json:"rank"`
	Schedule  scheduleRequest `json:"schedule"`
	Username  string          `json:"username"`
	Password  string          `json:"password"`
}

type loginEmployeeRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type logoutEmployeeRequest struct {
	EmployeeID string `json:"employeeId"`
}

// provisionEmployee は POST /api/empleados を処理します。
func (h *Handler) provisionEmployee(w http.ResponseWriter, r *http.Request) {
	var req provisionEmployeeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := authorizeCompanyAdmin(r, strings.TrimSpace(req.CompanyID)); err != nil {
		h.writeError(w, r, err)
		return
	}

	age, err := parseAge(req.Age)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	result, err := h.auth.ProvisionEmployee(r.Context(), auth.ProvisionEmployeeInput{
		CompanyID: req.CompanyID,
		Name:      req.Name,
		Age:       age,
		Position:  req.Position,
		Rank:      req.Rank,
		Schedule:  employee.Schedule{Start: req.Schedule.Start, End: req.Schedule.End},
		Username:  req.Username,
		Password:  req.Password,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, provisionResponse{
		ID:                result.Employee.ID,
		Username:          result.Username,
		TemporaryPassword: result.TemporaryPassword,
	})
}

// listEmployees は GET /api/empleados を処理します。
func (h *Handler) listEmployees(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	companyID := strings.TrimSpace(query.Get("companyId"))

	if err := authorizeCompany(r, companyID); err != nil {
		h.writeError(w, r, err)
		return
	}

	page, err := parseIntParam(query.Get("page"), 1, "page")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	pageSize, err := parseIntParam(query.Get("pageSize"), employee.DefaultListPageSize, "pageSize")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	result, err := h.employees.ListEmployees(r.Context(), employee.ListEmployeesInput{
		CompanyID: companyID,
		Search:    query.Get("searchText"),
		Page:      page,
		PageSize:  pageSize,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	items := make([]employeeResponse, 0, len(result.Employees))
	for _, e := range result.Employees {
		items = append(items, toEmployeeResponse(e))
	}

	h.writeJSON(w, http.StatusOK, employeeListResponse{
		Total:    result.Total,
		Page:     result.Page,
		PageSize: result.PageSize,
		Items:    items,
	})
}

// getEmployee は GET /api/empleados/{id} を処理します。
func (h *Handler) getEmployee(w http.ResponseWriter, r *http.Request) {
	found, err := h.employees.GetEmployee(r.Context(), employee.GetEmployeeInput{ID: chi.URLParam(r, "id")})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := authorizeCompany(r, found.CompanyID); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toEmployeeResponse(found))
}

// loginEmployee は POST /api/login-empleado を処理します。
func (h *Handler) loginEmployee(w http.ResponseWriter, r *http.Request) {
	var req loginEmployeeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	found, err := h.auth.LoginEmployee(r.Context(), auth.LoginEmployeeInput{
		Username: req.Username,
		Password: req.Password,
	})
	h.recordLogin(principalEmployee, err)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	session, err := h.issueToken(found.ID, token.KindEmployee, found.CompanyID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, employeeLoginResponse{
		employeeResponse: toEmployeeResponse(found),
		sessionToken:     session,
	})
}

// logoutEmployee は POST /api/logout-empleado を処理します。
func (h *Handler) logoutEmployee(w http.ResponseWriter, r *http.Request) {
	var req logoutEmployeeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.auth.LogoutEmployee(r.Context(), auth.LogoutEmployeeInput{EmployeeID: req.EmployeeID}); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, okResponse{OK: true})
}

// parseAge は数値または数値文字列の年齢を解釈します。未指定の場合は nil を返します。
func parseAge(raw json.Number) (*int, error) {
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.Atoi(raw.String())
	if err != nil {
		return nil, employee.ErrInvalidAge
	}
	return &value, nil
}

func parseIntParam(raw string, fallback int, name string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badRequest(name + " must be an integer")
	}
	return value, nil
}
