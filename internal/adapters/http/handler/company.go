package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nanasync/nanasync-api/internal/adapters/metrics"
	"github.com/nanasync/nanasync-api/internal/core/auth"
	"github.com/nanasync/nanasync-api/internal/core/company"
	"github.com/nanasync/nanasync-api/internal/platform/token"
)

const principalCompany = "company"

type registerCompanyRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginCompanyRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updateCompanyRequest struct {
	DisplayName *string `json:"displayName"`
	LogoURL     *string `json:"logoUrl"`
}

// registerCompany は POST /api/empresas を処理します。
func (h *Handler) registerCompany(w http.ResponseWriter, r *http.Request) {
	var req registerCompanyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	created, err := h.auth.RegisterCompany(r.Context(), auth.RegisterCompanyInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, toCompanyResponse(created))
}

// loginCompany は POST /api/login-empresa を処理します。
func (h *Handler) loginCompany(w http.ResponseWriter, r *http.Request) {
	var req loginCompanyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	found, err := h.auth.LoginCompany(r.Context(), auth.LoginCompanyInput{
		Email:    req.Email,
		Password: req.Password,
	})
	h.recordLogin(principalCompany, err)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	session, err := h.issueToken(found.ID, token.KindCompany, found.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, companyLoginResponse{
		companyResponse: toCompanyResponse(found),
		sessionToken:    session,
	})
}

// getCompany は GET /api/empresas/{id} を処理します。
func (h *Handler) getCompany(w http.ResponseWriter, r *http.Request) {
	found, err := h.companies.GetCompany(r.Context(), company.GetCompanyInput{ID: chi.URLParam(r, "id")})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toCompanyResponse(found))
}

// updateCompany は PUT /api/empresas/{id} を処理します。
func (h *Handler) updateCompany(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := authorizeCompanyAdmin(r, id); err != nil {
		h.writeError(w, r, err)
		return
	}

	var req updateCompanyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	updated, err := h.companies.UpdateCompanyProfile(r.Context(), company.UpdateProfileInput{
		ID:          id,
		DisplayName: req.DisplayName,
		LogoURL:     req.LogoURL,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toCompanyResponse(updated))
}

func (h *Handler) recordLogin(principal string, err error) {
	switch {
	case err == nil:
		h.metrics.RecordAuthAttempt(principal, metrics.OutcomeSuccess)
	case errors.Is(err, auth.ErrInvalidCredentials):
		h.metrics.RecordAuthAttempt(principal, metrics.OutcomeFailure)
	case toHTTPStatus(err) == http.StatusInternalServerError:
		h.metrics.RecordAuthAttempt(principal, metrics.OutcomeError)
	}
}
