// Package handler は REST API の HTTP ハンドラとルーティングを提供します。
package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/nanasync/nanasync-api/internal/adapters/http/middleware"
	"github.com/nanasync/nanasync-api/internal/core/auth"
	"github.com/nanasync/nanasync-api/internal/core/company"
	"github.com/nanasync/nanasync-api/internal/core/employee"
	"github.com/nanasync/nanasync-api/internal/core/timeclock"
	"github.com/nanasync/nanasync-api/internal/platform/token"
)

// TokenService はログイン時のトークン発行と検証を行います。
type TokenService interface {
	Issue(subject string, kind token.Kind, companyID string) (string, time.Time, error)
	Parse(raw string) (*token.Claims, error)
}

// MetricsRecorder はハンドラが記録するメトリクスです。
type MetricsRecorder interface {
	middleware.RequestObserver
	RecordAuthAttempt(principal, outcome string)
	RecordClockEvent(eventType string)
	Handler() http.Handler
}

// Options は NewRouter の依存関係です。
// Tokens が nil の場合トークンは発行されず、RequireToken も無効になります。
// Metrics が nil の場合 /metrics は公開されません。
type Options struct {
	Auth           auth.UseCase
	Companies      company.UseCase
	Employees      employee.UseCase
	TimeClock      timeclock.UseCase
	Tokens         TokenService
	RequireToken   bool
	Metrics        MetricsRecorder
	AllowedOrigins []string
	Logger         *zap.Logger
}

// Handler は REST エンドポイントの実装です。
type Handler struct {
	auth      auth.UseCase
	companies company.UseCase
	employees employee.UseCase
	timeclock timeclock.UseCase
	tokens    TokenService
	metrics   MetricsRecorder
	logger    *zap.Logger
}

// NewRouter は全エンドポイントを登録した http.Handler を返します。
func NewRouter(opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	recorder := opts.Metrics
	if recorder == nil {
		recorder = nopMetrics{}
	}

	h := &Handler{
		auth:      opts.Auth,
		companies: opts.Companies,
		employees: opts.Employees,
		timeclock: opts.TimeClock,
		tokens:    opts.Tokens,
		metrics:   recorder,
		logger:    logger.Named("handler"),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Metrics(recorder))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", h.health)
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/empresas", h.registerCompany)
		r.Post("/login-empresa", h.loginCompany)
		r.Get("/empresas/{id}", h.getCompany)
		r.Post("/login-empleado", h.loginEmployee)
		r.Post("/logout-empleado", h.logoutEmployee)

		r.Group(func(r chi.Router) {
			if opts.RequireToken && opts.Tokens != nil {
				r.Use(middleware.RequireToken(opts.Tokens))
			}
			r.Put("/empresas/{id}", h.updateCompany)
			r.Post("/empleados", h.provisionEmployee)
			r.Get("/empleados", h.listEmployees)
			r.Get("/empleados/{id}", h.getEmployee)
			r.Post("/fichajes", h.recordClockEvent)
			r.Get("/fichajes", h.listClockEvents)
		})
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// issueToken はトークン発行が有効な場合のみトークンを返します。
func (h *Handler) issueToken(subject string, kind token.Kind, companyID string) (sessionToken, error) {
	if h.tokens == nil {
		return sessionToken{}, nil
	}
	raw, expiresAt, err := h.tokens.Issue(subject, kind, companyID)
	if err != nil {
		return sessionToken{}, err
	}
	return sessionToken{Token: raw, TokenExpiresAt: &expiresAt}, nil
}

// authorizeCompany はトークンが検証済みの場合、対象の会社に属する主体か確認します。
func authorizeCompany(r *http.Request, companyID string) error {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return nil
	}
	if claims.CompanyID != companyID {
		return errForbidden
	}
	return nil
}

// authorizeCompanyAdmin は authorizeCompany に加えて会社トークンであることを要求します。
func authorizeCompanyAdmin(r *http.Request, companyID string) error {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return nil
	}
	if claims.Kind != token.KindCompany || claims.CompanyID != companyID {
		return errForbidden
	}
	return nil
}

type nopMetrics struct{}

func (nopMetrics) ObserveHTTPRequest(string, string, int, time.Duration) {}
func (nopMetrics) RecordAuthAttempt(string, string)                      {}
func (nopMetrics) RecordClockEvent(string)                               {}
func (nopMetrics) Handler() http.Handler                                 { return http.NotFoundHandler() }
