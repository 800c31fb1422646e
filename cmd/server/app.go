package main

import (
	"net/http"

	"github.com/diewo77/go-ppat/auth"
	"github.com/diewo77/go-ppat/gate"
	"github.com/diewo77/go-ppat/httpx"
	"github.com/diewo77/go-ppat/i18n"
	"github.com/diewo77/go-ppat/internal/metrics"
	"github.com/diewo77/go-ppat/internal/policy"
	"gorm.io/gorm"
)

// App is the main application handler that sets up all routes.
type App struct {
	mux       *http.ServeMux
	db        *gorm.DB
	routerCfg *policy.RouterConfig
	metrics   *metrics.Metrics
}

// NewApp creates a new application with all routes configured.
func NewApp(db *gorm.DB, routerCfg *policy.RouterConfig, m *metrics.Metrics) *App {
	app := &App{
		mux:       http.NewServeMux(),
		db:        db,
		routerCfg: routerCfg,
		metrics:   m,
	}
	app.setupRoutes()
	return app
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// metrics wraps the mux directly so the matched pattern is visible to it
	handler := auth.Middleware(withLanguage(a.metrics.Middleware(a.mux)))
	handler.ServeHTTP(w, r)
}

// setupRoutes configures all application routes.
func (a *App) setupRoutes() {
	// ─────────────────────────────────────────────────────────────────────────
	// Public routes (no auth required)
	// ─────────────────────────────────────────────────────────────────────────
	ah := a.routerCfg.AuthHandler

	a.mux.HandleFunc("POST /login", ah.Login)
	a.mux.HandleFunc("POST /logout", ah.Logout)
	a.mux.HandleFunc("GET /healthz", a.healthz)
	a.mux.Handle("GET /metrics", a.metrics.Handler())

	// ─────────────────────────────────────────────────────────────────────────
	// Authenticated routes (require logged-in user)
	// ─────────────────────────────────────────────────────────────────────────
	a.mux.Handle("GET /me", a.requireAuth(http.HandlerFunc(ah.Me)))
	a.mux.Handle("GET /search", a.requireAuth(http.HandlerFunc(a.routerCfg.ReportHandler.Search)))
	a.mux.Handle("GET /notifications", a.requireAuth(http.HandlerFunc(a.routerCfg.ScheduleHandler.Notifications)))
	a.mux.Handle("GET /files/{path...}", a.requireAuth(http.HandlerFunc(a.routerCfg.FileHandler.Download)))

	// ─────────────────────────────────────────────────────────────────────────
	// Protected resource routes (require auth + specific permissions)
	// ─────────────────────────────────────────────────────────────────────────
	ch := a.routerCfg.ClientHandler
	a.protect("GET /clients", policy.ResourceClient, gate.ActionList, ch.List)
	a.protect("POST /clients", policy.ResourceClient, gate.ActionCreate, ch.Create)
	a.protect("GET /clients/{id}", policy.ResourceClient, gate.ActionView, ch.Get)
	a.protect("PUT /clients/{id}", policy.ResourceClient, gate.ActionUpdate, ch.Update)
	// delete is decided by the delete policy inside the handler
	a.mux.Handle("DELETE /clients/{id}", a.requireAuth(http.HandlerFunc(ch.Delete)))

	// Orders have no delete route
	oh := a.routerCfg.OrderHandler
	a.protect("GET /orders", policy.ResourceOrder, gate.ActionList, oh.List)
	a.protect("POST /orders", policy.ResourceOrder, gate.ActionCreate, oh.Create)
	a.protect("GET /orders/{id}", policy.ResourceOrder, gate.ActionView, oh.Get)
	a.protect("PUT /orders/{id}", policy.ResourceOrder, gate.ActionUpdate, oh.Update)
	a.protect("GET /orders/{id}/invoice", policy.ResourceOrder, gate.ActionView, oh.Invoice)

	ph := a.routerCfg.PaymentHandler
	a.protect("POST /orders/{id}/payments", policy.ResourcePayment, gate.ActionCreate, ph.Add)
	a.mux.Handle("DELETE /orders/{id}/payments/{payment_id}", a.requireAuth(http.HandlerFunc(ph.Delete)))

	fh := a.routerCfg.OrderFileHandler
	a.protect("POST /orders/{id}/files", policy.ResourceOrderFile, gate.ActionCreate, fh.Add)
	a.mux.Handle("DELETE /orders/{id}/files/{file_id}", a.requireAuth(http.HandlerFunc(fh.Delete)))

	eh := a.routerCfg.ExpenseHandler
	a.protect("GET /expenses", policy.ResourceExpense, gate.ActionList, eh.List)
	a.protect("POST /expenses", policy.ResourceExpense, gate.ActionCreate, eh.Create)
	a.protect("GET /expenses/{id}", policy.ResourceExpense, gate.ActionView, eh.Get)
	a.protect("PUT /expenses/{id}", policy.ResourceExpense, gate.ActionUpdate, eh.Update)
	a.mux.Handle("DELETE /expenses/{id}", a.requireAuth(http.HandlerFunc(eh.Delete)))

	sh := a.routerCfg.ScheduleHandler
	a.protect("GET /schedules", policy.ResourceSchedule, gate.ActionList, sh.List)
	a.protect("POST /schedules", policy.ResourceSchedule, gate.ActionCreate, sh.Create)
	a.protect("GET /schedules/{id}", policy.ResourceSchedule, gate.ActionView, sh.Get)
	a.protect("PUT /schedules/{id}", policy.ResourceSchedule, gate.ActionUpdate, sh.Update)
	a.mux.Handle("DELETE /schedules/{id}", a.requireAuth(http.HandlerFunc(sh.Delete)))

	uh := a.routerCfg.UserHandler
	a.protect("GET /users", policy.ResourceUser, gate.ActionList, uh.List)
	a.protect("POST /users", policy.ResourceUser, gate.ActionCreate, uh.Create)
	a.protect("GET /users/{id}", policy.ResourceUser, gate.ActionView, uh.Get)
	a.protect("PUT /users/{id}", policy.ResourceUser, gate.ActionUpdate, uh.Update)
	a.mux.Handle("DELETE /users/{id}", a.requireAuth(http.HandlerFunc(uh.Delete)))

	// Company Settings
	coh := a.routerCfg.CompanyHandler
	a.protect("GET /company", policy.ResourceCompany, gate.ActionView, coh.Get)
	a.protect("PUT /company", policy.ResourceCompany, gate.ActionUpdate, coh.Update)
	a.protect("POST /company/logo", policy.ResourceCompany, gate.ActionUpdate, coh.SetLogo)
	a.mux.Handle("DELETE /company/logo", a.requireAuth(http.HandlerFunc(coh.DeleteLogo)))

	rh := a.routerCfg.ReportHandler
	a.protect("GET /reports/orders", policy.ResourceReport, gate.ActionReport, rh.Orders)
	a.protect("GET /dashboard", policy.ResourceOrder, gate.ActionList, rh.Dashboard)
	a.protect("GET /activity", policy.ResourceActivity, gate.ActionList, rh.Activity)
	a.protect("GET /backup", policy.ResourceBackup, gate.ActionBackup, a.routerCfg.BackupHandler.Download)
}

// ─────────────────────────────────────────────────────────────────────────────
// Middleware
// ─────────────────────────────────────────────────────────────────────────────

func (a *App) protect(pattern, resourceType string, action gate.Action, h http.HandlerFunc) {
	a.mux.Handle(pattern, a.requireAuth(a.requirePermission(resourceType, action)(h)))
}

// requireAuth wraps a handler to require authentication.
func (a *App) requireAuth(next http.Handler) http.Handler {
	return auth.RequireAuth(next)
}

// requirePermission wraps a handler to require specific resource permission.
func (a *App) requirePermission(resourceType string, action gate.Action) func(http.Handler) http.Handler {
	return a.routerCfg.AuthGate.RequirePermission(resourceType, action)
}

// withLanguage picks the response language from ?lang, the lang cookie or
// Accept-Language, in that order.
func withLanguage(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang := i18n.DetectLanguage(r.Header.Get("Accept-Language"))
		if c, err := r.Cookie("lang"); err == nil && c.Value != "" {
			lang = i18n.DetectLanguage(c.Value)
		}
		if q := r.URL.Query().Get("lang"); q != "" {
			lang = i18n.DetectLanguage(q)
			http.SetCookie(w, &http.Cookie{
				Name:     "lang",
				Value:    lang,
				Path:     "/",
				MaxAge:   86400 * 365,
				HttpOnly: true,
			})
		}
		next.ServeHTTP(w, r.WithContext(i18n.WithLang(r.Context(), lang)))
	})
}

func (a *App) healthz(w http.ResponseWriter, r *http.Request) {
	sqlDB, err := a.db.DB()
	if err == nil {
		err = sqlDB.PingContext(r.Context())
	}
	if err != nil {
		httpx.JSONError(w, http.StatusServiceUnavailable, "unavailable", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
