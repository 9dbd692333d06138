// Package server exposes the referral and withdrawal services over HTTP.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires the full HTTP API
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(LoggingMiddleware)
	r.Use(MetricsMiddleware)

	r.Get("/api/health", h.HealthHandler())
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", h.RegisterHandler())
		r.Post("/login", h.LoginHandler())
		r.Post("/logout", h.LogoutHandler())
	})

	r.Route("/api/user", func(r chi.Router) {
		r.Use(h.Authenticate)
		r.Get("/profile", h.ProfileHandler())
		r.Get("/referrals", h.ReferralsHandler())
		r.Get("/withdrawals", h.ListWithdrawalsHandler())
		r.Post("/withdrawals", h.RequestWithdrawalHandler())
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(h.Authenticate)
		r.Use(RequireAdmin)
		r.Get("/withdrawals", h.AdminWithdrawalsHandler())
		r.Post("/withdrawals/{id}/process", h.ProcessWithdrawalHandler())
		r.Get("/users", h.AdminUsersHandler())
	})

	return r
}
