package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-employee-api/internal/config"
	"github.com/go-employee-api/internal/transport/http/handler"
	appmiddleware "github.com/go-employee-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router. ctx bounds the lifetime
// of background goroutines owned by the middleware.
func NewRouter(ctx context.Context, cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	if deps.Metrics != nil {
		r.Use(appmiddleware.Metrics(deps.Metrics))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authMw := appmiddleware.Auth(deps.Auth)

	// 5 requests/second, burst of 10, per client IP.
	sensitiveRL := appmiddleware.NewRateLimiter(ctx, rate.Limit(5), 10)

	healthH := handler.NewHealthHandler(deps.Readiness...)
	authH := handler.NewAuthHandler(deps.Auth)
	employeeH := handler.NewEmployeeHandler(deps.Employees)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Action)
		if deps.Metrics != nil {
			r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
		}
		r.With(sensitiveRL.Limit).Post("/employees", authH.Register)
		r.With(sensitiveRL.Limit).Post("/employees/login", authH.Login)
		r.With(sensitiveRL.Limit).Post("/employees/forgot-password", authH.ForgotPassword)
		r.With(sensitiveRL.Limit).Post("/employees/resend-otp", authH.ResendOTP)
		r.Post("/employees/verify-otp", authH.VerifyOTP)
		r.Post("/employees/verify-account", authH.VerifyAccount)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/employees", employeeH.List)
			r.Get("/employees/me", employeeH.Me)
			r.Delete("/employees/me", employeeH.DeleteMe)
			r.Get("/employees/{id}", employeeH.Get)
			r.Put("/employees/{id}", employeeH.Update)
			r.Post("/employees/logout", authH.Logout)
			r.Post("/employees/reset-password", authH.ResetPassword)
			r.Post("/employees/change-password", authH.ChangePassword)
		})
	})

	return r
}
