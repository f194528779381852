// Package contentapi собирает HTTP-приложение: хранилище, сервисы и маршруты.
package contentapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/content-api/internal/config"
	"github.com/magabrotheeeer/content-api/internal/http/handlers/auth/forgotpassword"
	"github.com/magabrotheeeer/content-api/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/content-api/internal/http/handlers/auth/logout"
	"github.com/magabrotheeeer/content-api/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/content-api/internal/http/handlers/auth/resendverification"
	"github.com/magabrotheeeer/content-api/internal/http/handlers/auth/resetpassword"
	"github.com/magabrotheeeer/content-api/internal/http/handlers/auth/verify"
	"github.com/magabrotheeeer/content-api/internal/http/handlers/user/list"
	"github.com/magabrotheeeer/content-api/internal/http/handlers/user/me"
	"github.com/magabrotheeeer/content-api/internal/http/handlers/user/remove"
	"github.com/magabrotheeeer/content-api/internal/http/handlers/user/updatename"
	"github.com/magabrotheeeer/content-api/internal/http/handlers/user/updatepassword"
	"github.com/magabrotheeeer/content-api/internal/http/handlers/user/updaterole"
	"github.com/magabrotheeeer/content-api/internal/http/middlewarectx"
	"github.com/magabrotheeeer/content-api/internal/http/response"
	"github.com/magabrotheeeer/content-api/internal/models"
	authservice "github.com/magabrotheeeer/content-api/internal/services/auth"
	userservice "github.com/magabrotheeeer/content-api/internal/services/user"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(
	r chi.Router,
	logger *slog.Logger,
	authService *authservice.Service,
	userService *userservice.Service,
	registry *prometheus.Registry,
	limits config.RateLimit,
) {
	metrics := middlewarectx.NewMetrics(registry)
	mailLimit := middlewarectx.RateLimit(logger, limits.MailRPS, limits.MailBurst)

	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
		metrics.Middleware,
	)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", register.New(logger, authService).ServeHTTP)
			r.Post("/login", login.New(logger, authService).ServeHTTP)
			r.Get("/verify", verify.New(logger, authService).ServeHTTP)
			r.With(mailLimit).Post("/resend-verification", resendverification.New(logger, authService).ServeHTTP)
			r.With(mailLimit).Post("/forgot-password", forgotpassword.New(logger, authService).ServeHTTP)
			r.Post("/reset-password", resetpassword.New(logger, authService).ServeHTTP)
			r.Post("/logout", logout.New().ServeHTTP)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(middlewarectx.Authenticate(authService, logger))

			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RequireRoles(logger, models.RoleAdmin, models.RoleUser))
				r.Get("/me", me.New().ServeHTTP)
				r.Put("/update-username", updatename.New(logger, userService).ServeHTTP)
				r.Put("/update-password", updatepassword.New(logger, userService).ServeHTTP)
			})

			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RequireRoles(logger, models.RoleAdmin))
				r.Get("/", list.New(logger, userService).ServeHTTP)
				r.Put("/role", updaterole.New(logger, userService).ServeHTTP)
				r.Delete("/{id}", remove.New(logger, userService).ServeHTTP)
			})
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, response.OK("alive"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
