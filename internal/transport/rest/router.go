package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/admin-console/internal/audit"
	"github.com/frahmantamala/admin-console/internal/session"
	"github.com/frahmantamala/admin-console/internal/transport/middleware"
	"github.com/frahmantamala/admin-console/internal/transport/swagger"
	"github.com/frahmantamala/admin-console/internal/workspace"
)

type Handlers struct {
	Health    *HealthHandler
	Session   *session.Handler
	Workspace *workspace.Handler
	Audit     *audit.Handler
}

type RouterConfig struct {
	AllowedOrigins []string
	OpenAPIPath    string
	// Validator checks requests against the OpenAPI document; nil skips it.
	Validator func(http.Handler) http.Handler
}

func RegisterAllRoutes(router *chi.Mux, cfg RouterConfig, h Handlers, logger *slog.Logger) {
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(middleware.RequestID)
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.Logging(logger))

	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, cfg.OpenAPIPath)
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		if cfg.Validator != nil {
			r.Use(cfg.Validator)
		}

		r.Get("/health", h.Health.Health)
		r.Get("/ping", h.Health.Ping)
		r.Post("/auth/login", h.Session.Login)

		r.Group(func(pr chi.Router) {
			pr.Use(h.Session.AuthMiddleware)

			pr.Post("/auth/logout", h.Session.Logout)
			pr.Get("/session", h.Session.GetSession)
			h.Workspace.Routes(pr)
			if h.Audit != nil {
				pr.Get("/audit", h.Audit.GetRecent)
			}
		})
	})
}
