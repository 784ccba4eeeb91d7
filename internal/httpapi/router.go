package httpapi

import (
	"net/http"

	"github.com/PabloPavan/cobit_api/internal/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

type App struct {
	ServiceName   string
	Health        *HealthHandler
	Snippets      *SnippetsHandler
	Auth          *AuthHandler
	Authenticator Authenticator
}

func NewRouter(app *App) http.Handler {
	serviceName := app.ServiceName
	if serviceName == "" {
		serviceName = "cobit-api"
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(telemetry.ChiTraceMiddleware(serviceName))
	r.Use(telemetry.ChiMetricsMiddleware)
	r.Use(telemetry.ChiLogMiddleware(serviceName))

	r.Get("/health", app.Health.Get)
	r.Get("/health/cache", app.Health.CacheStats)
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	r.Route("/api", func(r chi.Router) {

		// Auth endpoints
		r.Post("/register", app.Auth.Register)
		r.Get("/login", app.Auth.LoginBasic)
		r.Post("/login", app.Auth.Login)
		r.Get("/verify", app.Auth.Verify)
		r.With(RequireAuth(app.Authenticator)).Post("/logout", app.Auth.Logout)

		r.Route("/snippets", func(r chi.Router) {
			// anonymous callers allowed, bad tokens rejected
			r.Use(OptionalAuth(app.Authenticator))
			r.Get("/", app.Snippets.List)
			r.Post("/", app.Snippets.Create)
			r.Get("/{id}", app.Snippets.GetByID)
			r.Put("/{id}", app.Snippets.Update)
			r.Delete("/{id}", app.Snippets.Delete)
		})
	})
	return r
}
