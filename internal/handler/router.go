package handler

import (
	"net/http"

	"github.com/Shivanand-hulikatti/event-admission/internal/auth"
	"github.com/Shivanand-hulikatti/event-admission/internal/config"
	"github.com/Shivanand-hulikatti/event-admission/internal/metrics"
	"github.com/Shivanand-hulikatti/event-admission/internal/service"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Services bundles everything the router dispatches to.
type Services struct {
	Verifier  *auth.Verifier
	Auth      *service.AuthService
	Events    *service.EventService
	Admission *service.AdmissionService
	Admin     *service.AdminService
}

// NewRouter builds the HTTP API. Every route declares its role requirement
// here, next to its path.
func NewRouter(svc Services, cfg config.Config, logger zerolog.Logger) http.Handler {
	authHandler := NewAuthHandler(svc.Auth)
	eventHandler := NewEventHandler(svc.Events, svc.Admission)
	adminHandler := NewAdminHandler(svc.Admin)
	limiter := NewRateLimiter(cfg.RateLimit)
	authenticate := Authenticate(svc.Verifier)

	r := chi.NewRouter()

	// Global middleware stack
	r.Use(chimiddleware.RealIP)
	r.Use(CorrelationID(logger))
	r.Use(RequestLogging)
	r.Use(chimiddleware.Recoverer)
	r.Use(metrics.HTTPMiddleware)
	r.Use(CORS(cfg.Server.AllowedOrigin, logger))

	r.Get("/health", HealthCheck)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(limiter.Limit(TierPublic))

		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", authHandler.Signup)
			r.With(limiter.Limit(TierLogin)).Post("/login", authHandler.Login)

			r.Group(func(r chi.Router) {
				r.Use(authenticate, RequireRoles(auth.AnyAuthenticated))
				r.Get("/me", authHandler.Me)
				r.Post("/logout", authHandler.Logout)
			})
		})

		r.Route("/events", func(r chi.Router) {
			r.Get("/", eventHandler.ListEvents)
			r.Get("/{id}", eventHandler.GetEvent)
			r.Get("/{id}/registrations", eventHandler.ListRegistrations)

			r.Group(func(r chi.Router) {
				r.Use(authenticate, RequireRoles(auth.EventManagers))
				r.Post("/", eventHandler.CreateEvent)
				r.Put("/{id}", eventHandler.UpdateEvent)
				r.Delete("/{id}", eventHandler.DeleteEvent)
			})

			r.Group(func(r chi.Router) {
				r.Use(authenticate, RequireRoles(auth.AnyAuthenticated))
				r.Post("/{id}/register", eventHandler.Register)
				r.Delete("/{id}/unregister", eventHandler.Unregister)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(authenticate, RequireRoles(auth.Administrators))
			r.Get("/statistics", adminHandler.Statistics)
			r.Get("/users", adminHandler.Users)
			r.Get("/events", adminHandler.Events)
		})
	})

	return r
}
