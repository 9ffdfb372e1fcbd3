package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	analyticsapi "github.com/pulseworks/pulseboard/internal/api/analytics"
	"github.com/pulseworks/pulseboard/internal/api/auth"
	"github.com/pulseworks/pulseboard/internal/api/board"
	"github.com/pulseworks/pulseboard/internal/api/middleware"
	"github.com/pulseworks/pulseboard/internal/api/projects"
	"github.com/pulseworks/pulseboard/internal/api/respond"
	"github.com/pulseworks/pulseboard/internal/api/users"
)

// setupRouter creates and configures the chi router with all routes.
func (s *Server) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	jwtService := auth.NewJWTService(s.config.JWTSecret, s.config.AccessTokenTTL)
	lockoutTracker := auth.NewLockoutTracker(s.config.LockoutThreshold, s.config.LockoutDuration)

	ipLimiter := middleware.NewRateLimiter(s.config.RateLimitPerIP)
	userLimiter := middleware.NewRateLimiter(s.config.RateLimitPerUser)

	// Global middleware
	r.Use(middleware.RequestLogger(s.config.Verbose))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.PrometheusMiddleware)
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		// Auth routes
		r.Route("/auth", func(r chi.Router) {
			authHandler := auth.NewHandler(s.storage, jwtService, lockoutTracker)

			// Public routes with IP rate limiting
			r.Group(func(r chi.Router) {
				r.Use(middleware.RateLimitByIP(ipLimiter))
				r.Post("/login", authHandler.Login)
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.JWTAuth(jwtService))
				r.Post("/logout", authHandler.Logout)
			})
		})

		// Everything below requires authentication.
		r.Group(func(r chi.Router) {
			r.Use(middleware.JWTAuth(jwtService))
			r.Use(middleware.RateLimitByUser(userLimiter))

			// User management
			r.Route("/users", func(r chi.Router) {
				userHandler := users.NewHandler(s.storage)

				r.Get("/me", userHandler.GetCurrentUser)
				r.Put("/me/password", userHandler.ChangePassword)

				// Staff directory for assignment pickers
				r.Get("/staff", userHandler.Directory)

				// Superuser-only administration
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireSuperuser)
					r.Get("/", userHandler.List)
					r.Post("/", userHandler.Create)
				})

				r.Route("/{id}", func(r chi.Router) {
					r.Group(func(r chi.Router) {
						r.Use(middleware.RequireSuperuserOrSelf)
						r.Get("/", userHandler.GetByID)
					})
					r.Group(func(r chi.Router) {
						r.Use(middleware.RequireSuperuser)
						r.Put("/", userHandler.Update)
						r.Delete("/", userHandler.Delete)
					})
				})
			})

			// Projects and nested tasks
			r.Route("/projects", func(r chi.Router) {
				projectHandler := projects.NewHandler(s.storage, s.config.RequireMemberAssignment)

				r.Get("/", projectHandler.List)
				r.Post("/", projectHandler.Create)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", projectHandler.GetByID)
					r.Put("/", projectHandler.Update)
					r.Delete("/", projectHandler.Delete)

					r.Route("/tasks", func(r chi.Router) {
						r.Get("/", projectHandler.ListTasks)
						r.Post("/", projectHandler.CreateTask)
						r.Put("/{taskID}", projectHandler.UpdateTask)
						r.Delete("/{taskID}", projectHandler.DeleteTask)
					})
				})
			})

			// Shared Kanban board
			r.Route("/board", func(r chi.Router) {
				boardHandler := board.NewHandler(s.storage)

				r.Get("/", boardHandler.List)
				r.Post("/cards", boardHandler.Create)
				r.Put("/cards/{id}", boardHandler.Update)
				r.Delete("/cards/{id}", boardHandler.Delete)
				r.Post("/cards/{id}/move", boardHandler.Move)
			})

			// Analytics dashboard
			r.Route("/analytics", func(r chi.Router) {
				if s.analytics == nil {
					// No reporting credentials; every widget reads empty.
					r.Get("/*", func(w http.ResponseWriter, _ *http.Request) {
						respond.OK(w, []any{})
					})
					return
				}

				h := analyticsapi.NewHandler(s.analytics)
				r.Get("/overview", h.Overview)
				r.Get("/timeseries", h.Timeseries)
				r.Get("/devices", h.Devices)
				r.Get("/countries", h.Countries)
				r.Get("/sources", h.Sources)
				r.Get("/pages", h.Pages)
				r.Get("/realtime", h.Realtime)
			})
		})
	})

	// Health check (public, no rate limit)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respond.OK(w, map[string]string{"status": "ok"})
	})

	return r
}
