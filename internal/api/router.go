package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/huongkhe/schoolsite/internal/auth"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.NotFound(s.handle(s.handleNotFound))
	r.MethodNotAllowed(s.handle(s.handleNotFound))

	r.Route("/api", func(r chi.Router) {
		// Public
		r.Get("/health", s.handle(s.handleHealth))
		r.Method(http.MethodGet, "/ws", s.hub)
		r.Post("/contact", s.handle(s.handleContact))

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", s.handle(s.handleLogin))

			r.Group(func(r chi.Router) {
				r.Use(s.requireRole())
				r.Get("/verify", s.handle(s.handleVerify))
				r.Post("/logout", s.handle(s.handleLogout))
				r.Post("/refresh", s.handle(s.handleRefresh))
			})

			r.With(s.requirePermission(auth.PermAccountManage)).
				Post("/change-password", s.handle(s.handleChangePassword))
		})

		// Content collections: public reads, editor writes
		mountResource(s, r, s.news)
		mountResource(s, r, s.teachers)
		mountResource(s, r, s.clubs)
		mountResource(s, r, s.events)
		mountResource(s, r, s.gallery)

		if s.media != nil {
			r.With(s.requirePermission(auth.PermMediaUpload)).
				Post("/media", s.handle(s.handleUpload))
		}

		// Admin
		r.With(s.requirePermission(auth.PermSystemRead)).
			Get("/metrics", s.handle(s.handleMetrics))
		r.With(s.requirePermission(auth.PermAuditRead)).
			Get("/audit", s.handle(s.handleListAuditLogs))
	})

	// Frontend build, when configured. /api keeps its own 404s.
	if s.site != nil {
		r.Handle("/*", s.site)
	}

	return r
}
