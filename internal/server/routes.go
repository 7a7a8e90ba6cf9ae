package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/student-dashboard/internal/handler"
	"github.com/sakif/student-dashboard/internal/middleware"
)

type handlers struct {
	platform  *handler.PlatformHandler
	auth      *handler.AuthHandler
	users     *handler.UserHandler
	documents *handler.DocumentHandler
	health    *handler.HealthHandler
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE (* = session required):
//
//	GET    /healthz, /readyz, /metrics
//	GET    /auth/github/login, /auth/github/callback   (GitHub configured)
//
//	GET    /api/platform/combined?leetcode=&codeforces=&atcoder=
//
//	POST   /api/auth/register | login | logout
//	GET    /api/auth/me                                *
//
//	GET    /api/users, /{id}, /{id}/links, /{id}/analytics, /links/{rollNumber}
//	POST   /api/users                                  *
//	PUT    /api/users/{id}, /{id}/links, /links/{rollNumber}   *
//	DELETE /api/users/{id}                             *
//	POST   /api/users/bulk/create                      *
//	PUT    /api/users/links/bulk/update                *
//
//	/api/pdfs, /api/resumes, /api/certifications: reads are public,
//	uploads and deletes need a session.
//
// MIDDLEWARE ORDER MATTERS:
// 1. RequestID: assigns an ID the logger picks up
// 2. RealIP: extracts the client IP from proxy headers
// 3. Metrics and Logger: wrap everything below, so they see final statuses
// 4. Recoverer: turns panics into 500s before the outer layers record them
func (s *Server) setupRoutes(h handlers, requireAuth func(http.Handler) http.Handler, github bool) {
	r := s.router

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Metrics(s.metrics))
	r.Use(middleware.Logger(s.logger))
	r.Use(chimiddleware.Recoverer)

	// === Operational ===
	r.Get("/healthz", h.health.HandleLive)
	r.Get("/readyz", h.health.HandleReady)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}

	if github {
		r.Get("/auth/github/login", h.auth.HandleGitHubLogin)
		r.Get("/auth/github/callback", h.auth.HandleGitHubCallback)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/platform/combined", h.platform.HandleCombined)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.auth.HandleRegister)
			r.Post("/login", h.auth.HandleLogin)
			r.Post("/logout", h.auth.HandleLogout)
			r.With(requireAuth).Get("/me", h.auth.HandleMe)
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", h.users.HandleList)
			r.Get("/{id}", h.users.HandleGet)
			r.Get("/{id}/links", h.users.HandleGetLinks)
			r.Get("/{id}/analytics", h.users.HandleAnalytics)
			r.Get("/links/{rollNumber}", h.users.HandleGetLinksByRollNumber)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", h.users.HandleCreate)
				r.Put("/{id}", h.users.HandleUpdate)
				r.Delete("/{id}", h.users.HandleDelete)
				r.Put("/{id}/links", h.users.HandleUpdateLinks)
				r.Put("/links/{rollNumber}", h.users.HandleUpdateLinksByRollNumber)
				r.Post("/bulk/create", h.users.HandleBulkCreate)
				r.Put("/links/bulk/update", h.users.HandleBulkUpdateLinks)
			})
		})

		r.Route("/pdfs", func(r chi.Router) {
			r.Get("/", h.documents.HandleListPDFs)
			r.Get("/{name}", h.documents.HandleGetPDF)
			r.Get("/{name}/info", h.documents.HandlePDFInfo)
			r.With(requireAuth).Post("/", h.documents.HandleUploadPDF)
			r.With(requireAuth).Put("/{name}", h.documents.HandleReplacePDF)
			r.With(requireAuth).Delete("/{name}", h.documents.HandleDeletePDF)
		})

		r.Route("/resumes", func(r chi.Router) {
			r.Get("/", h.documents.HandleListResumes)
			r.Get("/{rollNumber}", h.documents.HandleGetResume)
			r.Get("/{rollNumber}/info", h.documents.HandleResumeInfo)
			r.Get("/{rollNumber}/exists", h.documents.HandleResumeExists)
			r.With(requireAuth).Post("/{rollNumber}", h.documents.HandleUploadResume)
			r.With(requireAuth).Delete("/{rollNumber}", h.documents.HandleDeleteResume)
		})

		r.Route("/certifications", func(r chi.Router) {
			r.Get("/user/{userId}", h.documents.HandleListCertifications)
			r.Get("/{id}", h.documents.HandleGetCertification)
			r.With(requireAuth).Post("/", h.documents.HandleUploadCertification)
			r.With(requireAuth).Delete("/{id}", h.documents.HandleDeleteCertification)
		})
	})
}
