package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/face-enroll/internal/web/handlers"
	"github.com/kozaktomas/face-enroll/internal/web/middleware"
)

func (s *Server) setupRoutes() {
	enrollmentHandler := handlers.NewEnrollmentHandler(s.logger)
	usersHandler := handlers.NewUsersHandler(s.deps.Users, s.deps.Registry, s.logger)
	configHandler := handlers.NewConfigHandler(s.config, s.deps.Profile)

	// Health check (no session required)
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/config", configHandler.Get)

		// Users
		r.Get("/users", usersHandler.List)
		r.Get("/users/{id}", usersHandler.Get)
		r.Delete("/users/{id}", usersHandler.Delete)
		r.Patch("/users/{id}/status", usersHandler.UpdateStatus)
		r.Get("/session/enrollments", usersHandler.SessionEnrollments)

		// Enrollment workflow, one per browser session
		r.Group(func(r chi.Router) {
			r.Use(middleware.WithSession(s.sessionManager))

			r.Get("/enrollment", enrollmentHandler.Get)
			r.Post("/enrollment/image", enrollmentHandler.UploadImage)
			r.Post("/enrollment/camera", enrollmentHandler.OpenCamera)
			r.Post("/enrollment/camera/capture", enrollmentHandler.Capture)
			r.Delete("/enrollment/camera", enrollmentHandler.CloseCamera)
			r.Post("/enrollment/detect", enrollmentHandler.Detect)
			r.Post("/enrollment/continue", enrollmentHandler.Continue)
			r.Put("/enrollment/draft", enrollmentHandler.UpdateDraft)
			r.Post("/enrollment/submit", enrollmentHandler.Submit)
			r.Post("/enrollment/back", enrollmentHandler.Back)
			r.Post("/enrollment/reset", enrollmentHandler.Reset)
		})
	})
}
