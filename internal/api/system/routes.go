package system

import (
	"github.com/go-chi/chi/v5"

	"github.com/edubrain/answer-backend/internal/api/middleware"
)

// RegisterRoutes registers health and management routes. Health stays
// public, everything else sits behind the access token.
func RegisterRoutes(r chi.Router, h *Handler, accessToken string) {
	r.Get("/api/health", h.Health)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(accessToken))
		r.Get("/api/stats", h.Stats)
		r.Post("/api/cache/clear", h.ClearCache)
		r.Get("/api/records", h.ListRecords)
		r.Get("/api/records/export", h.ExportRecords)
		r.Get("/api/records/{id}", h.GetRecord)
	})
}
