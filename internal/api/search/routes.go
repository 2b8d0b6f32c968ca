package search

import (
	"github.com/go-chi/chi/v5"

	"github.com/edubrain/answer-backend/internal/api/middleware"
)

// RegisterRoutes registers the OCS search routes behind the access token
// gate and, when configured, the rate limiter.
func RegisterRoutes(r chi.Router, h *Handler, accessToken string, limiter *middleware.RateLimiter) {
	r.Route("/api/search", func(r chi.Router) {
		r.Use(middleware.AuthOCS(accessToken))
		if limiter != nil {
			r.Use(limiter.Middleware())
		}
		r.Get("/", h.Search)
		r.Post("/", h.Search)
	})
}
