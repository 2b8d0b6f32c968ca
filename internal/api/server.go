package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/edubrain/answer-backend/internal/api/docs"
	"github.com/edubrain/answer-backend/internal/api/middleware"
	searchapi "github.com/edubrain/answer-backend/internal/api/search"
	systemapi "github.com/edubrain/answer-backend/internal/api/system"
)

// SetupRouter creates and configures the HTTP router
func SetupRouter(
	searchHandler *searchapi.Handler,
	systemHandler *systemapi.Handler,
	accessToken string,
	limiter *middleware.RateLimiter,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(chimiddleware.Recoverer)                 // Recover from panics
	r.Use(chimiddleware.RequestID)                 // Add request ID
	r.Use(chimiddleware.RealIP)                    // Resolve client IP behind proxies
	r.Use(middleware.Logger(logger))               // Log requests
	r.Use(middleware.CORS)                         // Handle CORS
	r.Use(chimiddleware.Timeout(60 * time.Second)) // Default timeout

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	// Swagger documentation endpoints
	docs.RegisterRoutes(r)

	// Register routes
	searchapi.RegisterRoutes(r, searchHandler, accessToken, limiter)
	systemapi.RegisterRoutes(r, systemHandler, accessToken)

	return r
}
