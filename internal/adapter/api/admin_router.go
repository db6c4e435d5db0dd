package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/V4T54L/voicewatch/internal/adapter/api/handler"
	"github.com/V4T54L/voicewatch/internal/adapter/api/middleware"
)

// NewAdminRouter creates and configures the HTTP router for admin operations and metrics.
// Cache routes require one of keys in X-API-Key when keys is non-empty.
func NewAdminRouter(admin *handler.AdminHandler, keys []string, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)

	r.Get("/health", admin.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/admin/cache", func(r chi.Router) {
		r.Use(middleware.Auth(keys, logger))
		r.Get("/health", admin.CacheHealth)
		r.Get("/sources/{source}", admin.GetSourceInfo)
		r.Delete("/sources/{source}", admin.InvalidateSource)
	})

	return r
}
