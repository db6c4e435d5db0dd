package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/V4T54L/voicewatch/internal/domain"
)

// CacheAdmin is the part of usecase.CacheAdminUseCase the admin handler needs.
type CacheAdmin interface {
	Invalidate(ctx context.Context, source string) (int64, error)
	SourceInfo(ctx context.Context, source string) (*domain.CacheInfo, error)
	Health(ctx context.Context) (*domain.CacheHealth, error)
}

// AdminHandler handles HTTP requests for cache administration.
type AdminHandler struct {
	cache  CacheAdmin
	logger *slog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(cache CacheAdmin, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{cache: cache, logger: logger.With("component", "admin_handler")}
}

// HealthCheck is a simple health check endpoint.
func (h *AdminHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// CacheHealth reports whether the cache server is reachable.
// GET /admin/cache/health
func (h *AdminHandler) CacheHealth(w http.ResponseWriter, r *http.Request) {
	health, err := h.cache.Health(r.Context())
	if err != nil {
		writeError(w, h.logger, err, "failed to check cache health")
		return
	}

	code := http.StatusOK
	if !health.Available {
		code = http.StatusServiceUnavailable
	}
	respondWithJSON(w, h.logger, code, health)
}

// GetSourceInfo describes the cached queries of a source.
// GET /admin/cache/sources/{source}
func (h *AdminHandler) GetSourceInfo(w http.ResponseWriter, r *http.Request) {
	source := chi.URLParam(r, "source")

	info, err := h.cache.SourceInfo(r.Context(), source)
	if err != nil {
		writeError(w, h.logger, err, "failed to get cache info")
		return
	}
	respondWithJSON(w, h.logger, http.StatusOK, info)
}

// InvalidateSource drops every cached query of a source.
// DELETE /admin/cache/sources/{source}
func (h *AdminHandler) InvalidateSource(w http.ResponseWriter, r *http.Request) {
	source := chi.URLParam(r, "source")

	removed, err := h.cache.Invalidate(r.Context(), source)
	if err != nil {
		writeError(w, h.logger, err, "failed to invalidate cache")
		return
	}

	respondWithJSON(w, h.logger, http.StatusOK, map[string]int64{"removed": removed})
}
