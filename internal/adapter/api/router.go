package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/V4T54L/voicewatch/internal/adapter/api/handler"
	"github.com/V4T54L/voicewatch/internal/adapter/api/middleware"
)

// NewRouter creates and configures the main HTTP router for the dashboard API.
// broker may be nil when live updates are disabled.
func NewRouter(logger *slog.Logger, dashboard *handler.DashboardHandler, broker *handler.SSEBroker) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.Logging(logger))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Route("/v1/sources/{source}", func(r chi.Router) {
		r.Get("/conversations", dashboard.Conversations)
		r.Get("/time-summary", dashboard.TimeSummary)
		r.Get("/intents", dashboard.Intents)
		r.Get("/stats", dashboard.Stats)
		if broker != nil {
			r.Method(http.MethodGet, "/events", broker)
		}
	})

	return r
}
