package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sevigo/pr-sentry/internal/scheduler"
)

// StatusSource exposes the scheduler's observable state to the HTTP surface.
type StatusSource interface {
	Phase() scheduler.Phase
	LastCycle() (scheduler.CycleStats, bool)
}

// statusResponse is the JSON shape of /api/v1/status.
type statusResponse struct {
	Phase     scheduler.Phase       `json:"phase"`
	LastCycle *scheduler.CycleStats `json:"last_cycle,omitempty"`
}

// NewRouter creates and configures a new HTTP router with middleware, the
// health check, and the status endpoint.
func NewRouter(status StatusSource, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", func(w http.ResponseWriter, _ *http.Request) {
			resp := statusResponse{Phase: status.Phase()}
			if stats, ok := status.LastCycle(); ok {
				resp.LastCycle = &stats
			}
			w.Header().Set("Content-Type", "application/json")
			if err := json.NewEncoder(w).Encode(resp); err != nil {
				logger.Error("failed to encode status response", "error", err)
			}
		})
	})

	return r
}
