package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures the HTTP router. metricsHandler serves the
// Prometheus exposition endpoint and may be nil.
func SetupRoutes(h *Handlers, metricsHandler http.Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Actor"},
		MaxAge:         300,
	}))

	r.Get("/healthz", h.HealthCheck)
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/events", h.IngestEvent)

		r.Get("/config", h.GetConfig)
		r.Patch("/config", h.UpdateConfig)

		r.Route("/suppressions", func(r chi.Router) {
			r.Get("/", h.ListSuppressions)
			r.Post("/", h.AddSuppression)
			r.Get("/summary", h.SuppressionSummary)
			r.Get("/check", h.CheckSuppression)
			r.Delete("/{email}", h.RemoveSuppression)
		})

		r.Route("/stats", func(r chi.Router) {
			r.Get("/delivery", h.GetDeliveryStats)
			r.Get("/alerts", h.GetHealthAlerts)
			r.Get("/campaigns", h.GetCampaignStats)
		})

		r.Post("/maintenance/cleanup", h.RunCleanup)
	})

	return r
}
