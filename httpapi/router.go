package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter assembles the HTTP surface of the service.
func NewRouter(h *Handlers, verifier TokenVerifier) http.Handler {
	r := chi.NewRouter()

	r.Use(Metrics)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", h.Register)
		r.Post("/auth/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(RequireAuth(verifier))

			r.Get("/assets", h.ListAssets)
			r.Get("/assets/{id}", h.GetAsset)
			r.Get("/assets/{id}/transactions", h.GetAssetTransactions)
			r.Post("/assets/{id}/assign", h.Assign)
			r.Post("/assets/{id}/return", h.Return)

			r.Get("/categories", h.ListCategories)

			r.Group(func(r chi.Router) {
				r.Use(RequireAdmin)
				r.Post("/admin/assets/{id}/maintenance", h.SendToMaintenance)
				r.Post("/admin/assets/{id}/retire", h.Retire)
				r.Post("/admin/assets/{id}/reinstate", h.Reinstate)
				r.Post("/admin/scan", h.TriggerScan)
			})
		})
	})

	r.Get("/healthz", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
