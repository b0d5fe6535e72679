package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers indicator and recommendation routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/indicators/{symbol}", h.HandleIndicators)

	r.Route("/recommendations", func(r chi.Router) {
		r.Post("/rebalance", h.HandleRebalance)
		r.Get("/history", h.HandleHistory)
	})
}
