package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers transaction and PNL routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/transactions", func(r chi.Router) {
		r.Get("/", h.HandleListTransactions)
		r.Post("/", h.HandleCreateTransactions)
	})

	r.Route("/pnl", func(r chi.Router) {
		r.Get("/realized", h.HandleRealizedPNL)
		r.Post("/portfolio", h.HandlePortfolioPNL)
		r.Get("/{exchange}/{asset}", h.HandleGetPNL)
	})
}
