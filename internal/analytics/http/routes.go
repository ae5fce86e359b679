package analytichttp

import "github.com/go-chi/chi/v5"

// MountRoutes registers the analytics endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	r.Get("/rollup", h.handleRollup)
	r.Get("/rollup/export", h.handleRollupExport)
	r.Get("/dre", h.handleDRE)
	r.Get("/abc", h.handleABC)
	r.Get("/cashflow", h.handleCashFlow)
	r.Get("/distribution", h.handleDistribution)
	r.Post("/distribution", h.handleSaveDistribution)
	r.Get("/trends", h.handleTrends)
}
