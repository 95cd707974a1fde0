package analytichttp

import "github.com/go-chi/chi/v5"

// MountRoutes registers the analytics endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/dashboard", h.handleDashboard)
	r.Get("/dashboard.csv", h.handleDashboardCSV)
	r.Get("/insights", h.handleInsights)
	r.Get("/expenses", h.handleExpenses)
	r.Get("/low-stock", h.handleLowStock)
	r.Get("/products.csv", h.handleProductsCSV)
	r.Get("/categories.csv", h.handleCategoriesCSV)
}
