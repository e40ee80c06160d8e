package revenue

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes attaches the revenue read endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/revenue/rolling-year", h.RollingYear)
	r.Get("/revenue/statistics", h.Statistics)
}
