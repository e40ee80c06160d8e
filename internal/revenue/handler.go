package revenue

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Handler serves the revenue read endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the revenue HTTP handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

type rollingYearResponse struct {
	Months     []MonthlyRevenue `json:"months"`
	Statistics Statistics       `json:"statistics"`
}

// RollingYear returns the dense 12-month series with statistics. The read
// path degrades internally, so this endpoint always answers 200.
func (h *Handler) RollingYear(w http.ResponseWriter, r *http.Request) {
	series, stats := h.service.RollingYearWithStatistics(r.Context())
	h.writeJSON(w, rollingYearResponse{Months: series, Statistics: stats})
}

// Statistics returns only the summary statistics for the rolling year.
func (h *Handler) Statistics(w http.ResponseWriter, r *http.Request) {
	_, stats := h.service.RollingYearWithStatistics(r.Context())
	h.writeJSON(w, stats)
}

func (h *Handler) writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Warn("write revenue response", slog.Any("error", err))
	}
}
