package handler

import (
	"log/slog"
	"net/http"

	"github.com/aaditya248659/Code-Snippet-Library/internal/service"
)

// AnalyticsHandler serves the platform-wide aggregate endpoints.
type AnalyticsHandler struct {
	analytics *service.AnalyticsService
	logger    *slog.Logger
}

// NewAnalyticsHandler creates an AnalyticsHandler.
func NewAnalyticsHandler(analytics *service.AnalyticsService, logger *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics, logger: logger}
}

// HandleOverview returns the platform totals.
// GET /api/analytics/overview
func (h *AnalyticsHandler) HandleOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.analytics.Overview(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeOK(w, http.StatusOK, envelope{"overview": overview})
}

// HandleLanguageDistribution returns approved snippet counts per language.
// GET /api/analytics/language-distribution
func (h *AnalyticsHandler) HandleLanguageDistribution(w http.ResponseWriter, r *http.Request) {
	counts, err := h.analytics.LanguageDistribution(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeOK(w, http.StatusOK, envelope{"languages": counts})
}

// HandleUserChart returns a user's approved snippets as chart points.
// GET /api/analytics/user/{username}/chart
func (h *AnalyticsHandler) HandleUserChart(w http.ResponseWriter, r *http.Request) {
	points, err := h.analytics.UserChart(r.Context(), r.PathValue("username"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeOK(w, http.StatusOK, envelope{"chart": points})
}
