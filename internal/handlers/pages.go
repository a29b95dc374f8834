package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"velocity-dashboard/internal/charts"
	"velocity-dashboard/internal/daterange"
	"velocity-dashboard/internal/observability"
	"velocity-dashboard/internal/services"
	"velocity-dashboard/internal/ui/templates"
)

const renderTimeout = 10 * time.Second

type PageHandlers struct {
	analytics       *services.Analytics
	defaultRange    daterange.Token
	leaderboardSize int
	logger          *slog.Logger
}

func NewPageHandlers(analytics *services.Analytics, defaultRange daterange.Token, leaderboardSize int, logger *slog.Logger) *PageHandlers {
	return &PageHandlers{
		analytics:       analytics,
		defaultRange:    defaultRange.Normalize(),
		leaderboardSize: leaderboardSize,
		logger:          logger,
	}
}

func (h *PageHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
	defer cancel()

	rng := rangeParam(r, h.defaultRange)
	props := templates.DashboardProps{
		Company:     h.analytics.Company(),
		Range:       rng,
		Summary:     h.analytics.VPSummary(rng),
		Regions:     h.analytics.RegionalComparison(rng),
		Leaderboard: h.analytics.Leaderboard(h.leaderboardSize),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", cacheControl)
	if err := templates.Dashboard(props).Render(ctx, w); err != nil {
		h.logger.Error("render dashboard", "error", err, "request_id", observability.GetRequestID(r.Context()))
		http.Error(w, "render error", http.StatusInternalServerError)
	}
}

func (h *PageHandlers) HandleCharts(w http.ResponseWriter, r *http.Request) {
	snap, err := h.analytics.Dashboard(r.Context(), rangeParam(r, h.defaultRange))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := charts.Render(w, h.analytics.Company().Name, snap); err != nil {
		h.logger.Error("render charts", "error", err, "request_id", observability.GetRequestID(r.Context()))
	}
}
