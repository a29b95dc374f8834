package handlers

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"velocity-dashboard/internal/assistant"
	"velocity-dashboard/internal/daterange"
	"velocity-dashboard/internal/errors"
	"velocity-dashboard/internal/export"
	"velocity-dashboard/internal/observability"
	"velocity-dashboard/internal/services"
)

const (
	cacheControl   = "public, max-age=300"
	maxQueryLength = 500
	xlsxType       = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var cacheHeaders = map[string]string{
	"Cache-Control": cacheControl,
}

type APIHandlers struct {
	analytics    *services.Analytics
	responder    *assistant.Responder
	defaultRange daterange.Token
	logger       *slog.Logger
}

func NewAPIHandlers(analytics *services.Analytics, defaultRange daterange.Token, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		analytics:    analytics,
		responder:    assistant.NewResponder(analytics),
		defaultRange: defaultRange.Normalize(),
		logger:       logger,
	}
}

// rangeParam reads ?range=, falling back to the configured default when absent
// and to ytd when unrecognized.
func rangeParam(r *http.Request, fallback daterange.Token) daterange.Token {
	v := r.URL.Query().Get("range")
	if v == "" {
		return fallback
	}
	return daterange.Parse(v)
}

// writeError translates engine errors into the JSON error envelope.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	requestID := observability.GetRequestID(r.Context())

	var appErr *errors.AppError
	switch {
	case stderrors.As(err, &appErr):
	case stderrors.Is(err, services.ErrInvalidIdentifier):
		appErr = errors.InvalidIdentifier(err)
	case stderrors.Is(err, services.ErrNoDealer):
		appErr = errors.Wrap(err, errors.CodeNotFound, "No dealers in region")
	default:
		appErr = errors.InternalWrap(err, "An unexpected error occurred")
	}
	errors.WriteError(w, logger, appErr, requestID)
}

func (h *APIHandlers) HandleSummary(w http.ResponseWriter, r *http.Request) {
	data := h.analytics.VPSummary(rangeParam(r, h.defaultRange))

	errors.WriteSuccessWithHeaders(w, newSummaryView(data), cacheHeaders)
}

func (h *APIHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	snap, err := h.analytics.Dashboard(r.Context(), rangeParam(r, h.defaultRange))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	errors.WriteSuccessWithHeaders(w, newSnapshotView(snap), cacheHeaders)
}

func (h *APIHandlers) HandleRegions(w http.ResponseWriter, r *http.Request) {
	data := h.analytics.RegionalComparison(rangeParam(r, h.defaultRange))

	errors.WriteSuccessWithHeaders(w, data, cacheHeaders)
}

func (h *APIHandlers) HandleRegion(w http.ResponseWriter, r *http.Request) {
	data, err := h.analytics.RegionalSummary(r.PathValue("region"), rangeParam(r, h.defaultRange))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	errors.WriteSuccessWithHeaders(w, data, cacheHeaders)
}

func (h *APIHandlers) HandleModels(w http.ResponseWriter, r *http.Request) {
	data := h.analytics.ModelBreakdown(rangeParam(r, h.defaultRange))

	errors.WriteSuccessWithHeaders(w, data, cacheHeaders)
}

func (h *APIHandlers) HandleModel(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("model")
	rng := rangeParam(r, h.defaultRange)

	m, err := h.analytics.Model(id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	units, err := h.analytics.UnitsByModel(id, rng)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	revenue, err := h.analytics.RevenueByModel(id, rng)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	errors.WriteSuccessWithHeaders(w, modelView{Model: m, Range: rng.String(), Units: units, Revenue: revenue}, cacheHeaders)
}

func (h *APIHandlers) HandleTrend(w http.ResponseWriter, r *http.Request) {
	metric := services.ParseMetric(r.URL.Query().Get("metric"))
	data := h.analytics.MonthlyTrend(metric, rangeParam(r, h.defaultRange))

	errors.WriteSuccessWithHeaders(w, data, cacheHeaders)
}

func (h *APIHandlers) HandleDealers(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, r, h.logger, errors.BadRequest(fmt.Sprintf("limit must be a non-negative integer, got %q", v)))
			return
		}
		limit = n
	}

	errors.WriteSuccessWithHeaders(w, h.analytics.Leaderboard(limit), cacheHeaders)
}

func (h *APIHandlers) HandleQuarters(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccessWithHeaders(w, h.analytics.QuarterComparison(), cacheHeaders)
}

func (h *APIHandlers) HandleMarketShare(w http.ResponseWriter, r *http.Request) {
	data := marketShareView{
		MarketShare: h.analytics.MarketShare(),
		Change:      h.analytics.MarketShareChange(),
	}

	errors.WriteSuccessWithHeaders(w, data, cacheHeaders)
}

func (h *APIHandlers) HandleInventory(w http.ResponseWriter, r *http.Request) {
	data := inventoryView{
		Regions: h.analytics.InventoryLevels(),
		Total:   h.analytics.TotalInventory(),
	}

	errors.WriteSuccessWithHeaders(w, data, cacheHeaders)
}

type assistantRequest struct {
	Query string `json:"query"`
}

func (h *APIHandlers) HandleAssistant(w http.ResponseWriter, r *http.Request) {
	var req assistantRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&req); err != nil {
		writeError(w, r, h.logger, errors.BadRequestWrap(err, "Request body must be JSON with a query field"))
		return
	}

	query := strings.TrimSpace(req.Query)
	if query == "" || len(query) > maxQueryLength {
		writeError(w, r, h.logger, errors.Validation(fmt.Sprintf("query must be 1-%d characters", maxQueryLength)))
		return
	}

	answer, err := h.responder.Answer(query)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.logger.Debug("assistant answered",
		"intent", answer.Intent,
		"request_id", observability.GetRequestID(r.Context()),
	)
	errors.WriteSuccess(w, answer)
}

func (h *APIHandlers) HandleExport(w http.ResponseWriter, r *http.Request) {
	rng := rangeParam(r, h.defaultRange)

	f, err := export.Build(h.analytics, rng)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", xlsxType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="velocity-sales-%s.xlsx"`, rng))
	if err := f.Write(w); err != nil {
		h.logger.Error("write export workbook",
			"error", err,
			"range", rng.String(),
			"request_id", observability.GetRequestID(r.Context()),
		)
	}
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {

	healthData := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {

	stats := h.analytics.Stats()

	errors.WriteSuccess(w, stats)
}
