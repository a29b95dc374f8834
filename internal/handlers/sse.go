package handlers

import (
	"encoding/json"
	stderrors "errors"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/starfederation/datastar-go/datastar"

	"velocity-dashboard/internal/assistant"
	"velocity-dashboard/internal/daterange"
	"velocity-dashboard/internal/format"
	"velocity-dashboard/internal/models"
	"velocity-dashboard/internal/observability"
	"velocity-dashboard/internal/services"
)

var funcs = template.FuncMap{
	"currency": format.Currency,
	"percent":  format.Percent,
	"signed":   format.SignedPercent,
	"number":   func(v int) string { return format.Number(float64(v)) },
}

var kpiTemplate = template.Must(template.New("kpis").Funcs(funcs).Parse(`
<div id="kpi-cards" class="kpi-grid">
<div class="kpi-card"><span class="kpi-label">Revenue · {{.Label}}</span><strong>{{currency .Revenue}}</strong></div>
<div class="kpi-card"><span class="kpi-label">Units Sold</span><strong>{{number .Units}}</strong></div>
<div class="kpi-card"><span class="kpi-label">YoY Growth</span><strong>{{signed .YoYGrowth}}</strong></div>
<div class="kpi-card"><span class="kpi-label">Avg Selling Price</span><strong>{{currency .AverageSalePrice}}</strong></div>
<div class="kpi-card"><span class="kpi-label">Gross Margin</span><strong>{{percent .GrossMargin}}</strong></div>
<div class="kpi-card"><span class="kpi-label">Market Share</span><strong>{{percent .MarketShare}}</strong></div>
</div>`))

var leaderboardTemplate = template.Must(template.New("leaderboard").Funcs(funcs).Parse(`
<tbody id="leaderboard-body">
{{range .}}<tr>
<td>#{{.Rank}}</td>
<td>{{.Name}}</td>
<td>{{.Region}}</td>
<td>{{.City}}</td>
<td><strong>{{currency .Revenue}}</strong></td>
<td>{{number .Units}}</td>
</tr>{{end}}
</tbody>`))

var regionTemplate = template.Must(template.New("region").Funcs(funcs).Parse(`
<div id="region-detail" class="region-detail level-{{.PerformanceLevel}}">
<h3>{{.Region}} <span class="rank">#{{.Rank}}</span></h3>
<dl>
<dt>Revenue</dt><dd>{{currency .Revenue}}</dd>
<dt>Units</dt><dd>{{number .Units}}</dd>
<dt>Target (YTD)</dt><dd>{{percent .TargetPct}} · {{.TargetStatus}}</dd>
<dt>Inventory</dt><dd>{{number .Inventory}}</dd>
{{with .TopDealer.Name}}<dt>Top Dealer</dt><dd>{{.}}</dd>{{end}}
</dl>
</div>`))

var answerTemplate = template.Must(template.New("answer").Parse(`
<div class="chat-message user"><div class="message-content">{{.Query}}</div></div>
<div class="chat-message bot intent-{{.Answer.Intent}}"><div class="message-content">
<strong>{{.Answer.Title}}</strong>
<ul>{{range .Answer.Lines}}<li>{{.}}</li>{{end}}</ul>
{{with .Answer.Footer}}<p>{{.}}</p>{{end}}
</div></div>`))

// signals are the datastar client signals the dashboard sends with each request.
type signals struct {
	Range  string `json:"range"`
	Metric string `json:"metric"`
	Region string `json:"region"`
	Query  string `json:"query"`
}

type SSEHandlers struct {
	analytics    *services.Analytics
	responder    *assistant.Responder
	defaultRange daterange.Token
	logger       *slog.Logger
}

func NewSSEHandlers(analytics *services.Analytics, defaultRange daterange.Token, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		analytics:    analytics,
		responder:    assistant.NewResponder(analytics),
		defaultRange: defaultRange.Normalize(),
		logger:       logger,
	}
}

func (h *SSEHandlers) readSignals(r *http.Request) signals {
	var s signals
	if err := datastar.ReadSignals(r, &s); err != nil {
		h.logger.Warn("read datastar signals",
			"error", err,
			"request_id", observability.GetRequestID(r.Context()),
		)
	}
	return s
}

func (h *SSEHandlers) rangeOf(s signals) daterange.Token {
	if s.Range == "" {
		return h.defaultRange
	}
	return daterange.Parse(s.Range)
}

func render(t *template.Template, data any) (string, error) {
	var buf strings.Builder
	err := t.Execute(&buf, data)
	return buf.String(), err
}

func flush(w http.ResponseWriter) {
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// HandleDashboard patches the KPI cards and leaderboard, and pushes chart data
// for the selected range and trend metric as signals.
func (h *SSEHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	sig := h.readSignals(r)
	rng := h.rangeOf(sig)

	snap, err := h.analytics.Dashboard(r.Context(), rng)
	if err != nil {
		h.logger.Error("build dashboard snapshot", "error", err, "range", rng.String())
		return
	}

	sse := datastar.NewSSE(w, r)

	kpis, err := render(kpiTemplate, snap.Summary)
	if err != nil {
		h.logger.Error("render kpi cards", "error", err)
		return
	}
	sse.PatchElements(kpis)

	board, err := render(leaderboardTemplate, snap.Leaderboard)
	if err != nil {
		h.logger.Error("render leaderboard", "error", err)
		return
	}
	sse.PatchElements(board)

	trend := snap.RevenueTrend
	if services.ParseMetric(sig.Metric) == services.MetricUnits {
		trend = snap.UnitsTrend
	}
	jsonData, err := json.Marshal(map[string]any{
		"range":       rng.String(),
		"rangeLabel":  snap.Summary.Label,
		"summary":     newSummaryView(snap.Summary),
		"trendData":   trend,
		"modelsData":  snap.Models,
		"regionsData": snap.Regions,
	})
	if err != nil {
		h.logger.Error("marshal dashboard signals", "error", err)
		return
	}
	sse.PatchSignals(jsonData)

	flush(w)
}

// HandleRegion patches the detail panel for the region named by the region signal.
func (h *SSEHandlers) HandleRegion(w http.ResponseWriter, r *http.Request) {
	sig := h.readSignals(r)
	rng := h.rangeOf(sig)

	sse := datastar.NewSSE(w, r)

	summary, err := h.analytics.RegionalSummary(sig.Region, rng)
	if err != nil {
		if !stderrors.Is(err, services.ErrInvalidIdentifier) {
			h.logger.Error("regional summary", "error", err, "region", sig.Region)
			return
		}
		sse.PatchElements(`<div id="region-detail" class="region-detail">Select a region on the map.</div>`)
		flush(w)
		return
	}

	html, err := render(regionTemplate, summary)
	if err != nil {
		h.logger.Error("render region detail", "error", err)
		return
	}
	sse.PatchElements(html)

	jsonData, err := json.Marshal(map[string]any{
		"regionSummary": regionSignal(summary),
	})
	if err != nil {
		h.logger.Error("marshal region signals", "error", err)
		return
	}
	sse.PatchSignals(jsonData)

	flush(w)
}

func regionSignal(s models.RegionalSummary) map[string]any {
	return map[string]any{
		"region":           s.Region,
		"targetPct":        finite(s.TargetPct),
		"performanceLevel": s.PerformanceLevel,
	}
}

// HandleAssistant appends the question and its answer to the chat log and
// clears the input signal.
func (h *SSEHandlers) HandleAssistant(w http.ResponseWriter, r *http.Request) {
	sig := h.readSignals(r)
	query := strings.TrimSpace(sig.Query)
	if query == "" || len(query) > maxQueryLength {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	answer, err := h.responder.Answer(query)
	if err != nil {
		h.logger.Error("assistant answer", "error", err, "query", query)
		return
	}

	html, err := render(answerTemplate, map[string]any{"Query": query, "Answer": answer})
	if err != nil {
		h.logger.Error("render assistant answer", "error", err)
		return
	}

	sse := datastar.NewSSE(w, r)
	sse.PatchElements(html,
		datastar.WithSelectorID("chat-messages"),
		datastar.WithModeAppend(),
	)
	sse.PatchSignals([]byte(`{"query":""}`))

	flush(w)
}
