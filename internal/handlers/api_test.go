package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"velocity-dashboard/internal/daterange"
	"velocity-dashboard/internal/services"
	"velocity-dashboard/internal/store"
)

func createTestAnalytics(t testing.TB) *services.Analytics {
	t.Helper()
	s, err := store.Default()
	if err != nil {
		t.Fatalf("load default fixture: %v", err)
	}
	return services.NewAnalytics(s)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestAPIHandlers(t testing.TB) *APIHandlers {
	return NewAPIHandlers(createTestAnalytics(t), daterange.YTD, testLogger())
}

// decode unwraps the success envelope and returns its data.
func decode(t *testing.T, w *httptest.ResponseRecorder) any {
	t.Helper()
	var response map[string]any
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}
	if success, ok := response["success"].(bool); !ok || !success {
		t.Fatalf("expected success=true in response, got %v", response)
	}
	return response["data"]
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var response struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
		Success bool `json:"success"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}
	if response.Success {
		t.Fatal("expected success=false in error response")
	}
	return response.Error.Code
}

func TestAPIHandlers_HandleSummary(t *testing.T) {
	handlers := newTestAPIHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/summary?range=q1", nil)
	w := httptest.NewRecorder()
	handlers.HandleSummary(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if cc := w.Header().Get("Cache-Control"); cc != cacheControl {
		t.Errorf("expected cache-control %q, got %q", cacheControl, cc)
	}

	data, ok := decode(t, w).(map[string]any)
	if !ok {
		t.Fatal("expected summary object in response")
	}
	if data["range"] != "q1" {
		t.Errorf("expected range q1, got %v", data["range"])
	}
	if data["label"] != "Q1 2024" {
		t.Errorf("expected label 'Q1 2024', got %v", data["label"])
	}
	for _, field := range []string{"revenue", "units", "yoy_growth", "average_selling_price", "gross_margin", "market_share"} {
		if _, ok := data[field]; !ok {
			t.Errorf("summary missing %q", field)
		}
	}
}

func TestAPIHandlers_RangeFallback(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(t), daterange.Q3, testLogger())

	tests := []struct {
		query string
		want  string
	}{
		{"", "q3"},
		{"?range=q2", "q2"},
		{"?range=decade", "ytd"},
	}

	for _, tt := range tests {
		t.Run(tt.want+tt.query, func(t *testing.T) {
			w := httptest.NewRecorder()
			handlers.HandleSummary(w, httptest.NewRequest(http.MethodGet, "/api/summary"+tt.query, nil))

			data := decode(t, w).(map[string]any)
			if data["range"] != tt.want {
				t.Errorf("expected range %q, got %v", tt.want, data["range"])
			}
		})
	}
}

func TestAPIHandlers_HandleRegion(t *testing.T) {
	handlers := newTestAPIHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/regions/West?range=q1", nil)
	req.SetPathValue("region", "West")
	w := httptest.NewRecorder()
	handlers.HandleRegion(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	data := decode(t, w).(map[string]any)
	if data["region"] != "West" {
		t.Errorf("expected region West, got %v", data["region"])
	}
	if units, _ := data["units"].(float64); units != 2943 {
		t.Errorf("expected 2943 units, got %v", data["units"])
	}
	if revenue, _ := data["revenue"].(float64); revenue != 187246000 {
		t.Errorf("expected revenue 187246000, got %v", data["revenue"])
	}
	if rank, _ := data["rank"].(float64); rank != 2 {
		t.Errorf("expected rank 2, got %v", data["rank"])
	}
}

func TestAPIHandlers_InvalidIdentifiers(t *testing.T) {
	handlers := newTestAPIHandlers(t)

	tests := []struct {
		name    string
		handler http.HandlerFunc
		param   string
		value   string
	}{
		{"unknown region", handlers.HandleRegion, "region", "Atlantis"},
		{"region case", handlers.HandleRegion, "region", "west"},
		{"unknown model", handlers.HandleModel, "model", "cybertruck"},
		{"model case", handlers.HandleModel, "model", "APEX"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/x/"+tt.value, nil)
			req.SetPathValue(tt.param, tt.value)
			w := httptest.NewRecorder()

			tt.handler(w, req)

			if w.Code != http.StatusNotFound {
				t.Errorf("expected status 404, got %d", w.Code)
			}
			if code := errorCode(t, w); code != "INVALID_IDENTIFIER" {
				t.Errorf("expected INVALID_IDENTIFIER, got %q", code)
			}
		})
	}
}

func TestAPIHandlers_HandleModel(t *testing.T) {
	handlers := newTestAPIHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/models/apex?range=q1", nil)
	req.SetPathValue("model", "apex")
	w := httptest.NewRecorder()
	handlers.HandleModel(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	data := decode(t, w).(map[string]any)
	if data["id"] != "apex" || data["range"] != "q1" {
		t.Errorf("unexpected model payload: %v", data)
	}
	units, _ := data["units"].(float64)
	revenue, _ := data["revenue"].(float64)
	if price, _ := data["price"].(float64); units*price != revenue {
		t.Errorf("revenue %v != units %v * price %v", revenue, units, price)
	}
}

func TestAPIHandlers_Collections(t *testing.T) {
	handlers := newTestAPIHandlers(t)

	tests := []struct {
		name    string
		handler http.HandlerFunc
		path    string
		length  int
	}{
		{"regions", handlers.HandleRegions, "/api/regions", 5},
		{"models", handlers.HandleModels, "/api/models?range=q2", 5},
		{"trend", handlers.HandleTrend, "/api/trend?range=q4&metric=units", 3},
		{"quarters", handlers.HandleQuarters, "/api/quarters", 4},
		{"dealers top 3", handlers.HandleDealers, "/api/dealers?limit=3", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.handler(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if w.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d", w.Code)
			}
			items, ok := decode(t, w).([]any)
			if !ok {
				t.Fatal("expected array data")
			}
			if len(items) != tt.length {
				t.Errorf("expected %d items, got %d", tt.length, len(items))
			}
		})
	}
}

func TestAPIHandlers_HandleDealers_BadLimit(t *testing.T) {
	handlers := newTestAPIHandlers(t)

	for _, limit := range []string{"abc", "-1"} {
		w := httptest.NewRecorder()
		handlers.HandleDealers(w, httptest.NewRequest(http.MethodGet, "/api/dealers?limit="+limit, nil))

		if w.Code != http.StatusBadRequest {
			t.Errorf("limit=%s: expected status 400, got %d", limit, w.Code)
		}
	}
}

func TestAPIHandlers_HandleInventoryAndShare(t *testing.T) {
	handlers := newTestAPIHandlers(t)

	w := httptest.NewRecorder()
	handlers.HandleInventory(w, httptest.NewRequest(http.MethodGet, "/api/inventory", nil))
	inv := decode(t, w).(map[string]any)
	if total, _ := inv["total"].(float64); total != 5605 {
		t.Errorf("expected inventory total 5605, got %v", inv["total"])
	}

	w = httptest.NewRecorder()
	handlers.HandleMarketShare(w, httptest.NewRequest(http.MethodGet, "/api/market-share", nil))
	share := decode(t, w).(map[string]any)
	if change, _ := share["change"].(float64); change < 1.29 || change > 1.31 {
		t.Errorf("expected market share change 1.3, got %v", share["change"])
	}
}

func TestAPIHandlers_HandleAssistant(t *testing.T) {
	handlers := newTestAPIHandlers(t)

	body := bytes.NewBufferString(`{"query":"How is the West region doing?"}`)
	w := httptest.NewRecorder()
	handlers.HandleAssistant(w, httptest.NewRequest(http.MethodPost, "/api/assistant", body))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	data := decode(t, w).(map[string]any)
	if data["intent"] != "region_performance" {
		t.Errorf("expected region_performance intent, got %v", data["intent"])
	}
	if title, _ := data["title"].(string); !strings.Contains(title, "West") {
		t.Errorf("expected West in title, got %q", title)
	}
}

func TestAPIHandlers_HandleAssistant_BadInput(t *testing.T) {
	handlers := newTestAPIHandlers(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"not json", "best seller?", http.StatusBadRequest},
		{"empty query", `{"query":"   "}`, http.StatusBadRequest},
		{"too long", `{"query":"` + strings.Repeat("a", maxQueryLength+1) + `"}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handlers.HandleAssistant(w, httptest.NewRequest(http.MethodPost, "/api/assistant", strings.NewReader(tt.body)))

			if w.Code != tt.want {
				t.Errorf("expected status %d, got %d", tt.want, w.Code)
			}
		})
	}
}

func TestAPIHandlers_HandleExport(t *testing.T) {
	handlers := newTestAPIHandlers(t)

	w := httptest.NewRecorder()
	handlers.HandleExport(w, httptest.NewRequest(http.MethodGet, "/api/export.xlsx?range=q2", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != xlsxType {
		t.Errorf("expected content-type %q, got %q", xlsxType, ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "velocity-sales-q2.xlsx") {
		t.Errorf("unexpected content-disposition %q", cd)
	}

	f, err := excelize.OpenReader(w.Body)
	if err != nil {
		t.Fatalf("export is not a valid workbook: %v", err)
	}
	defer f.Close()
	if len(f.GetSheetList()) < 2 {
		t.Errorf("expected several sheets, got %v", f.GetSheetList())
	}
}

func TestAPIHandlers_HandleHealth(t *testing.T) {
	handlers := newTestAPIHandlers(t)

	w := httptest.NewRecorder()
	handlers.HandleHealth(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected content-type 'application/json', got %q", ct)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "" {
		t.Errorf("health should not be cacheable, got %q", cc)
	}

	data := decode(t, w).(map[string]any)
	if status, _ := data["status"].(string); status != "healthy" {
		t.Errorf("expected status 'healthy', got %q", status)
	}
	if timestamp, _ := data["timestamp"].(string); timestamp == "" {
		t.Error("expected non-empty timestamp")
	} else if _, err := time.Parse(time.RFC3339, timestamp); err != nil {
		t.Errorf("invalid timestamp format: %v", err)
	}
}

func TestAPIHandlers_HandleStats(t *testing.T) {
	handlers := newTestAPIHandlers(t)

	w := httptest.NewRecorder()
	handlers.HandleSummary(w, httptest.NewRequest(http.MethodGet, "/api/summary", nil))

	w = httptest.NewRecorder()
	handlers.HandleStats(w, httptest.NewRequest(http.MethodGet, "/admin/stats", nil))

	data := decode(t, w).(map[string]any)
	if data["store_loaded"] != true {
		t.Errorf("expected store_loaded=true, got %v", data["store_loaded"])
	}
	if queries, _ := data["queries"].(float64); queries == 0 {
		t.Error("expected query counter to advance")
	}
}

func TestAPIHandlers_HandleDashboard(t *testing.T) {
	handlers := newTestAPIHandlers(t)

	w := httptest.NewRecorder()
	handlers.HandleDashboard(w, httptest.NewRequest(http.MethodGet, "/api/dashboard?range=q3", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	data := decode(t, w).(map[string]any)
	for _, field := range []string{"summary", "revenue_trend", "units_trend", "models", "regions", "leaderboard"} {
		if _, ok := data[field]; !ok {
			t.Errorf("snapshot missing %q", field)
		}
	}
}
