package server

import (
	"log/slog"
	"net/http"

	"velocity-dashboard/internal/daterange"
	"velocity-dashboard/internal/handlers"
	"velocity-dashboard/internal/services"
)

// Options carries the request-facing analytics settings.
type Options struct {
	DefaultRange    daterange.Token
	LeaderboardSize int
}

type Server struct {
	analytics    *services.Analytics
	mux          *http.ServeMux
	logger       *slog.Logger
	apiHandlers  *handlers.APIHandlers
	sseHandlers  *handlers.SSEHandlers
	pageHandlers *handlers.PageHandlers
}

func NewServer(analytics *services.Analytics, logger *slog.Logger, opts Options) *Server {
	s := &Server{
		analytics:    analytics,
		mux:          http.NewServeMux(),
		logger:       logger,
		apiHandlers:  handlers.NewAPIHandlers(analytics, opts.DefaultRange, logger),
		sseHandlers:  handlers.NewSSEHandlers(analytics, opts.DefaultRange, logger),
		pageHandlers: handlers.NewPageHandlers(analytics, opts.DefaultRange, opts.LeaderboardSize, logger),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// Pages
	s.mux.HandleFunc("GET /{$}", s.pageHandlers.HandleDashboard)
	s.mux.HandleFunc("GET /charts", s.pageHandlers.HandleCharts)
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)

	// REST API endpoints
	s.mux.HandleFunc("GET /api/summary", s.apiHandlers.HandleSummary)
	s.mux.HandleFunc("GET /api/dashboard", s.apiHandlers.HandleDashboard)
	s.mux.HandleFunc("GET /api/regions", s.apiHandlers.HandleRegions)
	s.mux.HandleFunc("GET /api/regions/{region}", s.apiHandlers.HandleRegion)
	s.mux.HandleFunc("GET /api/models", s.apiHandlers.HandleModels)
	s.mux.HandleFunc("GET /api/models/{model}", s.apiHandlers.HandleModel)
	s.mux.HandleFunc("GET /api/trend", s.apiHandlers.HandleTrend)
	s.mux.HandleFunc("GET /api/dealers", s.apiHandlers.HandleDealers)
	s.mux.HandleFunc("GET /api/quarters", s.apiHandlers.HandleQuarters)
	s.mux.HandleFunc("GET /api/market-share", s.apiHandlers.HandleMarketShare)
	s.mux.HandleFunc("GET /api/inventory", s.apiHandlers.HandleInventory)
	s.mux.HandleFunc("POST /api/assistant", s.apiHandlers.HandleAssistant)
	s.mux.HandleFunc("GET /api/export.xlsx", s.apiHandlers.HandleExport)

	// Datastar SSE endpoints
	s.mux.HandleFunc("GET /sse/dashboard", s.sseHandlers.HandleDashboard)
	s.mux.HandleFunc("GET /sse/region", s.sseHandlers.HandleRegion)
	s.mux.HandleFunc("POST /sse/assistant", s.sseHandlers.HandleAssistant)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
