// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/sentinel/pkg/logger"
)

// Default query limits.
const (
	defaultTrendingLimit = 10
	defaultMaxLimit      = 100
	defaultMaxBatchItems = 1000
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	BatchDependencies
	SignalDependencies
	TrendingDependencies
	AdminDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	batchesHandler  *BatchesHandler
	signalsHandler  *SignalsHandler
	trendingHandler *TrendingHandler
	adminHandler    *AdminHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	cfg := serverConfig{
		maxLimit:      defaultMaxLimit,
		maxBatchItems: defaultMaxBatchItems,
		logger:        logger.Discard(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		batchesHandler:  NewBatchesHandler(deps, cfg.maxBatchItems, cfg.logger),
		signalsHandler:  NewSignalsHandler(deps),
		trendingHandler: NewTrendingHandler(deps, cfg.maxLimit),
		adminHandler:    NewAdminHandler(deps, cfg.logger),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", MetricsMiddleware(s.healthHandler.HandleMetrics, "metrics"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/batches", MetricsMiddleware(s.batchesHandler.HandlePostBatch, "batches"))
	mux.HandleFunc("/signals/", MetricsMiddleware(s.signalsHandler.HandleGetSignal, "signals"))
	mux.HandleFunc("/history/", MetricsMiddleware(s.signalsHandler.HandleGetHistory, "history"))
	mux.HandleFunc("/trending", MetricsMiddleware(s.trendingHandler.HandleGetTrending, "trending"))
	mux.HandleFunc("/admin/reset", MetricsMiddleware(s.adminHandler.HandleReset, "admin_reset"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
