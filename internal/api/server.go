// Package api exposes the scoring engine over HTTP: health, metrics,
// and an endpoint that triggers a scoring run against a scan document.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/newthinker/scout/internal/core"
	"github.com/newthinker/scout/internal/metrics"
	"github.com/newthinker/scout/internal/pipeline"
)

// Server represents the HTTP server for the scoring engine
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
	pipeline   *pipeline.Pipeline
	registry   *metrics.Registry
}

// Config holds server configuration
type Config struct {
	Host        string
	Port        int
	MetricsPath string
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, p *pipeline.Pipeline, reg *metrics.Registry, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	mux := http.NewServeMux()

	var handler http.Handler = mux
	if reg != nil {
		handler = metrics.HTTPMiddleware(reg)(handler)
	}
	handler = metrics.LoggingMiddleware(logger)(handler)

	s := &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      handler,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 10 * time.Minute, // scoring runs are synchronous
			IdleTimeout:  60 * time.Second,
		},
		logger:   logger,
		mux:      mux,
		pipeline: p,
		registry: reg,
	}

	s.setupRoutes(cfg.MetricsPath)
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(metricsPath string) {
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.HandleFunc("/api/score", s.handleScore)

	if s.registry != nil {
		if metricsPath == "" {
			metricsPath = "/metrics"
		}
		s.mux.Handle(metricsPath, promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the server's HTTP handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// scoreRequest is the body of POST /api/score.
type scoreRequest struct {
	Scan     string `json:"scan"`
	Output   string `json:"output,omitempty"`
	Top      int    `json:"top,omitempty"`
	USMarket bool   `json:"us_market,omitempty"`
}

// scoreResponse summarizes a completed run.
type scoreResponse struct {
	RunID    string         `json:"run_id"`
	Scan     string         `json:"scan"`
	Output   string         `json:"output"`
	Symbols  int            `json:"symbols"`
	NoData   int            `json:"no_data"`
	Rankings map[string]int `json:"ranking_sizes"`
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed,
			core.WrapError(core.ErrDocumentInvalid, fmt.Errorf("method %s not allowed", r.Method)))
		return
	}

	var req scoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest,
			core.WrapError(core.ErrDocumentInvalid, fmt.Errorf("decoding request: %w", err)))
		return
	}
	if req.Scan == "" {
		req.Scan = "latest"
	}

	report, err := s.pipeline.Run(r.Context(), pipeline.Options{
		ScanRef:  req.Scan,
		Output:   req.Output,
		TopN:     req.Top,
		USMarket: req.USMarket,
	})
	if err != nil {
		s.logger.Error("scoring run failed", zap.String("scan", req.Scan), zap.Error(err))
		status := http.StatusInternalServerError
		if errors.Is(err, core.ErrDocumentInvalid) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err)
		return
	}

	resp := scoreResponse{
		RunID:    report.RunID,
		Scan:     report.ScanPath,
		Output:   report.OutputPath,
		Symbols:  report.Symbols,
		NoData:   report.NoData,
		Rankings: make(map[string]int, len(report.Rankings)),
	}
	for st, list := range report.Rankings {
		resp.Rankings[string(st)] = len(list)
	}
	writeJSON(w, http.StatusOK, resp)
}
