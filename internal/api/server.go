package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/JakeFAU/news-archive-dataset/internal/dataset"
	"github.com/JakeFAU/news-archive-dataset/internal/metrics"
)

const (
	readHeaderTimeout = 5 * time.Second
	requestTimeout    = 30 * time.Second
)

// stages lists the stages reported by /v1/outcomes, in pipeline order.
var stages = []string{
	dataset.StageDiscovery,
	dataset.StageLookup,
	dataset.StageExtraction,
	dataset.StageNormalization,
}

// Server exposes health, metrics, and outcome routes.
type Server struct {
	router chi.Router
	tally  *metrics.Tally
	logger *zap.Logger

	srv *http.Server
}

// NewServer constructs a Server with middleware and routes. tally may be nil,
// in which case /v1/outcomes reports empty counts.
func NewServer(tally *metrics.Tally, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if tally == nil {
		tally = metrics.NewTally()
	}
	s := &Server{
		tally:  tally,
		logger: logger,
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(metricsMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(timeoutMiddleware(requestTimeout))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Get("/v1/outcomes", s.outcomes)

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on addr and serves in the background. It returns the bound
// address, which differs from addr when addr asks for port 0.
func (s *Server) Start(addr string) (string, error) {
	if s.srv != nil {
		return "", errors.New("server already started")
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("listen %s: %w", addr, err)
	}
	s.srv = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("metrics server error", zap.Error(err))
		}
	}()
	bound := ln.Addr().String()
	s.logger.Info("metrics server started", zap.String("addr", bound))
	return bound, nil
}

// Shutdown stops a started server. It is a no-op otherwise.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown metrics server: %w", err)
	}
	return nil
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type stageOutcomes struct {
	Stage    string                    `json:"stage"`
	Total    int64                     `json:"total"`
	Outcomes map[dataset.Outcome]int64 `json:"outcomes"`
}

func (s *Server) outcomes(w http.ResponseWriter, _ *http.Request) {
	report := make([]stageOutcomes, 0, len(stages))
	for _, stage := range stages {
		report = append(report, stageOutcomes{
			Stage:    stage,
			Total:    s.tally.Total(stage),
			Outcomes: s.tally.Snapshot(stage),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"stages": report})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
