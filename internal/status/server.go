// Package status serves the monitor's operational surface: liveness and
// readiness probes plus a read-only snapshot of the last polling run. It
// exposes nothing that mutates pipeline state.
package status

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/dealradar/promo-monitor/internal/collector"
	"github.com/dealradar/promo-monitor/internal/pkg/httputil"
)

// Source is the collector-side view the status endpoints read from.
type Source interface {
	LastRun() *collector.RunResult
	Stats() map[string]int64
}

// Info is static deployment information shown on /status.
type Info struct {
	ChatsMonitored int    `json:"chats_monitored"`
	PollInterval   string `json:"poll_interval"`
	BatchSize      int    `json:"batch_size"`
}

// Server is the operational HTTP server.
type Server struct {
	src     Source
	info    Info
	handler http.Handler
	server  *http.Server
}

// NewServer builds the server and its routes.
func NewServer(src Source, checker *HealthChecker, info Info) *Server {
	s := &Server{src: src, info: info}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	// Read-only surface, no credentials involved.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", checker.HandleHealth)
	r.Get("/health/live", checker.HandleLiveness)
	r.Get("/health/ready", checker.HandleReadiness)
	r.Get("/status", s.handleStatus)

	s.handler = r
	return s
}

// handleStatus reports the last run summary and lifetime totals.
//
//	GET /status
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"info":   s.info,
		"totals": s.src.Stats(),
	}
	if last := s.src.LastRun(); last != nil {
		resp["last_run"] = last
	}
	httputil.OK(w, resp)
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.handler
}
