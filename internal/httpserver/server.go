// Package httpserver exposes the observability-plane HTTP endpoints
// (liveness + Prometheus metrics). It is not part of the state-store data
// plane — per spec, the Unix domain socket gRPC server is the only wire
// surface for state operations; this mux exists purely for operators.
package httpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pinger is satisfied by the state-store service's Ping operation.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the small ops-only HTTP mux.
type Server struct {
	Router *chi.Mux
	logger *slog.Logger
	ping   Pinger
}

// NewServer builds the ops mux with /healthz and /metrics.
func NewServer(logger *slog.Logger, ping Pinger, reg *prometheus.Registry) *Server {
	s := &Server{
		Router: chi.NewRouter(),
		logger: logger,
		ping:   ping,
	}

	s.Router.Use(middleware.Recoverer)
	s.Router.Get("/healthz", s.handleHealthz)
	s.Router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	return s
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := s.ping.Ping(r.Context()); err != nil {
		s.logger.Error("healthz: ping failed", "error", err)
		respond(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
		return
	}
	respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

func respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
