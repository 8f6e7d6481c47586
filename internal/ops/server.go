// Package ops serves the operational HTTP surface: liveness, Prometheus
// metrics and a read-only view of the trade journal.
package ops

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"levelbot/internal/ports"
)

const recentTradesLimit = 50

// Server is a small HTTP server for operational endpoints. It never
// participates in trading decisions.
type Server struct {
	srv     *http.Server
	logger  ports.Logger
	journal ports.TradeJournal
}

// NewServer creates the ops server listening on addr. The journal may be
// nil, in which case /trades returns an empty list.
func NewServer(addr string, logger ports.Logger, journal ports.TradeJournal) *Server {
	s := &Server{logger: logger, journal: journal}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/trades", s.handleTrades).Methods(http.MethodGet)

	s.srv = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start(ctx context.Context) {
	go func() {
		s.logger.Info(ctx, "Ops server listening", map[string]interface{}{"addr": s.srv.Addr})
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error(ctx, err, "Ops server stopped unexpectedly")
		}
	}()
}

// Shutdown drains in-flight requests and closes the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if s.journal == nil {
		_, _ = w.Write([]byte("[]"))
		return
	}
	trades, err := s.journal.RecentTrades(r.Context(), recentTradesLimit)
	if err != nil {
		s.logger.Error(r.Context(), err, "Failed to read recent trades")
		http.Error(w, "journal unavailable", http.StatusInternalServerError)
		return
	}
	if err := json.NewEncoder(w).Encode(trades); err != nil {
		s.logger.Error(r.Context(), err, "Failed to encode trades response")
	}
}
