// Package server exposes the query pipeline over HTTP: an SSE streaming
// endpoint, a liveness endpoint, and Prometheus metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cinegraph/cinegraph/pkg/config"
	"github.com/cinegraph/cinegraph/pkg/logger"
	"github.com/cinegraph/cinegraph/pkg/orchestrator"
)

// QueryHandler runs one query through the pipeline.
type QueryHandler interface {
	Handle(ctx context.Context, query string) orchestrator.Outcome
}

// Server is the HTTP front end.
type Server struct {
	cfg         config.ServerConfig
	handler     QueryHandler
	log         *slog.Logger
	streamDelay time.Duration
}

// New creates a Server.
func New(cfg config.ServerConfig, handler QueryHandler) *Server {
	return &Server{
		cfg:         cfg,
		handler:     handler,
		log:         logger.With("component", "server"),
		streamDelay: time.Duration(cfg.StreamDelayMS) * time.Millisecond,
	}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.corsMiddleware)

	r.Get("/", s.handleRoot)
	r.Get("/stream", s.handleStream)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: s.Routes(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// corsMiddleware allows a frontend on another origin to call the API.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.cfg.AllowedOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"message": "CineGraph server is running",
	})
}
