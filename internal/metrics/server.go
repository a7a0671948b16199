package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/recist-io/recist/internal/logging"
)

// DefaultPort is the default port the metrics endpoint listens on.
const DefaultPort = 9090

// Server serves /metrics for the given gatherer. Implements
// lifecycle.Component.
type Server struct {
	port     int
	gatherer prometheus.Gatherer
	server   *http.Server
	logger   *logging.Logger
}

// NewServer creates a metrics server for the given port and gatherer.
func NewServer(port int, gatherer prometheus.Gatherer) *Server {
	if port <= 0 {
		port = DefaultPort
	}
	s := &Server{
		port:     port,
		gatherer: gatherer,
		logger:   logging.GetLogger("metrics"),
	}
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// Start implements the lifecycle.Component interface.
func (s *Server) Start(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Metrics server error: %v", err)
		}
	}()

	s.logger.Info("Metrics server listening on port %d", s.port)
	return nil
}

// Stop implements the lifecycle.Component interface.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping metrics server...")

	done := make(chan error, 1)
	go func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		done <- s.server.Shutdown(shutdownCtx)
	}()

	select {
	case err := <-done:
		if err != nil {
			s.logger.Error("Metrics server shutdown error: %v", err)
			return err
		}
		s.logger.Info("Metrics server stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Metrics server shutdown timeout")
		return ctx.Err()
	}
}

// Name implements the lifecycle.Component interface.
func (s *Server) Name() string {
	return "Metrics Server"
}
