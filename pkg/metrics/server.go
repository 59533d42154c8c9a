package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ajitpratap0/borealis/pkg/errors"
	"github.com/ajitpratap0/borealis/pkg/logger"
)

// Server exposes the process metrics over HTTP. It serves the default
// Prometheus registry at /metrics plus a /health endpoint.
type Server struct {
	addr   string
	path   string
	server *http.Server
	logger *zap.Logger
	mu     sync.Mutex // protects server field
}

// NewServer creates a metrics server listening on addr. An empty addr
// defaults to ":9090".
func NewServer(addr string) *Server {
	if addr == "" {
		addr = ":9090"
	}
	return &Server{
		addr:   addr,
		path:   "/metrics",
		logger: logger.Get().With(zap.String("component", "metrics_server")),
	}
}

// Start starts the metrics HTTP server and blocks until it shuts down.
// Callers normally run it in its own goroutine.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.server != nil {
		s.mu.Unlock()
		return errors.New(errors.ErrorTypeAlreadyRunning, "metrics server already running")
	}

	mux := http.NewServeMux()
	mux.Handle(s.path, promhttp.HandlerFor(
		prometheus.DefaultGatherer,
		promhttp.HandlerOpts{EnableOpenMetrics: true},
	))
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv := s.server
	s.mu.Unlock()

	s.logger.Info("metrics server listening", zap.String("addr", s.addr), zap.String("path", s.path))

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, errors.ErrorTypeInternal, "metrics server failed")
	}
	return nil
}

// Stop stops the metrics server. Safe to call when the server never
// started.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server == nil {
		return nil
	}
	err := s.server.Close()
	s.server = nil // reset to allow restart
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to stop metrics server")
	}
	return nil
}

// Addr returns the configured listen address
func (s *Server) Addr() string {
	return s.addr
}
