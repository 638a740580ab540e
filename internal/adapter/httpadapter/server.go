package httpadapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RunStatus is the view of a pipeline run the listener reports on.
type RunStatus interface {
	sharedobs.ReadinessChecker
	Stage() string
}

// Server is a run-scoped listener for scraping a long regional run before
// the process exits. Routes: /healthz, /readyz, /status and /metrics.
type Server struct {
	addr     string
	handler  http.Handler
	listener net.Listener
	logger   *slog.Logger
}

// NewServer builds the routes. Nothing listens until Listen is called.
func NewServer(addr string, status RunStatus, logger *slog.Logger) *Server {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(status))
	mux.HandleFunc("GET /status", statusHandler(status))
	mux.Handle("GET /metrics", promhttp.Handler())

	return &Server{addr: addr, handler: mux, logger: logger}
}

type statusBody struct {
	Stage string `json:"stage"`
	Ready bool   `json:"ready"`
}

func statusHandler(status RunStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := statusBody{Stage: status.Stage(), Ready: status.CheckReadiness(r.Context()) == nil}
		sharedobs.WriteJSON(w, http.StatusOK, body)
	}
}

// Listen binds the address. Addr reports the bound port afterwards, which
// matters when addr ends in ":0".
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}
	s.listener = ln
	return nil
}

// Addr returns the bound address, or the configured one before Listen.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

// Serve handles requests until ctx is done, then drains open connections
// for at most grace. Listen must have succeeded first.
func (s *Server) Serve(ctx context.Context, grace time.Duration) error {
	if s.listener == nil {
		return errors.New("serve called before listen")
	}
	srv := &http.Server{
		Handler:      s.handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(s.listener) }()
	s.logger.Info("metrics listener started", "addr", s.Addr())

	select {
	case err := <-errCh:
		return fmt.Errorf("metrics listener: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("drain metrics listener: %w", err)
	}
	s.logger.Info("metrics listener stopped")
	return nil
}

// ServeHTTP dispatches to the routes without a listener.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}
