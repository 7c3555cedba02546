package http

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apperrors "github.com/RenanMGX/60737-Consolidar-Dados-Multiplas-Planilhas-Tesouraria/internal/errors"
)

// NewRouter mounts /healthz and, when metrics is not nil, /metrics
func NewRouter(health *HealthHandler, metrics http.Handler, logger *slog.Logger) *chi.Mux {
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(StructuredLogger(logger))
	r.Use(Recoverer(logger))
	r.NotFound(apperrors.NotFound)
	r.MethodNotAllowed(apperrors.MethodNotAllowed)

	r.With(render.SetContentType(render.ContentTypeJSON)).Get("/healthz", health.HealthCheck)
	if metrics != nil {
		r.Handle("/metrics", metrics)
	}
	return r
}

// Server runs the router in the background for the duration of a batch
type Server struct {
	srv      *http.Server
	listener net.Listener
	logger   *slog.Logger
	done     chan struct{}
}

// Start listens on addr and serves handler until Shutdown
func Start(addr string, handler http.Handler, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	s := &Server{
		srv: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
		listener: ln,
		logger:   logger.With(slog.String("component", "http")),
		done:     make(chan struct{}),
	}

	go func() {
		defer close(s.done)
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Server error", slog.String("error", err.Error()))
		}
	}()

	s.logger.Info("Serving metrics", slog.String("address", s.Addr()))
	return s, nil
}

// Addr returns the address actually listened on
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Shutdown stops the server and waits for the serve loop to exit
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.srv.Shutdown(ctx)
	<-s.done
	return err
}
