package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"suritec/ms_facturasend_connector/internal/infrastructure/config"
)

// Server wraps the HTTP listener with graceful shutdown.
type Server struct {
	log        *slog.Logger
	httpServer *http.Server
	shutdown   time.Duration
}

// Options de construcción del servidor.
type Options struct {
	Config  config.HTTPSettings
	Logger  *slog.Logger
	Handler http.Handler
}

// New crea el servidor HTTP sobre el handler provisto.
func New(opts Options) (*Server, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.Handler == nil {
		return nil, errors.New("handler is required")
	}

	return &Server{
		log: opts.Logger,
		httpServer: &http.Server{
			Addr:         opts.Config.Address(),
			Handler:      opts.Handler,
			ReadTimeout:  opts.Config.ReadTimeout,
			WriteTimeout: opts.Config.WriteTimeout,
			IdleTimeout:  opts.Config.IdleTimeout,
		},
		shutdown: opts.Config.ShutdownTimeout,
	}, nil
}

// Start blocks serving requests until the listener is closed.
func (s *Server) Start() error {
	s.log.Info("servidor HTTP iniciado", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests within the configured timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, s.shutdown)
	defer cancel()

	s.log.Info("apagando servidor HTTP")
	return s.httpServer.Shutdown(shutdownCtx)
}
