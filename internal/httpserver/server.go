// Package httpserver wraps the standard HTTP server with the service
// lifecycle used by the application runtime.
package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/credittrack/credittrack/internal/config"
	"github.com/credittrack/credittrack/pkg/logger"
)

// Server owns the listener lifecycle.
type Server struct {
	srv *http.Server
	log *logger.Logger
}

// New creates a server for the given handler.
func New(cfg config.ServerConfig, log *logger.Logger, handler http.Handler) *Server {
	if log == nil {
		log = logger.NewDefault("httpserver")
	}
	return &Server{
		srv: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      handler,
			ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
			WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		},
		log: log,
	}
}

// Start blocks serving requests until Shutdown is called.
func (s *Server) Start() error {
	s.log.Infof("HTTP server listening on %s", s.srv.Addr)
	return s.srv.ListenAndServe()
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
