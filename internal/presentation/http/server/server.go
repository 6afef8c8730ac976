// Package server runs the plugin's HTTP listener.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/AtRiskMedia/inventree-wireviz-go/internal/application/container"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/presentation/http/routes"
	"github.com/AtRiskMedia/inventree-wireviz-go/pkg/config"
)

// Server owns the http.Server built around the plugin routes.
type Server struct {
	httpServer *http.Server
	logger     *logging.ChanneledLogger
}

// New builds a server for port with every route wired from container.
func New(port string, container *container.Container) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              ":" + port,
			Handler:           routes.SetupRoutes(container),
			ReadTimeout:       config.ServerReadTimeout,
			ReadHeaderTimeout: config.ServerReadTimeout,
			WriteTimeout:      config.ServerWriteTimeout,
			IdleTimeout:       config.ServerIdleTimeout,
		},
		logger: container.Logger,
	}
}

// Start listens on the configured address and serves until Stop.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ln)
}

// Serve serves on an existing listener. A clean Stop returns nil.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Startup().Info("HTTP server listening", "addr", ln.Addr().String())
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Stop drains in-flight requests until ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Shutdown().Info("Shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
