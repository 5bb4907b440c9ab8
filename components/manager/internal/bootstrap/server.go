// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package bootstrap

import (
	"context"
	"errors"
	"net"
	"os/signal"
	"syscall"

	"github.com/navimedi/reporter/pkg"
	"github.com/navimedi/reporter/pkg/constant"
	"github.com/navimedi/reporter/pkg/log"

	"github.com/gofiber/fiber/v2"
)

// Server represents the http server of the manager.
type Server struct {
	app           *fiber.App
	serverAddress string
	logger        log.Logger
}

// ServerAddress returns is a convenience method to return the server address.
func (s *Server) ServerAddress() string {
	return s.serverAddress
}

// NewServer creates an instance of Server.
func NewServer(cfg *Config, app *fiber.App, logger log.Logger) *Server {
	return &Server{
		app:           app,
		serverAddress: cfg.ServerAddress,
		logger:        logger,
	}
}

// Run serves until SIGINT or SIGTERM, then drains in-flight requests.
func (s *Server) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", s.serverAddress)
	if err != nil {
		return err
	}

	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)

	pkg.GoNamed(s.logger, "http-server", func() {
		s.logger.Infof("HTTP server listening on %s", ln.Addr())
		errCh <- s.app.Listener(ln)
	}, func(r any) {
		errCh <- pkg.PanicError("http-server", r)
	})

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server...")

	if err := s.app.ShutdownWithTimeout(constant.ServerShutdownTimeout); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Errorf("HTTP server shutdown failed: %v", err)

		return err
	}

	s.logger.Info("HTTP server stopped")

	return nil
}
