// Package api provides the HTTP API for Gray Logic Diagnostics.
//
// It exposes the diagnostic workflow, device catalogue queries and
// operational endpoints (health, Prometheus metrics) to presentation
// layers. Dashboards and assistants consuming the reports are out of
// scope; this surface only serves them JSON.
//
// The server follows the same lifecycle pattern as other components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/gray-logic-diag/internal/device"
	"github.com/nerrad567/gray-logic-diag/internal/diagnosis"
	"github.com/nerrad567/gray-logic-diag/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-diag/internal/infrastructure/logging"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight
// requests to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	Logger   *logging.Logger
	Registry *device.Registry
	Workflow *diagnosis.Workflow
	Version  string
}

// Server is the HTTP API server for Gray Logic Diagnostics.
//
// It manages the HTTP listener, routes and middleware. The server is
// created with New() and started with Start().
type Server struct {
	cfg      config.APIConfig
	logger   *logging.Logger
	registry *device.Registry
	workflow *diagnosis.Workflow
	version  string
	server   *http.Server
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("device registry is required")
	}
	if deps.Workflow == nil {
		return nil, fmt.Errorf("diagnostic workflow is required")
	}

	return &Server{
		cfg:      deps.Config,
		logger:   deps.Logger,
		registry: deps.Registry,
		workflow: deps.Workflow,
		version:  deps.Version,
	}, nil
}

// Start begins listening for HTTP connections in a background goroutine.
// The server can be stopped with Close().
func (s *Server) Start(_ context.Context) error {
	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       s.readTimeout(),
		ReadHeaderTimeout: s.readTimeout(),
		WriteTimeout:      s.writeTimeout(),
		IdleTimeout:       s.idleTimeout(),
	}

	go func() {
		err := s.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	s.logger.Info("API server started", "address", s.server.Addr)
	return nil
}

// Close gracefully shuts down the API server, waiting up to
// gracefulShutdownTimeout for in-flight requests to complete.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

func (s *Server) readTimeout() time.Duration {
	return time.Duration(s.cfg.Timeouts.Read) * time.Second
}

func (s *Server) writeTimeout() time.Duration {
	return time.Duration(s.cfg.Timeouts.Write) * time.Second
}

func (s *Server) idleTimeout() time.Duration {
	return time.Duration(s.cfg.Timeouts.Idle) * time.Second
}
