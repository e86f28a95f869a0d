// Package web serves figures over HTTP: the figure REST API and sockets,
// health, status and Prometheus metrics.
package web

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/teslashibe/go-sphere/pkg/figures"
)

// shutdownTimeout bounds how long Run waits for open connections.
const shutdownTimeout = 5 * time.Second

// Options configure the server.
type Options struct {
	Addr      string
	StaticDir string
	Version   string
}

// Server is the figure web server
type Server struct {
	app      *fiber.App
	opts     Options
	registry *figures.Registry
	logger   *slog.Logger
	started  time.Time
}

// NewServer creates the server and registers every route.
func NewServer(opts Options, registry *figures.Registry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		opts:     opts,
		registry: registry,
		logger:   logger,
		started:  time.Now(),
	}

	app := fiber.New(fiber.Config{
		AppName:               "go-sphere",
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})

	// CORS so renderers served elsewhere can reach the API
	app.Use(cors.New())
	app.Use(requestMetrics)

	app.Get("/healthz", s.handleHealth)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	registry.RegisterAPIRoutes(api)
	registry.RegisterRoutes(app)

	if opts.StaticDir != "" {
		app.Static("/", opts.StaticDir)
	}

	s.app = app
	return s
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App { return s.app }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("web server listening", "addr", s.opts.Addr, "static_dir", s.opts.StaticDir)
		errCh <- s.app.Listen(s.opts.Addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("web server shutting down")
	if err := s.app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		return err
	}
	return <-errCh
}

// handleError renders errors as JSON
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		s.logger.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}
