package web

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/teslashibe/go-sphere/pkg/figures"
	"github.com/teslashibe/go-sphere/pkg/metrics"
)

// Status is what GET /api/status returns
type Status struct {
	Version string        `json:"version"`
	Uptime  string        `json:"uptime"`
	Figures figures.Stats `json:"figures"`
}

// handleHealth reports liveness
func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// handleStatus returns server and registry state
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(Status{
		Version: s.opts.Version,
		Uptime:  time.Since(s.started).Truncate(time.Second).String(),
		Figures: s.registry.GetStats(),
	})
}

// requestMetrics records request durations by route. Websocket routes are
// skipped since their duration is the life of the socket.
func requestMetrics(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()

	route := c.Route().Path
	if route == "/ws" || strings.HasPrefix(route, "/ws/") {
		return err
	}
	status := c.Response().StatusCode()
	if err != nil {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		} else {
			status = fiber.StatusInternalServerError
		}
	}
	metrics.RequestDuration.
		WithLabelValues(c.Method(), route, strconv.Itoa(status)).
		Observe(time.Since(start).Seconds())
	return err
}
