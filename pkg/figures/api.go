package figures

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/teslashibe/go-sphere/pkg/protocol"
)

// RegisterAPIRoutes registers REST routes for figure management
func (r *Registry) RegisterAPIRoutes(api fiber.Router) {
	figures := api.Group("/figures")

	// List figures
	figures.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"figures": r.List(),
			"count":   r.Count(),
		})
	})

	// Registry stats
	figures.Get("/stats", func(c *fiber.Ctx) error {
		return c.JSON(r.GetStats())
	})

	// Create a figure
	figures.Post("/", func(c *fiber.Ctx) error {
		var req struct {
			Size float64 `json:"size"`
		}
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
			}
		}
		if req.Size < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "size must not be negative"})
		}

		fig, err := r.Create(req.Size)
		if err != nil {
			return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusCreated).JSON(fig.Detail())
	})

	// Figure detail
	figures.Get("/:id", func(c *fiber.Ctx) error {
		fig, err := r.Get(c.Params("id"))
		if err != nil {
			return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fig.Detail())
	})

	// Stop a figure
	figures.Delete("/:id", func(c *fiber.Ctx) error {
		if err := r.Remove(c.Params("id")); err != nil {
			return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	// Push one reading of magnitudes without a socket
	figures.Post("/:id/samples", func(c *fiber.Ctx) error {
		fig, err := r.Get(c.Params("id"))
		if err != nil {
			return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
		}
		var req struct {
			Values []float64 `json:"values"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		if len(req.Values) > protocol.MaxSamples {
			msg := fmt.Sprintf("%d samples exceeds %d", len(req.Values), protocol.MaxSamples)
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
		}
		if err := fig.animator.Samples(req.Values); err != nil {
			return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "queued"})
	})

	// Reset a figure
	figures.Post("/:id/reset", func(c *fiber.Ctx) error {
		fig, err := r.Get(c.Params("id"))
		if err != nil {
			return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
		}
		if err := fig.animator.Reset(); err != nil {
			return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "queued"})
	})

	// Expression defaults, for renderers that draw figures themselves
	api.Get("/config", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"size":       r.opts.Size,
			"expression": r.opts.Expression,
			"tick_rate":  r.opts.Animator.TickRate,
			"spectrum":   r.opts.Spectrum,
		})
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrFigureNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrPersistentFigure), errors.Is(err, ErrFigureExists):
		return fiber.StatusConflict
	case errors.Is(err, ErrTooManyFigures):
		return fiber.StatusTooManyRequests
	default:
		return fiber.StatusServiceUnavailable
	}
}
