package handlers

import (
	"fmt"
	"strconv"

	"sqlquest/logger"
	"sqlquest/services"

	"github.com/gofiber/fiber/v2"
)

// respondError writes the outcome body for a failed command or query.
func respondError(c *fiber.Ctx, log *logger.Logger, err error) error {
	outcome, status := services.OutcomeOf(err)
	body := fiber.Map{"status": outcome}
	switch {
	case outcome == services.OutcomeNotAuthenticated:
	case status >= fiber.StatusInternalServerError:
		log.Error("request failed", "path", c.Path(), "error", err)
		body["error"] = "internal error"
		body["cause"] = err.Error()
	default:
		body["error"] = err.Error()
	}
	return c.Status(status).JSON(body)
}

func respondOK(c *fiber.Ctx, result interface{}) error {
	return c.JSON(fiber.Map{"status": services.OutcomeOK, "result": result})
}

func intParam(c *fiber.Ctx, name string) (int, error) {
	v, err := strconv.Atoi(c.Params(name))
	if err != nil || v < 1 {
		return 0, fmt.Errorf("%s %q: %w", name, c.Params(name), services.ErrInvalidInput)
	}
	return v, nil
}
