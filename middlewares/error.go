package middlewares

import (
	"errors"

	"pembukuan-backend/engine"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// ErrorHandler centralizes error responses and keeps messages sanitized.
func ErrorHandler(c *fiber.Ctx, err error) error {
	// 1) Fiber errors (use their status code + message)
	if fe, ok := err.(*fiber.Error); ok {
		return c.Status(fe.Code).JSON(fiber.Map{"message": fe.Message})
	}

	// 2) Request validation errors (422 + per-field info)
	if ve, ok := err.(validator.ValidationErrors); ok {
		out := make(map[string]string, len(ve))
		for _, fe := range ve {
			out[fe.Field()] = fe.Tag()
		}
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"message": "validation failed",
			"errors":  out,
		})
	}

	// 3) Allocation draft violations (422 + typed code; the caller keeps
	// its draft, corrects it and retries)
	if v, ok := engine.AsViolation(err); ok {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"message":   "allocation rejected",
			"violation": string(v),
		})
	}

	// 4) Engine not-found / conflict errors
	switch {
	case errors.Is(err, engine.ErrPaymentNotFound),
		errors.Is(err, engine.ErrInvoiceNotFound),
		errors.Is(err, engine.ErrAllocationNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": err.Error()})
	case errors.Is(err, engine.ErrIncompatibleInvoice):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"message": err.Error()})
	case errors.Is(err, engine.ErrAllocationInFlight):
		// Retryable: a previous mutation for the same payment is still running.
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": err.Error()})
	}

	// 5) Unknown errors (500, incl. failed store transactions; retryable)
	log.Error().Err(err).Str("path", c.Path()).Msg("internal error")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": "internal server error",
	})
}
