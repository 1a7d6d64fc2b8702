package controllers

import (
	"log/slog"

	"github.com/alrdevelop/caserv/caerrors"
	"github.com/gofiber/fiber/v3"
)

// Отображение классификации ошибок движка в HTTP статусы
func statusFor(err error) int {
	switch {
	case caerrors.Is(err, caerrors.NotFound):
		return fiber.StatusNotFound
	case caerrors.Is(err, caerrors.Validation):
		return fiber.StatusBadRequest
	case caerrors.Is(err, caerrors.Conflict):
		return fiber.StatusConflict
	case caerrors.Is(err, caerrors.ResourceExhausted):
		return fiber.StatusServiceUnavailable
	case caerrors.Is(err, caerrors.NotImplemented):
		return fiber.StatusNotImplemented
	default:
		return fiber.StatusInternalServerError
	}
}

func respondError(c fiber.Ctx, err error) error {
	status := statusFor(err)
	if status == fiber.StatusInternalServerError {
		slog.Error("внутренняя ошибка", "path", c.Path(), "error", err)
	}
	return c.Status(status).JSON(fiber.Map{
		"status":  "error",
		"message": err.Error(),
	})
}
