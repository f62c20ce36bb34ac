package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/Ruthachere/e-commerce-shop/internal/repository"
	"github.com/Ruthachere/e-commerce-shop/internal/service"
)

// statusForError maps domain and repository failures onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, repository.ErrOrderNotFound),
		errors.Is(err, repository.ErrInventoryNotFound),
		errors.Is(err, repository.ErrPaymentNotFound),
		errors.Is(err, repository.ErrVariantNotFound),
		errors.Is(err, repository.ErrProductNotFound),
		errors.Is(err, repository.ErrUserNotFound):
		return fiber.StatusNotFound

	case errors.Is(err, repository.ErrInventoryExists),
		errors.Is(err, repository.ErrPaymentExists):
		return fiber.StatusConflict

	case errors.Is(err, repository.ErrInsufficientStock),
		errors.Is(err, repository.ErrInvalidAdjustment),
		errors.Is(err, service.ErrIllegalTransition),
		errors.Is(err, service.ErrIllegalState),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrInvalidSnapshot),
		errors.Is(err, service.ErrMissingContactInfo):
		return fiber.StatusBadRequest

	case errors.Is(err, service.ErrInvalidSignature):
		return fiber.StatusUnauthorized

	default:
		return fiber.StatusInternalServerError
	}
}

func errorResponse(c *fiber.Ctx, err error) error {
	status := statusForError(err)

	body := fiber.Map{"error": err.Error()}
	if status == fiber.StatusInternalServerError {
		body = fiber.Map{"error": "internal error"}
	}

	return c.Status(status).JSON(body)
}
