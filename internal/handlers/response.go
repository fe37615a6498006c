package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/anjali-menon/learnspace-api/internal/services"
)

// ErrorHandler renders every error as the {success:false, message} envelope.
// Wired into fiber.Config so nothing reaches the client as a bare fault.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := services.ErrInternal.Error()

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}

// fail converts a service error into a fiber.Error carrying the HTTP status
// from the error taxonomy. Unknown errors collapse to a generic 500 so no
// storage-layer detail leaks.
func fail(err error) error {
	switch {
	case errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrActivationCodeMismatch),
		errors.Is(err, services.ErrTokenInvalid),
		errors.Is(err, services.ErrInvalidRole):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrUnauthenticated):
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrForbidden):
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrNotificationNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrMailDispatch):
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, services.ErrInternal.Error())
	}
}

func badRequest(message string) error {
	return fiber.NewError(fiber.StatusBadRequest, message)
}
