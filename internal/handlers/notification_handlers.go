package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/anjali-menon/learnspace-api/internal/services"
)

// NotificationHandler exposes the admin notification feed.
type NotificationHandler struct {
	svc services.NotificationService
}

func NewNotificationHandler(svc services.NotificationService) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

func (h *NotificationHandler) GetNotifications(c *fiber.Ctx) error {
	notifications, err := h.svc.List(c.Context())
	if err != nil {
		return fail(err)
	}
	return c.JSON(fiber.Map{
		"success":       true,
		"notifications": notifications,
	})
}

// UpdateNotificationStatus marks one notification read and returns the
// refreshed feed.
func (h *NotificationHandler) UpdateNotificationStatus(c *fiber.Ctx) error {
	notifications, err := h.svc.MarkRead(c.Context(), c.Params("id"))
	if err != nil {
		return fail(err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":       true,
		"notifications": notifications,
	})
}
