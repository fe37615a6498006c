package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/anjali-menon/learnspace-api/internal/middleware"
	"github.com/anjali-menon/learnspace-api/internal/models"
	"github.com/anjali-menon/learnspace-api/internal/services"
)

// UserHandler exposes profile self-service and admin user management.
type UserHandler struct {
	svc      services.UserService
	validate *validator.Validate
}

func NewUserHandler(svc services.UserService) *UserHandler {
	return &UserHandler{svc: svc, validate: validator.New()}
}

type updateUserReq struct {
	Name  string `json:"name"`
	Email string `json:"email" validate:"omitempty,email"`
}

func (h *UserHandler) UpdateUser(c *fiber.Ctx) error {
	user := middleware.UserFromCtx(c)
	if user == nil {
		return fail(services.ErrUnauthenticated)
	}

	var req updateUserReq
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid request body")
	}
	if err := h.validate.Struct(&req); err != nil {
		return badRequest(validationMessage(err))
	}

	updated, err := h.svc.UpdateInfo(c.Context(), user.ID.Hex(), req.Name, req.Email)
	if err != nil {
		return fail(err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"user":    updated,
	})
}

type updatePasswordReq struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

func (h *UserHandler) UpdatePassword(c *fiber.Ctx) error {
	user := middleware.UserFromCtx(c)
	if user == nil {
		return fail(services.ErrUnauthenticated)
	}

	var req updatePasswordReq
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid request body")
	}
	if err := h.validate.Struct(&req); err != nil {
		return badRequest(validationMessage(err))
	}

	updated, err := h.svc.UpdatePassword(c.Context(), user.ID.Hex(), req.OldPassword, req.NewPassword)
	if err != nil {
		return fail(err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"user":    updated,
	})
}

// GetUsers lists every account. Admin only.
func (h *UserHandler) GetUsers(c *fiber.Ctx) error {
	users, err := h.svc.ListUsers(c.Context())
	if err != nil {
		return fail(err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"users":   users,
	})
}

type updateRoleReq struct {
	ID   string `json:"id" validate:"required"`
	Role string `json:"role" validate:"required"`
}

// UpdateUserRole assigns a role from the closed enum. Admin only.
func (h *UserHandler) UpdateUserRole(c *fiber.Ctx) error {
	var req updateRoleReq
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid request body")
	}
	if err := h.validate.Struct(&req); err != nil {
		return badRequest(validationMessage(err))
	}

	user, err := h.svc.UpdateRole(c.Context(), req.ID, models.Role(req.Role))
	if err != nil {
		return fail(err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"user":    user,
	})
}

// DeleteUser removes an account and its session. Admin only.
func (h *UserHandler) DeleteUser(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.svc.DeleteUser(c.Context(), id); err != nil {
		return fail(err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "User deleted successfully",
	})
}
