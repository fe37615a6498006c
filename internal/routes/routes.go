package routes

import (
	"fmt"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/anjali-menon/learnspace-api/internal/handlers"
	"github.com/anjali-menon/learnspace-api/internal/middleware"
	"github.com/anjali-menon/learnspace-api/internal/models"
	"github.com/anjali-menon/learnspace-api/internal/session"
	"github.com/anjali-menon/learnspace-api/internal/token"
)

// Deps carries everything route wiring needs.
type Deps struct {
	Auth          *handlers.AuthHandler
	Users         *handlers.UserHandler
	Notifications *handlers.NotificationHandler
	Tokens        *token.Manager
	Sessions      session.Store
	Limiter       *middleware.RateLimiter
}

func Setup(app *fiber.App, d Deps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"success": true,
			"message": "API is working",
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	protect := middleware.Protect(d.Tokens, d.Sessions)
	adminOnly := middleware.RequireRole(models.RoleAdmin)
	limited := d.Limiter.ByIP()

	api := app.Group("/api/v1")

	api.Post("/registration", limited, d.Auth.Register)
	api.Post("/activation", d.Auth.Activate)
	api.Post("/login", limited, d.Auth.Login)
	api.Post("/socialAuth", d.Auth.SocialAuth)
	api.Get("/refreshToken", d.Auth.Refresh)
	api.Get("/logout", protect, d.Auth.Logout)
	api.Get("/me", protect, d.Auth.Me)

	api.Put("/updateUser", protect, d.Users.UpdateUser)
	api.Put("/updatePassword", protect, d.Users.UpdatePassword)

	api.Get("/get-users", protect, adminOnly, d.Users.GetUsers)
	api.Put("/update-user-role", protect, adminOnly, d.Users.UpdateUserRole)
	api.Delete("/delete-user/:id", protect, adminOnly, d.Users.DeleteUser)

	api.Get("/get-notifications", protect, adminOnly, d.Notifications.GetNotifications)
	api.Put("/update-notification/:id", protect, adminOnly, d.Notifications.UpdateNotificationStatus)

	app.Use(func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("Route %s not found", c.OriginalURL()))
	})
}
