package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/anjali-menon/learnspace-api/internal/models"
	"github.com/anjali-menon/learnspace-api/internal/services"
	"github.com/anjali-menon/learnspace-api/internal/session"
	"github.com/anjali-menon/learnspace-api/internal/token"
)

const localsUserKey = "currentUser"

// AccessCookie is the cookie carrying the access token.
const AccessCookie = "access_token"

// RefreshCookie is the cookie carrying the refresh token.
const RefreshCookie = "refresh_token"

// Protect authenticates the request from the access_token cookie and loads
// the session snapshot. A verifiable token without a snapshot is still
// unauthenticated: the user logged out or the cache evicted them.
func Protect(tokens *token.Manager, sessions session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Cookies(AccessCookie)
		if raw == "" {
			return fiber.NewError(fiber.StatusUnauthorized, services.ErrUnauthenticated.Error())
		}

		userID, err := tokens.VerifyAccess(raw)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, services.ErrUnauthenticated.Error())
		}

		sess, err := sessions.Get(c.Context(), userID)
		if err != nil {
			if errors.Is(err, session.ErrNotFound) {
				return fiber.NewError(fiber.StatusUnauthorized, services.ErrUnauthenticated.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, services.ErrInternal.Error())
		}

		c.Locals(localsUserKey, &sess.User)
		return c.Next()
	}
}

// RequireRole rejects authenticated users whose role is outside the allowed
// set. Pure predicate, no I/O.
func RequireRole(roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := UserFromCtx(c)
		if user == nil {
			return fiber.NewError(fiber.StatusUnauthorized, services.ErrUnauthenticated.Error())
		}
		for _, r := range roles {
			if user.Role == r {
				return c.Next()
			}
		}
		return fiber.NewError(fiber.StatusForbidden, services.ErrForbidden.Error())
	}
}

// UserFromCtx returns the authenticated user set by Protect, or nil.
func UserFromCtx(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(localsUserKey).(*models.User)
	return user
}
