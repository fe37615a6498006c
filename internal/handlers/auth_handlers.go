package handlers

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/anjali-menon/learnspace-api/internal/config"
	"github.com/anjali-menon/learnspace-api/internal/middleware"
	"github.com/anjali-menon/learnspace-api/internal/models"
	"github.com/anjali-menon/learnspace-api/internal/services"
)

// AuthHandler exposes the auth lifecycle over HTTP.
type AuthHandler struct {
	svc      services.AuthService
	cookies  config.CookieCfg
	validate *validator.Validate
}

func NewAuthHandler(svc services.AuthService, cookies config.CookieCfg) *AuthHandler {
	return &AuthHandler{
		svc:      svc,
		cookies:  cookies,
		validate: validator.New(),
	}
}

type registrationReq struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// Register starts the registration flow. The activation token goes back to
// the client; the code only travels by email.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registrationReq
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid request body")
	}
	if err := h.validate.Struct(&req); err != nil {
		return badRequest(validationMessage(err))
	}

	activationToken, err := h.svc.Register(c.Context(), services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return fail(err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":          true,
		"message":          fmt.Sprintf("Please check your email: %s to activate your account!", req.Email),
		"activation_token": activationToken,
	})
}

type activationReq struct {
	ActivationToken string `json:"activation_token" validate:"required"`
	ActivationCode  string `json:"activation_code" validate:"required,len=4"`
}

func (h *AuthHandler) Activate(c *fiber.Ctx) error {
	var req activationReq
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid request body")
	}
	if err := h.validate.Struct(&req); err != nil {
		return badRequest(validationMessage(err))
	}

	if _, err := h.svc.Activate(c.Context(), req.ActivationToken, req.ActivationCode); err != nil {
		return fail(err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true})
}

type loginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginReq
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid request body")
	}
	if err := h.validate.Struct(&req); err != nil {
		return badRequest(validationMessage(err))
	}

	sess, err := h.svc.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return fail(err)
	}

	return h.respondWithSession(c, sess)
}

type socialAuthReq struct {
	Email  string `json:"email" validate:"required,email"`
	Name   string `json:"name" validate:"required"`
	Avatar string `json:"avatar"`
}

func (h *AuthHandler) SocialAuth(c *fiber.Ctx) error {
	var req socialAuthReq
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid request body")
	}
	if err := h.validate.Struct(&req); err != nil {
		return badRequest(validationMessage(err))
	}

	sess, err := h.svc.SocialAuth(c.Context(), req.Email, req.Name, req.Avatar)
	if err != nil {
		return fail(err)
	}

	return h.respondWithSession(c, sess)
}

// Logout expires both cookies and drops the cached session.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	user := middleware.UserFromCtx(c)
	if user == nil {
		return fail(services.ErrUnauthenticated)
	}

	if err := h.svc.Logout(c.Context(), user.ID.Hex()); err != nil {
		return fail(err)
	}

	h.clearSessionCookies(c)
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Logged out successfully",
	})
}

// Refresh mints a new token pair from the refresh_token cookie.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	raw := c.Cookies(middleware.RefreshCookie)
	if raw == "" {
		return fail(services.ErrUnauthenticated)
	}

	sess, err := h.svc.Refresh(c.Context(), raw)
	if err != nil {
		return fail(err)
	}

	h.setSessionCookies(c, sess)
	return c.JSON(fiber.Map{
		"success":      true,
		"access_token": sess.AccessToken,
	})
}

// Me returns the session snapshot of the authenticated user.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user := middleware.UserFromCtx(c)
	if user == nil {
		return fail(services.ErrUnauthenticated)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"user":    user,
	})
}

func (h *AuthHandler) respondWithSession(c *fiber.Ctx, sess *models.Session) error {
	h.setSessionCookies(c, sess)
	return c.JSON(fiber.Map{
		"success":      true,
		"user":         sess.User,
		"access_token": sess.AccessToken,
	})
}

func (h *AuthHandler) setSessionCookies(c *fiber.Ctx, sess *models.Session) {
	now := time.Now()
	c.Cookie(&fiber.Cookie{
		Name:     middleware.AccessCookie,
		Value:    sess.AccessToken,
		Expires:  now.Add(h.cookies.AccessMaxAge),
		MaxAge:   int(h.cookies.AccessMaxAge.Seconds()),
		HTTPOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: h.cookies.SameSite,
	})
	c.Cookie(&fiber.Cookie{
		Name:     middleware.RefreshCookie,
		Value:    sess.RefreshToken,
		Expires:  now.Add(h.cookies.RefreshMaxAge),
		MaxAge:   int(h.cookies.RefreshMaxAge.Seconds()),
		HTTPOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: h.cookies.SameSite,
	})
}

func (h *AuthHandler) clearSessionCookies(c *fiber.Ctx) {
	expired := time.Now().Add(-time.Hour)
	for _, name := range []string{middleware.AccessCookie, middleware.RefreshCookie} {
		c.Cookie(&fiber.Cookie{
			Name:     name,
			Value:    "",
			Expires:  expired,
			MaxAge:   -1,
			HTTPOnly: true,
			Secure:   h.cookies.Secure,
			SameSite: h.cookies.SameSite,
		})
	}
}
