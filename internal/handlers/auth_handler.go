package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/arzan03/devcamper/internal/apperror"
	"github.com/arzan03/devcamper/internal/config"
	"github.com/arzan03/devcamper/internal/middleware"
	"github.com/arzan03/devcamper/internal/services"
)

type AuthHandler struct {
	auth         services.AuthService
	cookieMaxAge time.Duration
	secureCookie bool
}

func NewAuthHandler(auth services.AuthService, cfg config.Config) *AuthHandler {
	return &AuthHandler{
		auth:         auth,
		cookieMaxAge: time.Duration(cfg.JWT.CookieExpire) * 24 * time.Hour,
		secureCookie: cfg.IsProduction(),
	}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var in services.RegisterInput
	if err := parseBody(c, &in); err != nil {
		return err
	}

	session, err := h.auth.Register(c.UserContext(), in)
	if err != nil {
		return err
	}
	return h.sendToken(c, session)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var in services.LoginInput
	if err := parseBody(c, &in); err != nil {
		return err
	}

	session, err := h.auth.Login(c.UserContext(), in)
	if err != nil {
		return err
	}
	return h.sendToken(c, session)
}

// Logout overwrites the token cookie with a short-lived placeholder.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.TokenCookie,
		Value:    "none",
		Expires:  time.Now().Add(10 * time.Second),
		HTTPOnly: true,
		Secure:   h.secureCookie,
	})
	return respond(c, fiber.StatusOK, fiber.Map{})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return apperror.Unauthorized("Not authorized to access this route")
	}
	return respond(c, fiber.StatusOK, user)
}

func (h *AuthHandler) UpdateDetails(c *fiber.Ctx) error {
	var in services.UpdateDetailsInput
	if err := parseBody(c, &in); err != nil {
		return err
	}

	user, err := h.auth.UpdateDetails(c.UserContext(), middleware.Actor(c), in)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, user)
}

func (h *AuthHandler) UpdatePassword(c *fiber.Ctx) error {
	var in services.UpdatePasswordInput
	if err := parseBody(c, &in); err != nil {
		return err
	}

	session, err := h.auth.UpdatePassword(c.UserContext(), middleware.Actor(c), in)
	if err != nil {
		return err
	}
	return h.sendToken(c, session)
}

func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var in services.ForgotPasswordInput
	if err := parseBody(c, &in); err != nil {
		return err
	}

	resetURL := c.BaseURL() + strings.TrimSuffix(c.Path(), "/forgotpassword") + "/resetpassword"
	if err := h.auth.ForgotPassword(c.UserContext(), in, resetURL); err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Email sent")
}

func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var in services.ResetPasswordInput
	if err := parseBody(c, &in); err != nil {
		return err
	}

	session, err := h.auth.ResetPassword(c.UserContext(), c.Params("token"), in)
	if err != nil {
		return err
	}
	return h.sendToken(c, session)
}

// sendToken delivers the token both as an HTTP-only cookie and in the body.
func (h *AuthHandler) sendToken(c *fiber.Ctx, session *services.Session) error {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.TokenCookie,
		Value:    session.Token,
		Expires:  time.Now().Add(h.cookieMaxAge),
		HTTPOnly: true,
		Secure:   h.secureCookie,
	})
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"token":   session.Token,
	})
}
