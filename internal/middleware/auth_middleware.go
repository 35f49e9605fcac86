package middleware

import (
	"context"
	"slices"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/arzan03/devcamper/internal/apperror"
	"github.com/arzan03/devcamper/internal/auth"
	"github.com/arzan03/devcamper/internal/models"
)

const (
	userKey     = "user"
	TokenCookie = "token"
)

// UserLoader resolves the user a token was issued to.
type UserLoader interface {
	Me(ctx context.Context, userID string) (*models.User, error)
}

// Protect requires a valid token, taken from the Authorization bearer header
// or the token cookie, and stores the caller's user in the request locals.
func Protect(authenticator *auth.JWTAuthenticator, users UserLoader) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			token = c.Cookies(TokenCookie)
		}
		if token == "" || token == "none" {
			return notAuthorized()
		}

		claims, err := authenticator.ValidateToken(token)
		if err != nil {
			return notAuthorized()
		}

		user, err := users.Me(c.UserContext(), claims.UserID)
		if err != nil {
			if apperror.Is(err, apperror.KindNotFound) {
				return notAuthorized()
			}
			return err
		}

		c.Locals(userKey, user)
		return c.Next()
	}
}

// Authorize admits only callers holding one of roles. It must run after
// Protect.
func Authorize(roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := CurrentUser(c)
		if !ok {
			return notAuthorized()
		}
		if !slices.Contains(roles, user.Role) {
			return apperror.Forbidden("User role %s is not authorized to access this route", user.Role)
		}
		return c.Next()
	}
}

// CurrentUser returns the user stored by Protect.
func CurrentUser(c *fiber.Ctx) (*models.User, bool) {
	user, ok := c.Locals(userKey).(*models.User)
	return user, ok && user != nil
}

// Actor returns the authenticated caller, or the zero Actor when there is
// none.
func Actor(c *fiber.Ctx) auth.Actor {
	user, ok := CurrentUser(c)
	if !ok {
		return auth.Actor{}
	}
	return auth.ActorOf(user)
}

func bearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func notAuthorized() error {
	return apperror.Unauthorized("Not authorized to access this route")
}
