package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/lowilleq/exterra/internal/config"
	"github.com/lowilleq/exterra/internal/utils"
)

const adminContextKey = "currentAdmin"

// AdminTokenCookie carries the admin session token for page routes.
const AdminTokenCookie = "admin_token"

// AuthMiddleware validates the admin JWT from the Authorization header or
// the admin_token cookie and loads the session into context.
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := bearerOrCookie(c)
		if err != nil {
			return err
		}

		session, err := utils.ParseAdminToken(cfg.JWTSecret, token)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		c.Locals(adminContextKey, session)
		return c.Next()
	}
}

// AdminPageGuard redirects visitors without a valid admin session to the
// login page of their locale.
func AdminPageGuard(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := bearerOrCookie(c)
		if err == nil {
			if session, err := utils.ParseAdminToken(cfg.JWTSecret, token); err == nil {
				c.Locals(adminContextKey, session)
				return c.Next()
			}
		}
		return c.Redirect("/"+GetLocale(c)+"/admin/login", fiber.StatusFound)
	}
}

func bearerOrCookie(c *fiber.Ctx) (string, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		if cookie := c.Cookies(AdminTokenCookie); cookie != "" {
			return cookie, nil
		}
		return "", fiber.NewError(fiber.StatusUnauthorized, "missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", fiber.NewError(fiber.StatusUnauthorized, "invalid authorization header")
	}
	return parts[1], nil
}

// GetCurrentAdmin extracts the authenticated admin session from context.
func GetCurrentAdmin(c *fiber.Ctx) (utils.AdminSession, bool) {
	session, ok := c.Locals(adminContextKey).(utils.AdminSession)
	return session, ok
}

