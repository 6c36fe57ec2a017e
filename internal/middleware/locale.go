package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/lowilleq/exterra/internal/i18n"
)

const localeKey = "locale"

var reservedPrefixes = map[string]bool{"api": true, "uploads": true}

// Locale validates the :locale route parameter. Unsupported locales on page
// routes are redirected to the same path under defaultLocale; anything
// else is a 404.
func Locale(defaultLocale string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Params("locale")
		if locale, ok := i18n.Normalize(raw); ok {
			c.Locals(localeKey, strings.Clone(locale))
			return c.Next()
		}

		if c.Method() != fiber.MethodGet || reservedPrefixes[strings.ToLower(raw)] {
			return fiber.ErrNotFound
		}

		rest := strings.TrimPrefix(c.Path(), "/"+raw)
		return c.Redirect("/"+defaultLocale+rest, fiber.StatusFound)
	}
}

// GetLocale returns the validated locale of the request.
func GetLocale(c *fiber.Ctx) string {
	if locale, ok := c.Locals(localeKey).(string); ok {
		return locale
	}
	return i18n.Default
}
