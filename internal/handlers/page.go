package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/lowilleq/exterra/internal/i18n"
	"github.com/lowilleq/exterra/internal/middleware"
)

// PageHandler serves the locale entry points.
type PageHandler struct {
	defaultLocale string
}

// NewPageHandler constructs PageHandler.
func NewPageHandler(defaultLocale string) *PageHandler {
	if _, ok := i18n.Normalize(defaultLocale); !ok {
		defaultLocale = i18n.Default
	}
	return &PageHandler{defaultLocale: defaultLocale}
}

// Root redirects to the best locale for the Accept-Language header.
func (h *PageHandler) Root(c *fiber.Ctx) error {
	locale := h.defaultLocale
	if header := c.Get(fiber.HeaderAcceptLanguage); header != "" {
		locale = i18n.Negotiate(header)
	}
	return c.Redirect("/"+locale, fiber.StatusFound)
}

// Home returns the scan instructions for the locale.
func (h *PageHandler) Home(c *fiber.Ctx) error {
	locale := middleware.GetLocale(c)
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"locale":  locale,
			"locales": i18n.Supported,
			"labels":  i18n.Section(locale, "home"),
		},
	})
}
