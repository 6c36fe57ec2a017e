package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lowilleq/exterra/internal/config"
	"github.com/lowilleq/exterra/internal/utils"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:       "test-secret",
		IdentityBackend: config.IdentityBackendCookie,
		IdentityTTL:     7 * 24 * time.Hour,
	}
}

func findCookie(resp *http.Response, name string) *http.Cookie {
	for _, cookie := range resp.Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

func TestCookieIdentityCache(t *testing.T) {
	app := fiber.New()
	app.Use(IdentityCache(testConfig(), nil))
	app.Post("/set", func(c *fiber.Ctx) error {
		cache := GetIdentityCache(c)
		if err := cache.Set(c.UserContext(), "customer_email", "a@example.com", time.Hour); err != nil {
			return err
		}
		value, ok, _ := cache.Get(c.UserContext(), "customer_email")
		if !ok {
			return fiber.ErrTeapot
		}
		return c.SendString(value)
	})
	app.Get("/get", func(c *fiber.Ctx) error {
		value, ok, _ := GetIdentityCache(c).Get(c.UserContext(), "customer_email")
		if !ok {
			return c.SendStatus(fiber.StatusNoContent)
		}
		return c.SendString(value)
	})
	app.Post("/remove", func(c *fiber.Ctx) error {
		cache := GetIdentityCache(c)
		_ = cache.Remove(c.UserContext(), "customer_email")
		if _, ok, _ := cache.Get(c.UserContext(), "customer_email"); ok {
			return fiber.ErrTeapot
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/set", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "a@example.com", string(body))

	cookie := findCookie(resp, "customer_email")
	require.NotNil(t, cookie)
	assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
	assert.True(t, cookie.HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/get", nil)
	req.AddCookie(&http.Cookie{Name: "customer_email", Value: "a@example.com"})
	resp, err = app.Test(req)
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	assert.Equal(t, "a@example.com", string(body))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/get", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	req = httptest.NewRequest(http.MethodPost, "/remove", nil)
	req.AddCookie(&http.Cookie{Name: "customer_email", Value: "a@example.com"})
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}

func TestCookieIdentityCacheEncodesValues(t *testing.T) {
	app := fiber.New()
	app.Use(IdentityCache(testConfig(), nil))
	app.Post("/set", func(c *fiber.Ctx) error {
		return GetIdentityCache(c).Set(c.UserContext(), "customer_first_name", "Chloé; Marie", time.Hour)
	})
	app.Get("/get", func(c *fiber.Ctx) error {
		value, ok, _ := GetIdentityCache(c).Get(c.UserContext(), "customer_first_name")
		if !ok {
			return c.SendStatus(fiber.StatusNoContent)
		}
		return c.SendString(value)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/set", nil))
	require.NoError(t, err)
	cookie := findCookie(resp, "customer_first_name")
	require.NotNil(t, cookie)
	assert.Equal(t, "Chlo%C3%A9%3B%20Marie", cookie.Value)

	req := httptest.NewRequest(http.MethodGet, "/get", nil)
	req.AddCookie(&http.Cookie{Name: "customer_first_name", Value: cookie.Value})
	resp, err = app.Test(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "Chloé; Marie", string(body))

	req = httptest.NewRequest(http.MethodGet, "/get", nil)
	req.AddCookie(&http.Cookie{Name: "customer_first_name", Value: "%zz"})
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}

func TestLocale(t *testing.T) {
	app := fiber.New()
	localized := app.Group("/:locale", Locale("nl"))
	localized.Get("/product/:id", func(c *fiber.Ctx) error {
		return c.SendString(GetLocale(c))
	})
	localized.Post("/product/:id/register", func(c *fiber.Ctx) error {
		return c.SendString(GetLocale(c))
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/FR/product/1", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "fr", string(body))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/de/product/1", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/nl/product/1", resp.Header.Get("Location"))

	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/de/product/1/register", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestAuthMiddleware(t *testing.T) {
	cfg := testConfig()
	app := fiber.New()
	app.Get("/api/admin/ping", AuthMiddleware(cfg), func(c *fiber.Ctx) error {
		session, ok := GetCurrentAdmin(c)
		if !ok {
			return fiber.ErrInternalServerError
		}
		return c.SendString(session.Email)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/admin/ping", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	token, _, err := utils.GenerateAdminToken(cfg.JWTSecret, uuid.New(), "admin@example.com", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/api/admin/ping", nil)
	req.AddCookie(&http.Cookie{Name: AdminTokenCookie, Value: token})
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/api/admin/ping", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAdminPageGuardRedirects(t *testing.T) {
	app := fiber.New()
	localized := app.Group("/:locale", Locale("nl"))
	localized.Get("/admin", AdminPageGuard(testConfig()), func(c *fiber.Ctx) error {
		return c.SendString("dashboard")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/fr/admin", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/fr/admin/login", resp.Header.Get("Location"))
}
