package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/lowilleq/exterra/internal/config"
	"github.com/lowilleq/exterra/internal/i18n"
	"github.com/lowilleq/exterra/internal/middleware"
	"github.com/lowilleq/exterra/internal/repository"
	"github.com/lowilleq/exterra/internal/utils"
)

// AuthHandler bundles dependencies for admin authentication endpoints.
type AuthHandler struct {
	admins *repository.AdminRepository
	cfg    *config.Config
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(admins *repository.AdminRepository, cfg *config.Config) *AuthHandler {
	return &AuthHandler{admins: admins, cfg: cfg}
}

type loginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// Login authenticates an administrator and issues a JWT, also set as an
// HTTP-only cookie for the dashboard pages.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing required fields")
	}

	ctx, cancel := storeContext(c, h.cfg.StoreTimeout)
	defer cancel()

	admin, err := h.admins.FindByEmail(ctx, req.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
	}
	if err != nil {
		return err
	}

	if !utils.CheckPassword(admin.PasswordHash, req.Password) {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
	}

	token, expires, err := utils.GenerateAdminToken(h.cfg.JWTSecret, admin.ID, admin.Email, h.cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.AdminTokenCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		Secure:   h.cfg.CookieSecure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteStrictMode,
	})

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"token":      token,
			"expires_at": expires,
			"admin":      admin,
		},
	})
}

// Logout clears the session cookie.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.AdminTokenCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		Secure:   h.cfg.CookieSecure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
	return c.JSON(fiber.Map{"success": true})
}

// Me returns the signed-in administrator.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	session, ok := middleware.GetCurrentAdmin(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "not signed in")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"id":         session.AdminID,
			"email":      session.Email,
			"expires_at": session.ExpiresAt,
		},
	})
}

// LoginPage describes the login form. Visitors who already hold a valid
// session are sent to the dashboard.
func (h *AuthHandler) LoginPage(c *fiber.Ctx) error {
	locale := middleware.GetLocale(c)
	if token := c.Cookies(middleware.AdminTokenCookie); token != "" {
		if _, err := utils.ParseAdminToken(h.cfg.JWTSecret, token); err == nil {
			return c.Redirect("/"+locale+"/admin", fiber.StatusFound)
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"locale": locale,
			"action": "/api/admin/login",
			"fields": []string{"email", "password"},
			"labels": i18n.Section(locale, "admin"),
		},
	})
}
