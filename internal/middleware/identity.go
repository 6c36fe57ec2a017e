package middleware

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/lowilleq/exterra/internal/config"
	"github.com/lowilleq/exterra/internal/services"
)

const (
	identityCacheKey = "identityCache"
	// DeviceCookie holds the device id of the redis identity backend.
	DeviceCookie = "exterra_device"
	deviceTTL    = 365 * 24 * time.Hour
)

// CookieIdentityCache keeps identity entries in browser cookies. It is
// scoped to one request; values set during the request are visible to
// later reads in the same request.
type CookieIdentityCache struct {
	c       *fiber.Ctx
	secure  bool
	pending map[string]*string
}

// NewCookieIdentityCache wraps the request's cookies.
func NewCookieIdentityCache(c *fiber.Ctx, secure bool) *CookieIdentityCache {
	return &CookieIdentityCache{c: c, secure: secure, pending: make(map[string]*string)}
}

// Get reads key, preferring values written earlier in this request.
func (k *CookieIdentityCache) Get(_ context.Context, key string) (string, bool, error) {
	if value, ok := k.pending[key]; ok {
		if value == nil {
			return "", false, nil
		}
		return *value, true, nil
	}
	raw := k.c.Cookies(key)
	if raw == "" {
		return "", false, nil
	}
	// Unescaping copies out of the request buffer fasthttp reuses.
	value, err := url.PathUnescape(raw)
	if err != nil {
		return "", false, nil
	}
	return strings.Clone(value), value != "", nil
}

// Set writes a cookie that expires after ttl. Values are URI-encoded.
func (k *CookieIdentityCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	k.c.Cookie(&fiber.Cookie{
		Name:     key,
		Value:    url.PathEscape(value),
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		MaxAge:   int(ttl.Seconds()),
		Secure:   k.secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
	k.pending[key] = &value
	return nil
}

// Remove expires the cookie.
func (k *CookieIdentityCache) Remove(_ context.Context, key string) error {
	k.c.Cookie(&fiber.Cookie{
		Name:     key,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		Secure:   k.secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
	k.pending[key] = nil
	return nil
}

// IdentityCache attaches the configured identity cache backend to the
// request. With the redis backend a device cookie is issued on first visit.
func IdentityCache(cfg *config.Config, client *redis.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cfg.IdentityBackend == config.IdentityBackendRedis && client != nil {
			device := strings.Clone(c.Cookies(DeviceCookie))
			if _, err := uuid.Parse(device); err != nil {
				device = uuid.NewString()
				c.Cookie(&fiber.Cookie{
					Name:     DeviceCookie,
					Value:    device,
					Path:     "/",
					Expires:  time.Now().Add(deviceTTL),
					Secure:   cfg.CookieSecure,
					HTTPOnly: true,
					SameSite: fiber.CookieSameSiteStrictMode,
				})
			}
			c.Locals(identityCacheKey, services.IdentityCache(services.NewRedisIdentityCache(client, device)))
			return c.Next()
		}

		c.Locals(identityCacheKey, services.IdentityCache(NewCookieIdentityCache(c, cfg.CookieSecure)))
		return c.Next()
	}
}

// GetIdentityCache returns the request's identity cache, falling back to
// cookies when the middleware did not run.
func GetIdentityCache(c *fiber.Ctx) services.IdentityCache {
	if cache, ok := c.Locals(identityCacheKey).(services.IdentityCache); ok {
		return cache
	}
	return NewCookieIdentityCache(c, false)
}
