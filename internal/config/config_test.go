package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("IDENTITY_TTL_DAYS", "")
	t.Setenv("IDENTITY_BACKEND", "")
	t.Setenv("PUBLIC_BASE_URL", "https://showcase.example.com/")
	t.Setenv("MAX_IMAGE_MB", "-3")
	t.Setenv("JWT_TTL_HOURS", "soon")

	cfg := Load()

	assert.Equal(t, 7*24*time.Hour, cfg.IdentityTTL)
	assert.Equal(t, IdentityBackendCookie, cfg.IdentityBackend)
	assert.Equal(t, "https://showcase.example.com", cfg.PublicBaseURL)
	assert.Equal(t, int64(5<<20), cfg.MaxImageBytes)
	assert.Equal(t, 24*time.Hour, cfg.TokenExpires)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("IDENTITY_TTL_DAYS", "30")
	t.Setenv("SCAN_TIMEOUT_SECONDS", "2")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("IDENTITY_BACKEND", "something-else")

	cfg := Load()

	assert.Equal(t, 30*24*time.Hour, cfg.IdentityTTL)
	assert.Equal(t, 2*time.Second, cfg.ScanTimeout)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, IdentityBackendCookie, cfg.IdentityBackend)
}
