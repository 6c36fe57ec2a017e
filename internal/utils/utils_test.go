package utils

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminTokenRoundTrip(t *testing.T) {
	id := uuid.New()
	token, expires, err := GenerateAdminToken("secret", id, "admin@example.com", time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, 5*time.Second)

	session, err := ParseAdminToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, id, session.AdminID)
	assert.Equal(t, "admin@example.com", session.Email)

	_, err = ParseAdminToken("other-secret", token)
	assert.Error(t, err)
}

func TestAdminTokenExpired(t *testing.T) {
	token, _, err := GenerateAdminToken("secret", uuid.New(), "admin@example.com", -time.Minute)
	require.NoError(t, err)

	_, err = ParseAdminToken("secret", token)
	assert.Error(t, err)
}

func TestHashPassword(t *testing.T) {
	_, err := HashPassword("short")
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "correct horse"))
	assert.False(t, CheckPassword(hash, "wrong horse"))
}

func TestParsePagination(t *testing.T) {
	app := fiber.New()
	var got Pagination
	app.Get("/", func(c *fiber.Ctx) error {
		got = ParsePagination(c)
		return c.SendStatus(fiber.StatusNoContent)
	})

	cases := map[string]Pagination{
		"/":                                    {Page: 1, Limit: 20, Offset: 0},
		"/?page=3&limit=10":                    {Page: 3, Limit: 10, Offset: 20},
		"/?page=-1&limit=abc":                  {Page: 1, Limit: 20, Offset: 0},
		"/?page=2&limit=1000":                  {Page: 2, Limit: 100, Offset: 100},
		"/?page=9223372036854775807&limit=100": {Page: 21474836, Limit: 100, Offset: 2147483500},
	}
	for target, want := range cases {
		_, err := app.Test(httptest.NewRequest("GET", target, nil))
		require.NoError(t, err)
		assert.Equal(t, want, got, target)
	}

	meta := Pagination{Page: 1, Limit: 20}.Meta(41)
	assert.EqualValues(t, 3, meta["total_pages"])
}
