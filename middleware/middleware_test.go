package middleware

import (
	"io"
	"net/http/httptest"
	"testing"

	"sqlquest/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp() *fiber.App {
	app := fiber.New()
	app.Use(GatewayAuthMiddleware("secret", logger.Nop()))
	app.Use(UserContextMiddleware(logger.Nop()))
	app.Get("/whoami", func(c *fiber.Ctx) error { return c.SendString(UserID(c)) })
	app.Get("/admin", RequireRole("admin"), func(c *fiber.Ctx) error { return c.SendString("ok") })
	return app
}

func TestGatewayAuth(t *testing.T) {
	app := newApp()

	cases := []struct {
		header string
		status int
	}{
		{"", fiber.StatusUnauthorized},
		{"Bearer wrong", fiber.StatusUnauthorized},
		{"Bearer secret", fiber.StatusOK},
		{"secret", fiber.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest("GET", "/whoami", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, tc.status, resp.StatusCode, tc.header)
	}
}

func TestUserContext(t *testing.T) {
	app := newApp()

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer secret")
	req.Header.Set("X-User-ID", " u-42 ")
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "u-42", string(body))

	req = httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", "Bearer secret")
	req.Header.Set("X-User-Roles", "player")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	req.Header.Set("X-User-Roles", "player, admin")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
