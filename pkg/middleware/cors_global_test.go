package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/atamsindonesia/aura/pkg/config"
	"github.com/atamsindonesia/aura/pkg/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func corsApp(cfg config.CORSConfig) *fiber.App {
	app := fiber.New()
	app.Use(middleware.NewCORSGlobalMiddleware(cfg).Middleware())
	app.Get("/data", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})
	return app
}

func TestCORSMiddleware_AllowedOrigin(t *testing.T) {
	app := corsApp(config.CORSConfig{
		Origins:          `["https://app.example.com"]`,
		AllowCredentials: true,
		Methods:          `["*"]`,
		Headers:          `["*"]`,
	})

	req := httptest.NewRequest(http.MethodGet, "/data", nil)
	req.Header.Set("Origin", "https://app.example.com")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "https://app.example.com", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
}

func TestCORSMiddleware_WildcardSubdomain(t *testing.T) {
	app := corsApp(config.CORSConfig{
		Origins: `["*"]`, // collapses to the ecosystem defaults
		Methods: `["*"]`,
		Headers: `["*"]`,
	})

	req := httptest.NewRequest(http.MethodGet, "/data", nil)
	req.Header.Set("Origin", "https://portal.atamsindonesia.com")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "https://portal.atamsindonesia.com", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestCORSMiddleware_DisallowedOriginGetsNoHeaders(t *testing.T) {
	app := corsApp(config.CORSConfig{
		Origins: `["https://app.example.com"]`,
		Methods: `["*"]`,
		Headers: `["*"]`,
	})

	req := httptest.NewRequest(http.MethodGet, "/data", nil)
	req.Header.Set("Origin", "https://evil.example.net")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	app := corsApp(config.CORSConfig{
		Origins:          `["https://app.example.com"]`,
		AllowCredentials: true,
		Methods:          `["GET","POST"]`,
		Headers:          `["*"]`,
	})

	req := httptest.NewRequest(http.MethodOptions, "/data", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "Content-Type, Authorization")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "GET, POST", resp.Header.Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type, Authorization", resp.Header.Get("Access-Control-Allow-Headers"))
}
