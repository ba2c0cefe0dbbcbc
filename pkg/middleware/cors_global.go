package middleware

import (
	"strings"

	"github.com/atamsindonesia/aura/pkg/config"
	"github.com/gofiber/fiber/v2"
)

type corsGlobalMiddleware struct {
	allowOrigins     []string
	allowMethods     []string
	allowHeaders     []string
	allowCredentials bool
}

func NewCORSGlobalMiddleware(cfg config.CORSConfig) Middleware {
	return &corsGlobalMiddleware{
		allowOrigins:     cfg.OriginsList(),
		allowMethods:     cfg.MethodsList(),
		allowHeaders:     cfg.HeadersList(),
		allowCredentials: cfg.AllowCredentials,
	}
}

func (m *corsGlobalMiddleware) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		origin := c.Get(fiber.HeaderOrigin)
		if origin == "" {
			return c.Next()
		}

		if !m.originAllowed(origin) {
			return c.Next()
		}

		c.Set(fiber.HeaderVary, "Origin")
		if m.allowCredentials {
			c.Set(fiber.HeaderAccessControlAllowOrigin, origin)
			c.Set(fiber.HeaderAccessControlAllowCredentials, "true")
		} else if hasStar(m.allowOrigins) {
			c.Set(fiber.HeaderAccessControlAllowOrigin, "*")
		} else {
			c.Set(fiber.HeaderAccessControlAllowOrigin, origin)
		}

		if c.Method() == fiber.MethodOptions {
			reqMethod := c.Get(fiber.HeaderAccessControlRequestMethod)
			if reqMethod != "" {
				c.Set(fiber.HeaderAccessControlAllowMethods, strings.Join(m.allowMethods, ", "))
				reqHeaders := c.Get(fiber.HeaderAccessControlRequestHeaders)
				if reqHeaders != "" && hasStar(m.allowHeaders) {
					c.Set(fiber.HeaderAccessControlAllowHeaders, reqHeaders)
				} else {
					c.Set(fiber.HeaderAccessControlAllowHeaders, strings.Join(m.allowHeaders, ", "))
				}
				return c.SendStatus(fiber.StatusNoContent)
			}
		}

		return c.Next()
	}
}

// originAllowed matches the request origin against the configured list.
// Entries may carry a single wildcard subdomain, e.g. https://*.example.com.
func (m *corsGlobalMiddleware) originAllowed(origin string) bool {
	for _, o := range m.allowOrigins {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
		if strings.Contains(o, "*.") {
			scheme, rest, found := strings.Cut(o, "://")
			if !found {
				continue
			}
			suffix := strings.TrimPrefix(rest, "*.")
			if strings.HasPrefix(origin, scheme+"://") &&
				strings.HasSuffix(strings.TrimPrefix(origin, scheme+"://"), "."+suffix) {
				return true
			}
		}
	}
	return false
}

func hasStar(arr []string) bool {
	for _, v := range arr {
		if v == "*" {
			return true
		}
	}
	return false
}
