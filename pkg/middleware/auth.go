package middleware

import (
	"context"
	"strings"

	"github.com/atamsindonesia/aura/pkg/common"
	"github.com/atamsindonesia/aura/pkg/domain"
	"github.com/atamsindonesia/aura/pkg/sso"
	"github.com/atamsindonesia/aura/pkg/types"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type authMiddleware struct {
	logger   logrus.FieldLogger
	verifier sso.Verifier
}

// NewAuthMiddleware authenticates requests through the Atlas SSO verifier
// and stores the resolved user in the request context.
func NewAuthMiddleware(logger logrus.FieldLogger, verifier sso.Verifier) Middleware {
	return &authMiddleware{logger: logger, verifier: verifier}
}

func (m *authMiddleware) Middleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		token := bearerToken(ctx.Get(fiber.HeaderAuthorization))
		if token == "" {
			m.logger.Debug("no bearer token provided")
			return ctx.Status(fiber.StatusUnauthorized).
				JSON(types.NewErrorResponse("authentication token required", nil))
		}

		user, err := m.verifier.VerifyToken(ctx.Context(), token)
		if err != nil {
			status := domain.StatusOf(err)
			if status >= fiber.StatusInternalServerError {
				m.logger.WithError(err).Error("token verification failed")
			}
			return ctx.Status(status).JSON(types.NewErrorResponse(err.Error(), nil))
		}

		ctx.Locals(common.UserContextKey, user)
		c := context.WithValue(ctx.Context(), common.UserContextKey, user)
		ctx.SetUserContext(c)

		return ctx.Next()
	}
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// UserFromContext returns the authenticated user stored by the auth
// middleware, or nil when the request is anonymous.
func UserFromContext(ctx *fiber.Ctx) *sso.UserInfo {
	user, ok := ctx.Locals(common.UserContextKey).(*sso.UserInfo)
	if !ok {
		return nil
	}
	return user
}

// RequireRoles guards a route behind the given roles. It must run after the
// auth middleware.
func RequireRoles(roles ...string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		user := UserFromContext(ctx)
		if user == nil {
			return ctx.Status(fiber.StatusUnauthorized).
				JSON(types.NewErrorResponse("authentication required", nil))
		}
		for _, role := range roles {
			if user.HasRole(role) {
				return ctx.Next()
			}
		}
		return ctx.Status(fiber.StatusForbidden).
			JSON(types.NewErrorResponse("insufficient permissions", nil))
	}
}
