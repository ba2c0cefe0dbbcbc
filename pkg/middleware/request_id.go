package middleware

import (
	"context"
	"time"

	"github.com/atamsindonesia/aura/pkg/common"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-Id"

type requestIDMiddleware struct{}

// NewRequestIDMiddleware tags every request with an id, honoring one already
// supplied by an upstream proxy, and stamps the arrival time for the latency
// measurement downstream.
func NewRequestIDMiddleware() Middleware {
	return &requestIDMiddleware{}
}

func (m *requestIDMiddleware) Middleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		requestID := ctx.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		ctx.Locals(common.RequestIDContextKey, requestID)
		ctx.Locals(common.LatencyContextKey, time.Now())
		c := context.WithValue(ctx.Context(), common.RequestIDContextKey, requestID)
		ctx.SetUserContext(c)

		ctx.Set(requestIDHeader, requestID)
		return ctx.Next()
	}
}
