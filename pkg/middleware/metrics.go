package middleware

import (
	"strconv"
	"time"

	"github.com/atamsindonesia/aura/pkg/common"
	"github.com/atamsindonesia/aura/pkg/infra/prometheus"
	"github.com/gofiber/fiber/v2"
)

type metricsMiddleware struct{}

func NewMetricsMiddleware() Middleware {
	return &metricsMiddleware{}
}

func (m *metricsMiddleware) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Arrival time is stamped by the request id middleware so latency
		// covers the whole chain, not just the handlers below this one.
		start, ok := c.Locals(common.LatencyContextKey).(time.Time)
		if !ok {
			start = time.Now()
		}

		err := c.Next()

		status := c.Response().StatusCode()
		prometheus.RequestTotal.WithLabelValues(c.Method(), strconv.Itoa(status)).Inc()
		prometheus.RequestLatency.WithLabelValues(c.Method()).
			Observe(float64(time.Since(start).Milliseconds()))

		return err
	}
}
