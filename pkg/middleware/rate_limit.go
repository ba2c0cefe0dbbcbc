package middleware

import (
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/atamsindonesia/aura/pkg/config"
	"github.com/atamsindonesia/aura/pkg/infra/prometheus"
	"github.com/atamsindonesia/aura/pkg/ratelimit"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const (
	headerRateLimitLimit     = "X-RateLimit-Limit"
	headerRateLimitRemaining = "X-RateLimit-Remaining"
	headerRateLimitWindow    = "X-RateLimit-Window"

	defaultCleanupInterval = 100

	// All requests without a resolvable client address share this bucket.
	// Coarse, but per-request uniqueness would defeat limiting entirely.
	unknownClientID = "unknown"
)

type rateLimitMiddleware struct {
	logger          logrus.FieldLogger
	limiter         *ratelimit.Limiter
	enabled         bool
	exemptPaths     map[string]struct{}
	windowSeconds   int
	cleanupInterval int64
	requestCount    atomic.Int64
}

// NewRateLimitMiddleware builds the per-client request limiter middleware.
// opts is normally nil; tests inject a time provider through it.
func NewRateLimitMiddleware(
	logger logrus.FieldLogger,
	cfg config.RateLimitConfig,
	opts *ratelimit.Opts,
) Middleware {
	cleanupInterval := cfg.CleanupInterval
	if cleanupInterval <= 0 {
		cleanupInterval = defaultCleanupInterval
	}

	exempt := make(map[string]struct{}, len(cfg.ExemptPaths))
	for _, path := range cfg.ExemptPaths {
		exempt[path] = struct{}{}
	}

	return &rateLimitMiddleware{
		logger:          logger,
		limiter:         ratelimit.NewLimiter(cfg.Requests, time.Duration(cfg.Window)*time.Second, opts),
		enabled:         cfg.Enabled,
		exemptPaths:     exempt,
		windowSeconds:   cfg.Window,
		cleanupInterval: int64(cleanupInterval),
	}
}

func (m *rateLimitMiddleware) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !m.enabled {
			return c.Next()
		}
		if _, ok := m.exemptPaths[c.Path()]; ok {
			return c.Next()
		}

		clientID := c.IP()
		if clientID == "" {
			clientID = unknownClientID
		}

		allowed, remaining := m.limiter.Allow(clientID)

		if m.requestCount.Add(1)%m.cleanupInterval == 0 {
			m.limiter.Sweep()
			prometheus.RateLimitTrackedClients.Set(float64(m.limiter.Size()))
		}

		if !allowed {
			m.logger.WithFields(logrus.Fields{
				"client_ip": clientID,
				"path":      c.Path(),
				"method":    c.Method(),
			}).Warn("rate limit exceeded")
			prometheus.RateLimitRejectedTotal.WithLabelValues(c.Method()).Inc()

			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(m.windowSeconds))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"message":     "Rate limit exceeded",
				"limit":       m.limiter.MaxRequests(),
				"window":      m.windowString(),
				"retry_after": m.windowSeconds,
			})
		}

		err := c.Next()

		c.Set(headerRateLimitLimit, strconv.Itoa(m.limiter.MaxRequests()))
		c.Set(headerRateLimitRemaining, strconv.Itoa(remaining))
		c.Set(headerRateLimitWindow, m.windowString())

		return err
	}
}

func (m *rateLimitMiddleware) windowString() string {
	return fmt.Sprintf("%ds", m.windowSeconds)
}
