package server

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atamsindonesia/aura/pkg/config"
	"github.com/atamsindonesia/aura/pkg/domain"
	"github.com/atamsindonesia/aura/pkg/infra/prometheus"
	"github.com/atamsindonesia/aura/pkg/middleware"
	"github.com/atamsindonesia/aura/pkg/types"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

// Server is the common behavior of every AURA server.
type Server interface {
	Run() error
	Shutdown() error
}

// BaseServer carries the fiber app plus the shared middleware chain.
// Applications register their routes on Router and call Run.
type BaseServer struct {
	Config         *config.Config
	Logger         *logrus.Logger
	Router         *fiber.App
	metricsApp     *fiber.App
	metricsStarted bool
}

func NewBaseServer(cfg *config.Config, logger *logrus.Logger, transport middleware.Transport) *BaseServer {
	r := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReadTimeout:           60 * time.Second,
		WriteTimeout:          60 * time.Second,
		IdleTimeout:           120 * time.Second,
		BodyLimit:             8 * 1024 * 1024,
		ErrorHandler:          newErrorHandler(logger),
	})

	s := &BaseServer{
		Config: cfg,
		Logger: logger,
		Router: r,
	}

	s.installMiddlewares(transport)
	s.setupHealthCheck()

	return s
}

// installMiddlewares applies the transport chain in its canonical order;
// nil slots are skipped so applications opt in per concern.
func (s *BaseServer) installMiddlewares(transport middleware.Transport) {
	chain := []middleware.Middleware{
		transport.PanicRecoverMiddleware,
		transport.RequestIDMiddleware,
		transport.CORSMiddleware,
		transport.MetricsMiddleware,
		transport.RateLimitMiddleware,
		transport.AuthMiddleware,
	}
	for _, m := range chain {
		if m != nil {
			s.Router.Use(m.Middleware())
		}
	}
}

func (s *BaseServer) setupHealthCheck() {
	s.Router.Get("/health", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
}

func (s *BaseServer) setupMetricsEndpoint() {
	if s.metricsStarted {
		return
	}
	s.metricsStarted = true

	metricsApp := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	metricsApp.Use(recover.New())

	metricsApp.Get("/metrics", func(c *fiber.Ctx) error {
		handler := fasthttpadaptor.NewFastHTTPHandler(
			promhttp.HandlerFor(prometheus.Registry(), promhttp.HandlerOpts{}),
		)
		handler(c.Context())
		return nil
	})
	s.metricsApp = metricsApp

	go func() {
		addr := fmt.Sprintf(":%d", s.Config.Server.MetricsPort)
		if err := metricsApp.Listen(addr); err != nil {
			if !strings.Contains(err.Error(), "address already in use") {
				s.Logger.WithError(err).Error("failed to start metrics server")
			}
		}
	}()
}

func (s *BaseServer) Run() error {
	s.setupMetricsEndpoint()

	addr := fmt.Sprintf("%s:%d", s.Config.Server.Host, s.Config.Server.Port)
	s.Logger.WithField("addr", addr).Info("starting server")
	return s.Router.Listen(addr)
}

func (s *BaseServer) Shutdown() error {
	if s.metricsApp != nil {
		_ = s.metricsApp.Shutdown()
	}
	return s.Router.Shutdown()
}

// newErrorHandler maps handler errors onto the standard envelope. AppErrors
// keep their status and detail; fiber's own errors keep their code; anything
// else becomes an opaque 500.
func newErrorHandler(logger *logrus.Logger) fiber.ErrorHandler {
	return func(ctx *fiber.Ctx, err error) error {
		var appErr *domain.AppError
		if errors.As(err, &appErr) {
			if appErr.Status >= fiber.StatusInternalServerError {
				logger.WithError(err).WithField("path", ctx.Path()).Error("request failed")
			}
			return ctx.Status(appErr.Status).JSON(types.NewErrorResponse(appErr.Message, appErr.Detail))
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(types.NewErrorResponse(fiberErr.Message, nil))
		}

		logger.WithError(err).WithField("path", ctx.Path()).Error("unhandled error")
		return ctx.Status(fiber.StatusInternalServerError).
			JSON(types.NewErrorResponse("Internal server error", nil))
	}
}
