package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atamsindonesia/aura/pkg/config"
	"github.com/atamsindonesia/aura/pkg/domain"
	"github.com/atamsindonesia/aura/pkg/encryption"
	"github.com/atamsindonesia/aura/pkg/infra/database"
	infraLogger "github.com/atamsindonesia/aura/pkg/infra/logger"
	"github.com/atamsindonesia/aura/pkg/infra/repository"
	"github.com/atamsindonesia/aura/pkg/middleware"
	"github.com/atamsindonesia/aura/pkg/server"
	"github.com/atamsindonesia/aura/pkg/sso"
	"github.com/atamsindonesia/aura/pkg/types"
	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
)

// Item is the sample model this example persists.
type Item struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func main() {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		log.Println("no .env file found, using system environment variables")
	}

	cfg, err := config.Load("./config")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := infraLogger.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}

	db, err := database.NewDB(logger, cfg.Database, cfg.Debug)
	if err != nil {
		logger.WithError(err).Fatal("failed to initialize database")
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	atlasClient := sso.NewAtlasClient(cfg.Atlas, redisClient, logger)
	responseEnc := encryption.NewResponseEncryption(cfg.Encryption.Key, cfg.Encryption.IV)
	itemRepo := repository.NewBaseRepository[Item](db.DB)

	srv := server.NewBaseServer(cfg, logger, middleware.Transport{
		PanicRecoverMiddleware: middleware.NewPanicRecoverMiddleware(logger),
		RequestIDMiddleware:    middleware.NewRequestIDMiddleware(),
		CORSMiddleware:         middleware.NewCORSGlobalMiddleware(cfg.CORS),
		MetricsMiddleware:      middleware.NewMetricsMiddleware(),
		RateLimitMiddleware:    middleware.NewRateLimitMiddleware(logger, cfg.RateLimit, nil),
	})

	api := srv.Router.Group("/api/v1")
	auth := middleware.NewAuthMiddleware(logger, atlasClient).Middleware()

	api.Get("/items", func(c *fiber.Ctx) error {
		items, err := itemRepo.List(c.Context(), c.QueryInt("skip", 0), c.QueryInt("limit", 100))
		if err != nil {
			return domain.NewInternalServerError("failed to list items", err)
		}
		total, err := itemRepo.Count(c.Context())
		if err != nil {
			return domain.NewInternalServerError("failed to count items", err)
		}

		payload, err := encryption.EncryptResponse(
			cfg.Encryption.Enabled,
			responseEnc,
			types.NewPaginationResponse("items retrieved", items, total, 1, 100),
		)
		if err != nil {
			return domain.NewInternalServerError("failed to encrypt response", err)
		}
		return c.JSON(payload)
	})

	api.Get("/items/:id", func(c *fiber.Ctx) error {
		item, err := itemRepo.Get(c.Context(), c.Params("id"))
		if err != nil {
			return domain.NewInternalServerError("failed to fetch item", err)
		}
		if item == nil {
			return domain.NewNotFoundError("item", c.Params("id"))
		}

		payload, err := encryption.EncryptResponse(
			cfg.Encryption.Enabled,
			responseEnc,
			types.NewDataResponse("item retrieved", item),
		)
		if err != nil {
			return domain.NewInternalServerError("failed to encrypt response", err)
		}
		return c.JSON(payload)
	})

	api.Post("/items", auth, middleware.RequireRoles("admin"), func(c *fiber.Ctx) error {
		var item Item
		if err := c.BodyParser(&item); err != nil {
			return domain.NewBadRequestError("invalid item payload")
		}
		if err := itemRepo.Create(c.Context(), &item); err != nil {
			return domain.NewInternalServerError("failed to create item", err)
		}
		return c.Status(fiber.StatusCreated).JSON(types.NewDataResponse("item created", item))
	})

	api.Get("/me", auth, func(c *fiber.Ctx) error {
		return c.JSON(types.NewDataResponse("authenticated", middleware.UserFromContext(c)))
	})

	go func() {
		if err := srv.Run(); err != nil {
			logger.WithError(err).Fatal("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	if err := srv.Shutdown(); err != nil {
		logger.WithError(err).Error("shutdown failed")
	}
}
