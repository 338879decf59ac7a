package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	"github.com/AbdRaqeeb/fastfood-api/internal/cache"
	"github.com/AbdRaqeeb/fastfood-api/internal/config"
	"github.com/AbdRaqeeb/fastfood-api/internal/database"
	"github.com/AbdRaqeeb/fastfood-api/internal/handlers"
	"github.com/AbdRaqeeb/fastfood-api/internal/routes"
	"github.com/AbdRaqeeb/fastfood-api/internal/services"
)

func main() {
	cfg := config.Load()
	db := database.Connect(cfg.DatabaseURL)

	app := fiber.New(fiber.Config{
		AppName:      "Fastfood API",
		ErrorHandler: handlers.ErrorHandler,
		BodyLimit:    10 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))

	deps := routes.Dependencies{Cache: newCacheStore(cfg)}

	if telegram := services.NewTelegramService(cfg.TelegramBotToken, cfg.TelegramKitchenChat); telegram.Enabled() {
		deps.Notifier = telegram
	} else {
		log.Println("Kitchen notifications disabled: TELEGRAM_BOT_TOKEN or TELEGRAM_KITCHEN_CHAT_ID not set")
	}

	if uploader, err := services.NewCloudinaryUploader(cfg); err != nil {
		log.Printf("Image uploads disabled: %v", err)
	} else {
		deps.Uploader = uploader
	}

	routes.Register(app, db, cfg, deps)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down server")
		if err := app.Shutdown(); err != nil {
			log.Printf("fiber.Shutdown error: %v", err)
		}
	}()

	log.Printf("Starting server on :%s", cfg.AppPort)
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.Fatalf("fiber.Listen error: %v", err)
	}

	if closer, ok := deps.Cache.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			log.Printf("cache close error: %v", err)
		}
	}
}

func newCacheStore(cfg *config.Config) cache.Store {
	if cfg.RedisURL == "" {
		log.Println("REDIS_URL not set, using in-memory cache")
		return cache.NewMemoryStore()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store, err := cache.NewRedisStore(ctx, cfg.RedisURL)
	if err != nil {
		log.Printf("Redis unavailable (%v), using in-memory cache", err)
		return cache.NewMemoryStore()
	}
	return store
}
