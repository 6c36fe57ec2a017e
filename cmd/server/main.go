package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/lowilleq/exterra/internal/config"
	"github.com/lowilleq/exterra/internal/database"
	"github.com/lowilleq/exterra/internal/handlers"
	"github.com/lowilleq/exterra/internal/repository"
	"github.com/lowilleq/exterra/internal/routes"
	"github.com/lowilleq/exterra/internal/services"
	"github.com/lowilleq/exterra/internal/utils"
)

func main() {
	cfg := config.Load()
	db := database.Connect(cfg.DatabaseURL)

	seedAdmin(cfg, repository.NewAdminRepository(db))

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		client, err := services.NewRedisClient(cfg.RedisAddr)
		if err != nil {
			if cfg.IdentityBackend == config.IdentityBackendRedis {
				log.Fatalf("redis identity backend unavailable: %v", err)
			}
			log.Printf("[Redis] disabled: %v", err)
		} else {
			redisClient = client
			defer redisClient.Close()
		}
	}

	var publisher services.ScanPublisher
	if cfg.RabbitMQURL != "" {
		amqpPublisher, err := services.NewAMQPScanPublisher(cfg.RabbitMQURL, cfg.ScanExchange)
		if err != nil {
			log.Printf("[AMQP] scan events disabled: %v", err)
		} else {
			publisher = amqpPublisher
			defer amqpPublisher.Close()
		}
	}

	storage, err := services.NewLocalObjectStorage(cfg.UploadDir, cfg.PublicBaseURL)
	if err != nil {
		log.Fatalf("object storage: %v", err)
	}

	recorder := services.NewScanRecorder(repository.NewScanRepository(db), publisher, cfg.ScanTimeout)

	var notifier services.CustomerNotifier
	if telegram := services.NewTelegramService(cfg.TelegramBotToken, cfg.TelegramAdminChat); telegram.Enabled() {
		notifier = telegram
	}

	app := fiber.New(fiber.Config{
		AppName:      "Exterra Showcase",
		BodyLimit:    int(cfg.MaxImageBytes) + 1<<20,
		ErrorHandler: handlers.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New())

	routes.Register(app, db, cfg, routes.Services{
		Redis:    redisClient,
		Recorder: recorder,
		Storage:  storage,
		Notifier: notifier,
	})

	go func() {
		log.Printf("Starting server on :%s", cfg.AppPort)
		if err := app.Listen(":" + cfg.AppPort); err != nil {
			log.Fatalf("fiber.Listen error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("fiber.Shutdown error: %v", err)
	}
	recorder.Wait()
}

func seedAdmin(cfg *config.Config, admins *repository.AdminRepository) {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		log.Println("[Admin] ADMIN_EMAIL/ADMIN_PASSWORD not set, skipping admin seed")
		return
	}

	hash, err := utils.HashPassword(cfg.AdminPassword)
	if err != nil {
		log.Fatalf("admin password: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.StoreTimeout)
	defer cancel()

	admin, err := admins.Ensure(ctx, cfg.AdminEmail, hash)
	if err != nil {
		log.Fatalf("seed admin: %v", err)
	}
	log.Printf("[Admin] account %s ready", admin.Email)
}
