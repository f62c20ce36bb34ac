package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Ruthachere/e-commerce-shop/internal/cache"
	"github.com/Ruthachere/e-commerce-shop/internal/config"
	"github.com/Ruthachere/e-commerce-shop/internal/kafka"
	"github.com/Ruthachere/e-commerce-shop/internal/outbox"
	"github.com/Ruthachere/e-commerce-shop/internal/pricing"
	"github.com/Ruthachere/e-commerce-shop/internal/realtime"
	"github.com/Ruthachere/e-commerce-shop/internal/repository"
	"github.com/Ruthachere/e-commerce-shop/internal/service"
	transport "github.com/Ruthachere/e-commerce-shop/internal/transport/http"
	"github.com/Ruthachere/e-commerce-shop/internal/transport/http/handler"
	"github.com/Ruthachere/e-commerce-shop/pkg/db"
	"github.com/Ruthachere/e-commerce-shop/pkg/mylogger"
	"github.com/Ruthachere/e-commerce-shop/pkg/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.MustLoad()

	tp, err := utils.InitTracer(ctx, "shop-server", cfg.Env)
	if err != nil {
		log.Fatalf("failed to init tracer: %v", err)
	}

	logger, err := config.NewLogger(config.LoggerConfig{
		Level: "Info",
		Env:   cfg.Env,
	})
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	pool, err := db.NewPostgresDB(ctx, cfg.Postgres.URL)
	if err != nil {
		log.Fatalf("failed to create pool: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})

	orderRepo := repository.NewOrderRepository(pool, logger)
	inventoryRepo := repository.NewInventoryRepository(pool, logger)
	paymentRepo := repository.NewPaymentRepository(pool, logger)
	userRepo := repository.NewUserRepository(pool, logger)
	catalogRepo := cache.NewCachedCatalog(repository.NewCatalogRepository(pool, logger), redisClient)
	outboxRepo := outbox.NewRepository(pool, logger)

	broadcaster := realtime.NewRedisBroadcaster(redisClient, logger)
	calculator := pricing.NewCalculator(catalogRepo, logger)

	orderService := service.NewOrderService(pool, orderRepo, inventoryRepo, userRepo, outboxRepo, broadcaster, logger)
	inventoryService := service.NewInventoryService(inventoryRepo, broadcaster, logger)
	paymentService := service.NewPaymentService(pool, paymentRepo, orderRepo, userRepo, outboxRepo, broadcaster, cfg.Webhook.Secret, logger)

	producer, err := kafka.NewProducer(cfg.Kafka.Brokers)
	if err != nil {
		log.Fatalf("error creating kafka producer: %v", err)
	}

	outboxProcessor := outbox.NewProcessor(pool, outboxRepo, producer, logger)
	go outboxProcessor.Start(ctx)

	app := fiber.New(fiber.Config{
		ReadTimeout: cfg.HTTP.Timeout,
	})

	transport.RegisterRoutes(app, &transport.Handlers{
		Order:     handler.NewOrderHandler(orderService, calculator, logger),
		Inventory: handler.NewInventoryHandler(inventoryService, logger),
		Payment:   handler.NewPaymentHandler(paymentService, logger),
	})

	go func() {
		mylogger.Info(ctx, logger, "HTTP server listening", zap.String("port", cfg.HTTP.Port))

		if err := app.Listen(cfg.HTTP.Port); err != nil {
			log.Fatalf("error serving http: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, exit := context.WithTimeout(context.Background(), 5*time.Second)
	defer exit()

	mylogger.Info(shutdownCtx, logger, "Shutting down server")

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		mylogger.Warn(shutdownCtx, logger, "Failed to shut down http server", zap.Error(err))
	}

	if err := producer.Close(); err != nil {
		mylogger.Warn(shutdownCtx, logger, "Failed to close kafka producer", zap.Error(err))
	}

	if err := tp.Shutdown(shutdownCtx); err != nil {
		mylogger.Warn(shutdownCtx, logger, "Failed to shut down telemetry", zap.Error(err))
	}

	if err := redisClient.Close(); err != nil {
		mylogger.Warn(shutdownCtx, logger, "Failed to close redis client", zap.Error(err))
	}

	pool.Close()
}
