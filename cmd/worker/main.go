package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Ruthachere/e-commerce-shop/internal/config"
	"github.com/Ruthachere/e-commerce-shop/internal/domain"
	"github.com/Ruthachere/e-commerce-shop/internal/email"
	"github.com/Ruthachere/e-commerce-shop/internal/kafka"
	"github.com/Ruthachere/e-commerce-shop/internal/worker"
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

	tp, err := utils.InitTracer(ctx, "shop-worker", cfg.Env)
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

	sender := email.NewBreakerSender(email.NewSMTPSender(email.Config{
		From:     cfg.SMTP.From,
		Password: cfg.SMTP.Password,
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
	}, logger), logger)

	deduper := worker.NewDeduper(pool, logger)
	notificationHandler := worker.NewNotificationHandler(sender, deduper, logger)

	consumer := kafka.NewConsumerGroup(
		cfg.Kafka.Brokers,
		cfg.Kafka.GroupID,
		[]string{domain.TopicOrderJobs, domain.TopicPaymentJobs},
		func(ctx context.Context, msg *sarama.ConsumerMessage) error {
			return notificationHandler.Handle(ctx, msg.Value)
		},
		logger,
	)

	mylogger.Info(ctx, logger, "Notification worker starting")

	if err := consumer.Run(ctx); err != nil {
		log.Fatalf("consumer stopped with error: %v", err)
	}

	shutdownCtx, exit := context.WithTimeout(context.Background(), 5*time.Second)
	defer exit()

	mylogger.Info(shutdownCtx, logger, "Shutting down worker")

	if err := tp.Shutdown(shutdownCtx); err != nil {
		mylogger.Warn(shutdownCtx, logger, "Failed to shut down telemetry", zap.Error(err))
	}

	pool.Close()
}
