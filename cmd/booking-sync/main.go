package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"barbersched/internal/bootstrap"
	"barbersched/internal/bookingsync/consumer"
	"barbersched/pkg/config"
	"barbersched/pkg/kafka"
	kafka_middleware "barbersched/pkg/kafka/middleware"
	"barbersched/pkg/metrics"
)

const ServiceName = "booking-sync"

func main() {
	cfg := config.Load(ServiceName)
	if !cfg.KafkaEnabled {
		cfg.Log.Fatal("Booking sync consumer requires Kafka", "env", config.EnvKafkaEnabled)
	}
	cfg.SetMongo()
	defer cfg.GracefulShutdown()
	metrics.Register()

	publisher := bootstrap.NewPublisher(cfg, ServiceName)
	defer func() {
		if err := publisher.Close(); err != nil {
			cfg.Log.Error("Failed to close event publisher", "error", err)
		}
	}()
	services := bootstrap.Build(cfg, publisher)

	kafkaCfg := bootstrap.KafkaConfig(cfg)
	handler := consumer.NewBookingEventHandler(services.BookingSync, cfg.Log)
	c, err := kafka.NewConsumer(kafkaCfg, cfg.BookingEventsTopic, cfg.BookingSyncGroupID, cfg.BookingDLQTopic, handler.Handle, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create booking consumer", "error", err)
	}
	if kafkaCfg.EnableMiddleware {
		c.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))
		c.Use(kafka_middleware.MetricsConsumerMiddleware())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg.Log.Info("Starting booking sync consumer",
		"topic", cfg.BookingEventsTopic,
		"group_id", cfg.BookingSyncGroupID,
	)
	if err := c.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Error("Booking consumer stopped", "error", err)
	}
	if err := c.Close(); err != nil {
		cfg.Log.Error("Failed to close booking consumer", "error", err)
	}
	cfg.Log.Info("Booking sync consumer stopped")
}
