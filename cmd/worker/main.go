package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/madraskitchen/canteen/internal/events"
	"github.com/madraskitchen/canteen/internal/worker"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	kafkaBrokers := os.Getenv("KAFKA_BROKERS")
	if kafkaBrokers == "" {
		logger.Error("KAFKA_BROKERS environment variable is required")
		os.Exit(1)
	}

	canteenURL := os.Getenv("CANTEEN_SERVICE_URL")
	if canteenURL == "" {
		logger.Error("CANTEEN_SERVICE_URL environment variable is required")
		os.Exit(1)
	}

	notifyURL := os.Getenv("NOTIFY_SERVICE_URL")
	if notifyURL == "" {
		logger.Error("NOTIFY_SERVICE_URL environment variable is required")
		os.Exit(1)
	}

	brokers := strings.Split(kafkaBrokers, ",")
	consumer := events.NewConsumer(brokers, events.TopicOrderPlaced, "receipt-worker")
	defer func() { _ = consumer.Close() }()

	httpClient := &http.Client{
		Timeout: 10 * time.Second,
	}

	receiptHandler := worker.NewReceiptHandler(canteenURL, notifyURL, httpClient, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		<-stop
		logger.Info("shutting down")
		cancel()
	}()

	logger.Info("starting receipt worker", "brokers", brokers)

	if err := consumer.Consume(ctx, receiptHandler.Handle); err != nil {
		if ctx.Err() == context.Canceled {
			logger.Info("consumer stopped")
			return
		}
		logger.Error("consumer error", "error", err)
		os.Exit(1)
	}
}
