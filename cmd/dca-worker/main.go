package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/Atanda1/dca-experiment/internal/config"
	"github.com/Atanda1/dca-experiment/internal/events"
	"github.com/Atanda1/dca-experiment/internal/localstate"
	"github.com/Atanda1/dca-experiment/internal/log"
	"github.com/Atanda1/dca-experiment/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()
	logger := log.New(log.Config{Level: log.ParseLevel(cfg.LogLevel)})

	logger.Info("Starting dca-worker")

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	state, err := localstate.Open(cfg.LocalStateDBPath)
	if err != nil {
		logger.Error("Failed to open local state database", log.FieldError, err, "path", cfg.LocalStateDBPath)
		os.Exit(1)
	}
	defer state.Close()

	eventsClient, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer eventsClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	recorder := worker.NewActivityRecorder(state, logger)

	go func() {
		if err := recorder.Run(ctx, eventsClient); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", log.FieldError, err)
			cancel()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()
	case <-ctx.Done():
	}

	logger.Info("Worker stopped gracefully", log.FieldOperation, log.OpShutdown)
}
