package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Atanda1/dca-experiment/internal/backend"
	"github.com/Atanda1/dca-experiment/internal/config"
	"github.com/Atanda1/dca-experiment/internal/events"
	apphttp "github.com/Atanda1/dca-experiment/internal/http"
	"github.com/Atanda1/dca-experiment/internal/localstate"
	"github.com/Atanda1/dca-experiment/internal/log"
	"github.com/Atanda1/dca-experiment/internal/services"
	"github.com/Atanda1/dca-experiment/internal/session"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()
	logger := log.New(log.Config{Level: log.ParseLevel(cfg.LogLevel)})

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	// Local state database holds the session snapshot and the activity log.
	state, err := localstate.Open(cfg.LocalStateDBPath)
	if err != nil {
		logger.Error("Failed to open local state database", log.FieldError, err, "path", cfg.LocalStateDBPath)
		os.Exit(1)
	}
	defer state.Close()

	// Data backend: the hosted service or the in-memory stand-in.
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	factory := backend.NewFactory(logger)
	result, err := factory.CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to create data backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	if result.Cleanup != nil {
		defer func() {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup failed", log.FieldError, err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Session store restores any persisted session before the first request.
	sessions := session.New(session.Config{
		Auth:          result.Service,
		State:         state,
		Logger:        logger,
		RefreshMargin: cfg.RefreshMargin,
	})
	sessions.Start(ctx)

	// Activity stream is optional; without AMQP the app just skips publishing.
	var publisher services.ActivityPublisher
	if cfg.AMQPURL != "" {
		eventsClient, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer eventsClient.Close()
		publisher = eventsClient
		logger.Info("Activity stream enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("Activity stream disabled - no AMQP_URL provided")
	}

	investments := services.NewInvestmentService(result.Service, sessions, publisher, logger)

	srv := apphttp.NewServer(":"+cfg.Port, investments, sessions, logger)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		cancel()
	}()

	logger.Info("Starting dca server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		log.FieldOperation, log.OpStartup)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully", log.FieldOperation, log.OpShutdown)
}
