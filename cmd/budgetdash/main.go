// @title Budget Dashboard API
// @version 1.0
// @description Transactions, categories, recurring series and budget projections.
// @BasePath /api
package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"budgetdash/internal/amqp"
	"budgetdash/internal/assistant"
	"budgetdash/internal/cli"
	apphttp "budgetdash/internal/http"
	applog "budgetdash/internal/log"
	"budgetdash/internal/services"
)

const amqpConnectAttempts = 5

func main() {
	cfg, logger := cli.LoadAndValidateConfig()
	ctx := context.Background()
	logger.InfoContext(ctx, "Starting budgetdash", applog.FieldOperation, applog.OpStartup, "port", cfg.Port, "db", cfg.SQLiteDBPath)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	var publisher services.EventPublisher
	var amqpClient *amqp.Client
	if cfg.AMQPEnabled() {
		client, err := amqp.NewClient(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, amqpConnectAttempts)
		if err != nil {
			logger.WarnContext(ctx, "AMQP unavailable, change events disabled",
				applog.FieldComponent, applog.ComponentAMQP,
				applog.FieldError, err)
		} else {
			amqpClient = client
			publisher = client
			logger.InfoContext(ctx, "AMQP change events enabled", "exchange", cfg.AMQPExchange)
		}
	}

	svc := services.New(repo, publisher, cfg.MaxRecurringMonths)

	var intent *assistant.Assistant
	if cfg.AssistantEnabled() {
		planner := assistant.NewOpenAIPlanner(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL)
		intent = assistant.New(planner, assistant.NewDispatcher(svc))
		logger.InfoContext(ctx, "Assistant enabled", "model", cfg.OpenAIModel)
	}

	srv, err := apphttp.NewServer(svc, apphttp.Options{
		Addr:               ":" + cfg.Port,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger,
		Assistant:          intent,
		Ready:              repo.Ping,
	})
	if err != nil {
		logger.ErrorContext(ctx, "Failed to build server", applog.FieldError, err)
		return
	}

	shutdownCtx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.ErrorContext(ctx, "Server shutdown error", applog.FieldError, err)
		}
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.WarnContext(ctx, "AMQP close error", applog.FieldError, err)
			}
		}
	})

	go func() {
		logger.InfoContext(ctx, "HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorContext(ctx, "Server failed", applog.FieldError, err)
			os.Exit(1)
		}
	}()

	cli.WaitForShutdown(shutdownCtx, done)
}
