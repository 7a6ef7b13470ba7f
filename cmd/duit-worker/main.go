package main

import (
	"context"
	"os"
	"time"

	"duit/internal/amqp"
	"duit/internal/cli"
	"duit/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting duit-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for duit-worker")
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	notifyWorker := worker.NewNotifyWorker(worker.LogNotifier{}, cfg.NotifyMaxAttempts, cfg.NotifyRetryBackoff)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	go func() {
		err := amqpClient.ConsumeTransactionEvents(ctx, func(msg *amqp.TransactionEventMessage) error {
			return notifyWorker.HandleEvent(ctx, msg)
		})
		if err != nil && err != context.Canceled {
			logger.Error("Message consumption failed", "error", err)
		}
	}()

	logger.Info("Consuming transaction events",
		"queue", cfg.AMQPQueue,
		"max_attempts", cfg.NotifyMaxAttempts,
		"backoff", cfg.NotifyRetryBackoff)

	cli.WaitForShutdown(ctx, done)
}
