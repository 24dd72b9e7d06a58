package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"finledger/internal/amqp"
	"finledger/internal/cache"
	"finledger/internal/cli"
	apphttp "finledger/internal/http"
	"finledger/internal/log"
	"finledger/internal/services"
	"finledger/internal/tasks"
)

const (
	shutdownTimeout      = 30 * time.Second
	cacheCleanupInterval = 10 * time.Minute
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentApp)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	exporter := cli.InitExporter(context.Background(), logger, cfg)

	caches := cache.NewManager()
	caches.StartCleanup(cacheCleanupInterval)
	defer caches.Stop()

	// Side effects of a write go to RabbitMQ when configured so the worker
	// runs them; otherwise an in-process queue does.
	var (
		amqpClient *amqp.Client
		queue      *tasks.Queue
	)
	if cfg.AMQPURL != "" {
		var err error
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, cfg.AMQPNotifyQueue)
		if err != nil {
			logger.WithComponent(log.ComponentAMQP).Warn("Failed to initialize AMQP client, running tasks in-process", log.FieldError, err)
			amqpClient = nil
		} else {
			defer amqpClient.Close()
			logger.Info("AMQP client initialized - ledger tasks run in ledger-worker")
		}
	}

	engine := services.NewEngine(repo, services.Options{
		Exporter: exporter,
		Currency: cfg.Currency,
		Caches:   caches,
		NewDispatcher: func(h tasks.Handler) tasks.Dispatcher {
			if amqpClient != nil {
				return amqp.NewDispatcher(amqpClient)
			}
			queue = tasks.NewQueue(h, tasks.QueueConfig{
				Workers:    cfg.TaskWorkers,
				BufferSize: cfg.TaskQueueSize,
			})
			return queue
		},
	})

	srv := apphttp.NewServer(apphttp.ServerConfig{
		Addr:               ":" + cfg.Port,
		OwnerID:            cfg.OwnerID,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		ReminderDaysAhead:  cfg.ReminderDaysAhead,
	}, engine, repo, logger.WithComponent(log.ComponentHTTP))

	ctx, done := cli.GracefulShutdown(logger, shutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldOperation, log.OpShutdown, log.FieldError, err)
		}
		if queue != nil {
			if err := queue.Stop(ctx); err != nil {
				logger.Warn("Task queue did not drain", log.FieldOperation, log.OpShutdown, log.FieldError, err)
			}
		}
	})

	if queue != nil {
		// The queue outlives requests; it stops on shutdown after the server.
		if err := queue.Start(context.WithoutCancel(ctx)); err != nil {
			logger.Error("Failed to start task queue", log.FieldOperation, log.OpStartup, log.FieldError, err)
			os.Exit(1)
		}
	}

	logger.Info("Starting ledger server", "port", cfg.Port, "owner_id", cfg.OwnerID, "amqp", amqpClient != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
