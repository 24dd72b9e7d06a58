package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"finledger/internal/amqp"
	"finledger/internal/cache"
	"finledger/internal/cli"
	"finledger/internal/log"
	"finledger/internal/services"
	"finledger/internal/worker"
)

const (
	shutdownTimeout      = 30 * time.Second
	cacheCleanupInterval = 10 * time.Minute
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentWorker)

	logger.Info("Starting ledger-worker")

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	exporter := cli.InitExporter(context.Background(), logger, cfg)
	locker, closeLocker := cli.InitLocker(context.Background(), logger, cfg)
	defer closeLocker()

	caches := cache.NewManager()
	caches.StartCleanup(cacheCleanupInterval)
	defer caches.Stop()

	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		var err error
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, cfg.AMQPNotifyQueue)
		if err != nil {
			logger.WithComponent(log.ComponentAMQP).Warn("Failed to initialize AMQP client, task consumption disabled", log.FieldError, err)
			amqpClient = nil
		} else {
			defer amqpClient.Close()
		}
	}

	// Writes made by the jobs run their side effects inline here.
	engine := services.NewEngine(repo, services.Options{
		Exporter: exporter,
		Currency: cfg.Currency,
		Caches:   caches,
	})

	var notifier worker.Notifier = worker.NewLogNotifier(logger)
	if amqpClient != nil && cfg.AMQPNotifyQueue != "" {
		notifier = worker.NewAMQPNotifier(amqpClient)
	}

	scheduler := worker.NewJobScheduler(engine.Amortization, engine.Billing, notifier, locker, logger,
		worker.SchedulerConfig{
			Interval:          cfg.JobInterval,
			ReminderDaysAhead: cfg.ReminderDaysAhead,
		})

	ctx, done := cli.GracefulShutdown(logger, shutdownTimeout, func(ctx context.Context) {
		if err := scheduler.Stop(ctx); err != nil {
			logger.Warn("Job scheduler did not stop in time", log.FieldOperation, log.OpShutdown, log.FieldError, err)
		}
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return scheduler.Start(gctx)
	})
	if amqpClient != nil {
		taskWorker := worker.NewTaskWorker(amqpClient, engine.Handler())
		g.Go(func() error {
			logger.Info("Consuming ledger tasks", "queue", cfg.AMQPQueue)
			return taskWorker.Run(gctx)
		})
	} else {
		logger.Info("AMQP disabled - only scheduled jobs run")
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", log.FieldError, err)
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		_ = scheduler.Stop(stopCtx)
		cancel()
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("ledger-worker stopped gracefully")
}
