package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"finboss/internal/app"
	"finboss/internal/cli"
	"finboss/internal/core"
	applog "finboss/internal/log"
	"finboss/internal/services"
	"finboss/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cli.LoadEnvFile()

	cfg := cli.LoadAndValidateConfig(cli.SetupLogger("info"))
	logger := cli.SetupLogger(cfg.LogLevel)

	logger.Info("Starting finboss-worker", applog.FieldOperation, applog.OpStartup)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	container, err := app.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize application", applog.FieldError, err)
		os.Exit(1)
	}
	if container.Events == nil {
		_ = container.Close()
		logger.Error("AMQP broker unreachable, worker cannot consume events")
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, shutdownTimeout, nil)

	container.Auth.RestoreSession(ctx)
	if !container.Auth.IsLoggedIn() {
		logger.Warn("No stored session, refreshes will fail until `finboss login` is run")
	}

	wlog := logger.WithComponent(applog.ComponentWorker)
	unsubscribe := container.Transactions.Subscribe(func(s services.ServiceState[[]core.Transaction]) {
		if s.Phase() == services.PhaseSuccess {
			wlog.Debug("Transactions updated", applog.FieldCount, len(s.Data))
		}
	})

	rw := worker.NewRefreshWorker(container.Transactions, container.Analytics, logger)

	logger.Info("Performing startup sync")
	rw.Sync(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return container.Events.ConsumeEvents(gctx, rw.HandleEvent)
	})
	g.Go(func() error {
		return rw.RunPeriodic(gctx, cfg.SyncInterval)
	})

	err = g.Wait()
	unsubscribe()
	if cerr := container.Close(); cerr != nil {
		logger.Warn("Cleanup failed", applog.FieldError, cerr)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped", applog.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully", applog.FieldOperation, applog.OpShutdown)
}
