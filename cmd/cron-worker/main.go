package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/shelfwise/library-backend/internal/app"
	"github.com/shelfwise/library-backend/internal/cron"
	"github.com/shelfwise/library-backend/pkg/instance"
	"github.com/shelfwise/library-backend/pkg/logger"
	"github.com/shelfwise/library-backend/pkg/metrics"
)

const serviceKind = "cron-worker"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.New(logger.Options{ServiceName: serviceKind}).Error(ctx, "cron worker stopped", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	rt, err := app.Bootstrap(ctx, app.BootstrapOptions{ServiceKind: serviceKind, WithRedis: true})
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			rt.Logger.Error(ctx, "error closing connections", err)
		}
	}()
	cfg, logg := rt.Config, rt.Logger

	services, err := app.NewServices(rt.DB, prometheus.DefaultRegisterer, logg)
	if err != nil {
		return fmt.Errorf("wire services: %w", err)
	}
	refreshJob, err := cron.NewStatusRefreshJob(cron.StatusRefreshJobParams{
		Logger:    logg,
		Refresher: services.Borrows,
	})
	if err != nil {
		return err
	}
	lock, err := cron.NewRedisLock(rt.Redis, lockName(cfg.App.Env), cfg.Cron.LockTTL)
	if err != nil {
		return fmt.Errorf("cron lock: %w", err)
	}
	service, err := cron.NewService(cron.ServiceParams{
		Logger:     logg,
		Registry:   cron.NewRegistry(refreshJob),
		Lock:       lock,
		Metrics:    metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval:   cfg.Cron.Interval,
		JobTimeout: cfg.Cron.JobTimeout,
		RunAtStart: cfg.Cron.RunAtStart,
	})
	if err != nil {
		return err
	}

	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"instance":    instance.ID(),
	})
	logg.Info(ctx, "cron worker started")
	err = service.Run(ctx)
	logg.Info(ctx, "cron worker stopped")
	return err
}

func lockName(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf("%s:%s", serviceKind, env)
}
