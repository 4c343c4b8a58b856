package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/shelfwise/library-backend/api/routes"
	"github.com/shelfwise/library-backend/internal/app"
	"github.com/shelfwise/library-backend/internal/auth"
	"github.com/shelfwise/library-backend/pkg/auth/session"
	"github.com/shelfwise/library-backend/pkg/env"
	"github.com/shelfwise/library-backend/pkg/instance"
	"github.com/shelfwise/library-backend/pkg/logger"
	"github.com/shelfwise/library-backend/pkg/metrics"
	"github.com/shelfwise/library-backend/pkg/security"
)

const (
	serviceKind     = "api"
	shutdownTimeout = 15 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logger.New(logger.Options{ServiceName: serviceKind}).Error(ctx, "api server stopped", err)
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

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	services, err := app.NewServices(rt.DB, registry, logg)
	if err != nil {
		return fmt.Errorf("wire services: %w", err)
	}
	sessions, err := session.NewManager(rt.Redis, cfg.JWT)
	if err != nil {
		return fmt.Errorf("session manager: %w", err)
	}
	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       services.Users,
		SessionManager: sessions,
		Hasher:         security.NewHasher(cfg.Password),
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		return fmt.Errorf("auth service: %w", err)
	}

	// PORT overrides the configured port.
	addr := ":" + env.Get("PORT", cfg.App.Port)
	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:      cfg,
			Logger:      logg,
			DBPinger:    rt.DB,
			RedisPinger: rt.Redis,
			Sessions:    sessions,
			RateLimits:  rt.Redis,
			Idempotency: rt.Redis,
			Gatherer:    registry,
			HTTPMetrics: metrics.NewHTTPMetrics(registry),
			Auth:        authService,
			Books:       services.Books,
			Borrows:     services.Borrows,
			Profile:     services.Profile,
			Summary:     services.Summary,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.ID(),
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logg.Info(ctx, "api server listening")
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logg.Info(ctx, "api server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
