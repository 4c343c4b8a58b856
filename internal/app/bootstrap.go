package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/shelfwise/library-backend/pkg/config"
	"github.com/shelfwise/library-backend/pkg/db"
	"github.com/shelfwise/library-backend/pkg/logger"
	"github.com/shelfwise/library-backend/pkg/migrate"
	"github.com/shelfwise/library-backend/pkg/redis"
)

// BootstrapOptions select what a process needs at startup.
type BootstrapOptions struct {
	// ServiceKind names the binary in logs and config.
	ServiceKind string
	// WithRedis connects Redis as well as the database.
	WithRedis bool
}

// Runtime holds the shared connections of a running process.
type Runtime struct {
	Config *config.Config
	Logger *logger.Logger
	DB     *db.Client
	Redis  *redis.Client
}

// Bootstrap loads .env and config, builds the logger, then opens the database
// (running dev migrations when enabled) and optionally Redis. On error every
// connection opened so far is closed.
func Bootstrap(ctx context.Context, opts BootstrapOptions) (rt *Runtime, err error) {
	if opts.ServiceKind == "" {
		return nil, fmt.Errorf("service kind required")
	}
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg.Service.Kind = opts.ServiceKind

	rt = &Runtime{
		Config: cfg,
		Logger: logger.New(logger.Options{
			ServiceName: opts.ServiceKind,
			Level:       logger.ParseLevel(cfg.App.LogLevel),
			WarnStack:   cfg.App.LogWarnStack,
		}),
	}
	switch {
	case errors.Is(envErr, fs.ErrNotExist):
		rt.Logger.Debug(ctx, ".env file not found, relying on environment")
	case envErr != nil:
		rt.Logger.Warn(rt.Logger.WithField(ctx, "error", envErr.Error()), ".env file ignored")
	}
	defer func() {
		if err != nil {
			err = multierr.Append(err, rt.Close())
			rt = nil
		}
	}()

	rt.DB, err = db.New(ctx, cfg.DB, db.Options{UseSQLite: cfg.FeatureFlags.UseSQLite}, rt.Logger)
	if err != nil {
		return rt, fmt.Errorf("bootstrap database: %w", err)
	}
	if err = migrate.MaybeRunDev(ctx, cfg, rt.Logger, rt.DB); err != nil {
		return rt, fmt.Errorf("dev migrations: %w", err)
	}
	if opts.WithRedis {
		rt.Redis, err = redis.New(ctx, cfg.Redis, rt.Logger)
		if err != nil {
			return rt, fmt.Errorf("bootstrap redis: %w", err)
		}
	}
	return rt, nil
}

// Close releases Redis then the database. It is safe on a partially built
// runtime.
func (rt *Runtime) Close() error {
	if rt == nil {
		return nil
	}
	var err error
	if rt.Redis != nil {
		err = multierr.Append(err, rt.Redis.Close())
	}
	if rt.DB != nil {
		err = multierr.Append(err, rt.DB.Close())
	}
	return err
}
