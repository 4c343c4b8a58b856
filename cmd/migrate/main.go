package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"

	"github.com/shelfwise/library-backend/pkg/config"
	"github.com/shelfwise/library-backend/pkg/db"
	"github.com/shelfwise/library-backend/pkg/logger"
	"github.com/shelfwise/library-backend/pkg/migrate"
)

type flags struct {
	cmd     string
	dir     string
	name    string
	version string
}

// fileCommands operate on the migrations tree and never open a connection.
var fileCommands = map[string]func(f flags, out io.Writer) error{
	"create": func(f flags, out io.Writer) error {
		if f.name == "" {
			return fmt.Errorf("missing -name for create")
		}
		paths, err := migrate.CreateSQLMigration(f.dir, f.name)
		if err != nil {
			return fmt.Errorf("create migration: %w", err)
		}
		for _, p := range paths {
			fmt.Fprintln(out, "created migration:", p)
		}
		return nil
	},
	"validate": func(f flags, out io.Writer) error {
		if err := migrate.ValidateDir(f.dir); err != nil {
			return fmt.Errorf("migration validation failed: %w", err)
		}
		fmt.Fprintln(out, "migration validation passed")
		return nil
	},
}

type dbCommand func(ctx context.Context, sqlDB *sql.DB, dialect goose.Dialect, f flags, out io.Writer) error

func gooseCommand(name string) dbCommand {
	return func(ctx context.Context, sqlDB *sql.DB, dialect goose.Dialect, _ flags, out io.Writer) error {
		return migrate.Run(ctx, sqlDB, dialect, name, out)
	}
}

var dbCommands = map[string]dbCommand{
	"up":     gooseCommand("up"),
	"down":   gooseCommand("down"),
	"status": gooseCommand("status"),
	"version": func(ctx context.Context, sqlDB *sql.DB, dialect goose.Dialect, f flags, _ io.Writer) error {
		if f.version == "" {
			return fmt.Errorf("missing -version for version command")
		}
		return migrate.MigrateToVersion(ctx, sqlDB, dialect, f.version)
	},
}

func main() {
	var f flags
	flag.StringVar(&f.cmd, "cmd", "up", "migration command: up|down|status|version|create|validate")
	flag.StringVar(&f.dir, "dir", migrate.DefaultDir, "migrations root (one subdirectory per dialect) for create and validate")
	flag.StringVar(&f.name, "name", "", "migration name (for create)")
	flag.StringVar(&f.version, "version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.Parse()

	if err := run(f); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(f flags) error {
	logg := logger.New(logger.Options{ServiceName: "migrate"})
	_ = godotenv.Load()

	if fn, ok := fileCommands[f.cmd]; ok {
		return fn(f, os.Stdout)
	}
	fn, ok := dbCommands[f.cmd]
	if !ok {
		return fmt.Errorf("unknown -cmd value: %s", f.cmd)
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "resource not working: config", err)
		return err
	}
	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env": cfg.App.Env,
		"cmd": f.cmd,
	})

	dbClient, err := db.New(ctx, cfg.DB, db.Options{UseSQLite: cfg.FeatureFlags.UseSQLite}, logg)
	if err != nil {
		logg.Error(ctx, "resource not working: database", err)
		return err
	}
	defer dbClient.Close()

	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		logg.Error(ctx, "resource not working: sql database", err)
		return err
	}

	logg.Info(ctx, "migrate ready")
	if err := fn(ctx, sqlDB, migrate.DialectFor(cfg.FeatureFlags.UseSQLite), f, os.Stdout); err != nil {
		return fmt.Errorf("goose %s failed: %w", f.cmd, err)
	}
	return nil
}
