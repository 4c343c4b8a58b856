package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/shelfwise/library-backend/internal/app"
	"github.com/shelfwise/library-backend/internal/auth"
	"github.com/shelfwise/library-backend/internal/borrows"
	"github.com/shelfwise/library-backend/internal/cron"
	"github.com/shelfwise/library-backend/pkg/enums"
	"github.com/shelfwise/library-backend/pkg/migrate"
)

const serviceKind = "libctl"

// open bootstraps the database for subcommands and returns a closer that logs
// rather than fails.
func open(ctx context.Context) (*app.Runtime, func(), error) {
	rt, err := app.Bootstrap(ctx, app.BootstrapOptions{ServiceKind: serviceKind})
	if err != nil {
		return nil, nil, err
	}
	return rt, func() {
		if err := rt.Close(); err != nil {
			rt.Logger.Error(ctx, "error closing database", err)
		}
	}, nil
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "libctl",
		Short:         "Operator tooling for the library backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRefreshCmd(), newUserCmd(), newMigrateCmd())
	return root
}

func newRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Run the overdue status and fine refresh once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			rt, closeRT, err := open(ctx)
			if err != nil {
				return err
			}
			defer closeRT()

			services, err := app.NewServices(rt.DB, nil, rt.Logger)
			if err != nil {
				return err
			}
			refresher := &capturingRefresher{next: services.Borrows}
			job, err := cron.NewStatusRefreshJob(cron.StatusRefreshJobParams{
				Logger:    rt.Logger,
				Refresher: refresher,
			})
			if err != nil {
				return err
			}
			svc, err := cron.NewService(cron.ServiceParams{
				Logger:   rt.Logger,
				Registry: cron.NewRegistry(job),
				Lock:     cron.NoopLock{},
				Interval: rt.Config.Cron.Interval,
			})
			if err != nil {
				return err
			}
			report, err := svc.RunOnce(ctx)
			if err != nil {
				return err
			}
			if !report.OK() {
				return fmt.Errorf("refresh failed: %v", report.Failed)
			}
			return writeJSON(cmd.OutOrStdout(), refresher.last)
		},
	}
}

// capturingRefresher keeps the counts of the last refresh pass for printing.
type capturingRefresher struct {
	next interface {
		RefreshOverdue(ctx context.Context) (borrows.RefreshResult, error)
	}
	last borrows.RefreshResult
}

func (c *capturingRefresher) RefreshOverdue(ctx context.Context) (borrows.RefreshResult, error) {
	result, err := c.next.RefreshOverdue(ctx)
	c.last = result
	return result, err
}

func newUserCmd() *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}

	var name, email, password, role string
	create := &cobra.Command{
		Use:   "create",
		Short: "Provision an account with an explicit role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			parsedRole, err := enums.ParseUserRole(role)
			if err != nil {
				return err
			}
			if password == "" {
				if password, err = readPassword(cmd.InOrStdin(), cmd.ErrOrStderr()); err != nil {
					return err
				}
			}
			ctx := cmd.Context()
			rt, closeRT, err := open(ctx)
			if err != nil {
				return err
			}
			defer closeRT()

			svc, err := auth.NewProvisionService(auth.ProvisionServiceParams{
				DB:             rt.DB,
				PasswordConfig: rt.Config.Password,
			})
			if err != nil {
				return err
			}
			user, err := svc.Provision(ctx, auth.ProvisionRequest{
				Name:     name,
				Email:    email,
				Password: password,
				Role:     parsedRole,
			})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), user)
		},
	}
	create.Flags().StringVar(&name, "name", "", "display name")
	create.Flags().StringVar(&email, "email", "", "login email")
	create.Flags().StringVar(&password, "password", "", "initial password, prompted for when omitted")
	create.Flags().StringVar(&role, "role", string(enums.UserRoleAdmin), "admin or member")
	_ = create.MarkFlagRequired("name")
	_ = create.MarkFlagRequired("email")

	userCmd.AddCommand(create)
	return userCmd
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|status]",
		Short:     "Apply or inspect the embedded schema migrations",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "status"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, closeRT, err := open(ctx)
			if err != nil {
				return err
			}
			defer closeRT()

			sqlDB, err := rt.DB.DB().DB()
			if err != nil {
				return err
			}
			dialect := migrate.DialectFor(rt.Config.FeatureFlags.UseSQLite)
			return migrate.Run(ctx, sqlDB, dialect, args[0], cmd.OutOrStdout())
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
