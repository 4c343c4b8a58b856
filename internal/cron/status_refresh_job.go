package cron

import (
	"context"
	"fmt"

	"github.com/shelfwise/library-backend/internal/borrows"
	"github.com/shelfwise/library-backend/pkg/logger"
)

// StatusRefreshJobName identifies the overdue sweep in logs and metrics.
const StatusRefreshJobName = "borrow-status-refresh"

type overdueRefresher interface {
	RefreshOverdue(ctx context.Context) (borrows.RefreshResult, error)
}

type StatusRefreshJobParams struct {
	Logger    *logger.Logger
	Refresher overdueRefresher
}

// NewStatusRefreshJob marks late loans overdue and re-accrues their fines.
func NewStatusRefreshJob(params StatusRefreshJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Refresher == nil {
		return nil, fmt.Errorf("borrow refresher required")
	}
	return &statusRefreshJob{logg: params.Logger, refresher: params.Refresher}, nil
}

type statusRefreshJob struct {
	logg      *logger.Logger
	refresher overdueRefresher
}

func (j *statusRefreshJob) Name() string { return StatusRefreshJobName }

func (j *statusRefreshJob) Run(ctx context.Context) error {
	result, err := j.refresher.RefreshOverdue(ctx)
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"scanned":        result.Scanned,
		"marked_overdue": result.MarkedOverdue,
		"restored":       result.Restored,
		"fines_updated":  result.FinesUpdated,
		"failed":         result.Failed,
	})
	if err != nil {
		j.logg.Warn(logCtx, "borrow status refresh finished with failures")
		return fmt.Errorf("borrow status refresh: %w", err)
	}
	j.logg.Info(logCtx, "borrow status refresh complete")
	return nil
}
