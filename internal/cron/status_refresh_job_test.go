package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/shelfwise/library-backend/internal/borrows"
	"github.com/shelfwise/library-backend/pkg/logger"
)

type fakeRefresher struct {
	result borrows.RefreshResult
	err    error
	calls  int
}

func (f *fakeRefresher) RefreshOverdue(context.Context) (borrows.RefreshResult, error) {
	f.calls++
	return f.result, f.err
}

func TestStatusRefreshJobRunsSweep(t *testing.T) {
	refresher := &fakeRefresher{result: borrows.RefreshResult{Scanned: 3, MarkedOverdue: 2}}
	job, err := NewStatusRefreshJob(StatusRefreshJobParams{
		Logger:    logger.New(logger.Options{ServiceName: "test"}),
		Refresher: refresher,
	})
	if err != nil {
		t.Fatalf("NewStatusRefreshJob: %v", err)
	}
	if job.Name() != StatusRefreshJobName {
		t.Fatalf("unexpected name %q", job.Name())
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if refresher.calls != 1 {
		t.Fatalf("expected one sweep, got %d", refresher.calls)
	}
}

func TestStatusRefreshJobPropagatesErrors(t *testing.T) {
	refresher := &fakeRefresher{err: errors.New("record x: boom")}
	job, err := NewStatusRefreshJob(StatusRefreshJobParams{
		Logger:    logger.New(logger.Options{ServiceName: "test"}),
		Refresher: refresher,
	})
	if err != nil {
		t.Fatalf("NewStatusRefreshJob: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestNewStatusRefreshJobValidates(t *testing.T) {
	if _, err := NewStatusRefreshJob(StatusRefreshJobParams{Refresher: &fakeRefresher{}}); err == nil {
		t.Fatal("expected logger error")
	}
	if _, err := NewStatusRefreshJob(StatusRefreshJobParams{Logger: logger.New(logger.Options{})}); err == nil {
		t.Fatal("expected refresher error")
	}
}
