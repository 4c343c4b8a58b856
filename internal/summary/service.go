package summary

import (
	"context"
	"fmt"
	"strings"
	"time"

	pkgerrors "github.com/shelfwise/library-backend/pkg/errors"
	"github.com/shelfwise/library-backend/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// Ranges accepted by the summary endpoint.
const (
	RangeAll       = "all"
	RangeOneWeek   = "1w"
	RangeThreeMons = "3m"
	RangeSixMons   = "6m"
)

// Service builds the admin dashboard.
type Service interface {
	Summary(ctx context.Context, q Query) (*Summary, error)
}

type service struct {
	repo    *Repository
	refresh func(ctx context.Context) error
	logg    *logger.Logger
	now     func() time.Time
}

// NewService wires the dashboard. refresh, when set, runs before counting so
// overdue figures reflect the current day.
func NewService(repo *Repository, refresh func(ctx context.Context) error, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("summary repository required")
	}
	return &service{repo: repo, refresh: refresh, logg: logg, now: time.Now}, nil
}

func (s *service) Summary(ctx context.Context, q Query) (*Summary, error) {
	window, err := ResolveWindow(q, s.now().UTC())
	if err != nil {
		return nil, err
	}

	if s.refresh != nil {
		if err := s.refresh(ctx); err != nil && s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "summary.refresh.partial")
		}
	}

	out := &Summary{Window: window}
	var g errgroup.Group
	g.Go(func() (err error) {
		out.Stats.TotalUsers, err = s.repo.CountUsers(ctx)
		return err
	})
	g.Go(func() (err error) {
		out.Stats.TotalBooks, err = s.repo.CountBooks(ctx)
		return err
	})
	g.Go(func() (err error) {
		out.Stats.BorrowedBooks, out.Stats.OverdueBooks, out.Stats.ReturnedBooks, err = s.repo.StatusCounts(ctx, window)
		return err
	})
	g.Go(func() (err error) {
		out.Stats.ActiveMembers, err = s.repo.ActiveMembers(ctx, window)
		return err
	})
	g.Go(func() (err error) {
		out.Charts.CategoryChart, err = s.repo.CategoryCounts(ctx, window)
		return err
	})
	g.Go(func() (err error) {
		out.Charts.MonthlyChart, err = s.repo.MonthlyCounts(ctx, window)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build summary")
	}

	out.Stats.ActiveLoans = out.Stats.BorrowedBooks + out.Stats.OverdueBooks
	if out.Charts.CategoryChart == nil {
		out.Charts.CategoryChart = []LabelCount{}
	}
	out.Charts.StatusChart = []StatusCount{
		{Status: "Borrowed", Count: out.Stats.BorrowedBooks},
		{Status: "Returned", Count: out.Stats.ReturnedBooks},
		{Status: "Overdue", Count: out.Stats.OverdueBooks},
	}
	return out, nil
}

// ResolveWindow turns a query into concrete bounds at now. An explicit
// from/to pair wins over the named range.
func ResolveWindow(q Query, now time.Time) (Window, error) {
	if q.From != nil || q.To != nil {
		if q.From == nil || q.To == nil {
			return Window{}, pkgerrors.New(pkgerrors.CodeValidation, "from and to must be supplied together")
		}
		if q.To.Before(*q.From) {
			return Window{}, pkgerrors.New(pkgerrors.CodeValidation, "from must not be after to")
		}
		start := q.From.UTC()
		return Window{Start: &start, End: q.To.UTC()}, nil
	}

	var start time.Time
	switch strings.ToLower(strings.TrimSpace(q.Range)) {
	case "", RangeAll:
		return Window{End: now}, nil
	case RangeOneWeek:
		start = now.AddDate(0, 0, -7)
	case RangeThreeMons:
		start = now.AddDate(0, -3, 0)
	case RangeSixMons:
		start = now.AddDate(0, -6, 0)
	default:
		return Window{}, pkgerrors.New(pkgerrors.CodeValidation, "range must be one of 1w, 3m, 6m")
	}
	return Window{Start: &start, End: now}, nil
}
