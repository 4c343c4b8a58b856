package summary

import (
	"context"
	"sort"
	"time"

	"github.com/shelfwise/library-backend/pkg/db/models"
	"github.com/shelfwise/library-backend/pkg/enums"
	"gorm.io/gorm"
)

// Repository runs the dashboard aggregates.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the aggregates to db.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type statusRow struct {
	Status enums.BorrowStatus
	Open   bool
	Total  int64
}

// StatusCounts splits windowed records into borrowed, overdue and returned.
// Returned means closed, whatever status the record was closed with.
func (r *Repository) StatusCounts(ctx context.Context, w Window) (borrowed, overdue, returned int64, err error) {
	var rows []statusRow
	err = r.records(ctx, w).
		Select("status, return_date IS NULL AS open, COUNT(*) AS total").
		Group("status, return_date IS NULL").
		Scan(&rows).Error
	if err != nil {
		return 0, 0, 0, err
	}
	for _, row := range rows {
		switch {
		case !row.Open:
			returned += row.Total
		case row.Status == enums.BorrowStatusOverdue:
			overdue += row.Total
		default:
			borrowed += row.Total
		}
	}
	return borrowed, overdue, returned, nil
}

// ActiveMembers counts distinct users holding an open loan from the window.
func (r *Repository) ActiveMembers(ctx context.Context, w Window) (int64, error) {
	var n int64
	err := r.records(ctx, w).
		Where("return_date IS NULL").
		Distinct("user_id").
		Count(&n).Error
	return n, err
}

// CategoryCounts groups windowed loans by book category, largest first.
func (r *Repository) CategoryCounts(ctx context.Context, w Window) ([]LabelCount, error) {
	var rows []LabelCount
	err := r.records(ctx, w).
		Joins("JOIN books ON books.id = borrow_records.book_id").
		Select("books.category AS label, COUNT(*) AS value").
		Group("books.category").
		Order("value DESC").
		Order("label ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// MonthlyCounts buckets windowed loans by UTC calendar month, oldest first.
func (r *Repository) MonthlyCounts(ctx context.Context, w Window) ([]MonthCount, error) {
	var dates []time.Time
	if err := r.records(ctx, w).Pluck("borrow_date", &dates).Error; err != nil {
		return nil, err
	}
	buckets := map[string]int64{}
	for _, d := range dates {
		buckets[d.UTC().Format("2006-01")]++
	}
	out := make([]MonthCount, 0, len(buckets))
	for month, count := range buckets {
		out = append(out, MonthCount{Month: month, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out, nil
}

// CountUsers counts every account.
func (r *Repository) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Count(&n).Error
	return n, err
}

// CountBooks counts titles still in the catalog.
func (r *Repository) CountBooks(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Book{}).Where("is_deleted = ?", false).Count(&n).Error
	return n, err
}

func (r *Repository) records(ctx context.Context, w Window) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.BorrowRecord{}).
		Where("borrow_records.borrow_date <= ?", w.End.UTC())
	if w.Start != nil {
		query = query.Where("borrow_records.borrow_date >= ?", w.Start.UTC())
	}
	return query
}
