package borrows

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shelfwise/library-backend/pkg/db/models"
	"github.com/shelfwise/library-backend/pkg/enums"
	"gorm.io/gorm"
)

// Repository persists borrow records. Records are never deleted.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, record *models.BorrowRecord) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.BorrowRecord, error)
	List(ctx context.Context, filter RecordFilter) ([]models.BorrowRecord, error)
	FindRefreshCandidates(ctx context.Context, now time.Time) ([]models.BorrowRecord, error)
	ApplyRefresh(ctx context.Context, id uuid.UUID, d Derivation) (bool, error)
	Update(ctx context.Context, id uuid.UUID, fields map[string]any) (bool, error)
	MarkReturned(ctx context.Context, id uuid.UUID, returnedAt time.Time, status enums.BorrowStatus, fine int) (bool, error)
}

// RecordFilter narrows List. Zero values are ignored; name and title match
// case-insensitive substrings.
type RecordFilter struct {
	UserID    *uuid.UUID
	BookID    *uuid.UUID
	Statuses  []enums.BorrowStatus
	OpenOnly  bool
	DueBefore *time.Time
	UserName  string
	BookTitle string
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns the GORM-backed borrow record store.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, record *models.BorrowRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.BorrowRecord, error) {
	var record models.BorrowRecord
	if err := r.withRelations(ctx).First(&record, "borrow_records.id = ?", id).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repository) List(ctx context.Context, filter RecordFilter) ([]models.BorrowRecord, error) {
	query := r.withRelations(ctx)
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.BookID != nil {
		query = query.Where("book_id = ?", *filter.BookID)
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	if filter.OpenOnly {
		query = query.Where("return_date IS NULL")
	}
	if filter.DueBefore != nil {
		query = query.Where("due_date < ?", filter.DueBefore.UTC())
	}
	if name := strings.TrimSpace(filter.UserName); name != "" {
		query = query.Where(
			`user_id IN (SELECT id FROM users WHERE LOWER(name) LIKE ? ESCAPE '\')`,
			containsPattern(name),
		)
	}
	if title := strings.TrimSpace(filter.BookTitle); title != "" {
		query = query.Where(
			`book_id IN (SELECT id FROM books WHERE LOWER(title) LIKE ? ESCAPE '\')`,
			containsPattern(title),
		)
	}

	var records []models.BorrowRecord
	if err := query.Order("borrow_date DESC").Order("id DESC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// FindRefreshCandidates loads open records whose status or fine may have
// drifted: anything already overdue plus anything whose due date has passed.
func (r *repository) FindRefreshCandidates(ctx context.Context, now time.Time) ([]models.BorrowRecord, error) {
	var records []models.BorrowRecord
	err := r.db.WithContext(ctx).
		Where("return_date IS NULL").
		Where(
			r.db.Where("status IN ? AND due_date < ?",
				[]enums.BorrowStatus{enums.BorrowStatusBorrowed, enums.BorrowStatusReading}, now.UTC()).
				Or("status = ?", enums.BorrowStatusOverdue),
		).
		Order("due_date ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// ApplyRefresh persists a derivation while the record is still open.
func (r *repository) ApplyRefresh(ctx context.Context, id uuid.UUID, d Derivation) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.BorrowRecord{}).
		Where("id = ? AND return_date IS NULL", id).
		Updates(map[string]any{
			"status":          d.Status,
			"fine_amount":     d.FineAmount,
			"fine_overridden": d.FineOverridden,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, fields map[string]any) (bool, error) {
	if len(fields) == 0 {
		return false, nil
	}
	res := r.db.WithContext(ctx).
		Model(&models.BorrowRecord{}).
		Where("id = ?", id).
		Updates(fields)
	return res.RowsAffected > 0, res.Error
}

// MarkReturned closes the record. Only the first caller wins; later calls
// report false.
func (r *repository) MarkReturned(ctx context.Context, id uuid.UUID, returnedAt time.Time, status enums.BorrowStatus, fine int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.BorrowRecord{}).
		Where("id = ? AND return_date IS NULL AND status <> ?", id, enums.BorrowStatusReturned).
		Updates(map[string]any{
			"return_date": returnedAt.UTC(),
			"status":      status,
			"fine_amount": fine,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *repository) withRelations(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Book").
		Preload("User", func(tx *gorm.DB) *gorm.DB {
			return tx.Select("id", "name", "email", "role")
		})
}

func containsPattern(needle string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(strings.ToLower(needle))
	return "%" + escaped + "%"
}
